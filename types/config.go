package types

import (
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"text2phenotype.com/standoff/logger"
)

const (
	DefaultConfigurationName = "default"
	DefaultThemeSuffix       = ".a1"
	DefaultEventSuffix       = ".a2"

	// reference grammars
	GrammarPositional = "positional"
	GrammarPattern    = "pattern"

	// duplicate id policies
	DuplicateIDsOverwrite = "overwrite"
	DuplicateIDsReject    = "reject"
)

type Configuration struct {
	Name          string   `json:"name"`
	FilePath      string   `json:"file_path"`
	ThemeSuffix   string   `yaml:"theme_suffix" json:"theme_suffix"`
	EventSuffixes []string `yaml:"event_suffixes" json:"event_suffixes"`
	Grammar       string   `yaml:"grammar" json:"grammar"`
	DuplicateIDs  string   `yaml:"duplicate_ids" json:"duplicate_ids"`
	OrderBySpan   bool     `yaml:"order_by_span" json:"order_by_span"`
}

func DefaultConfiguration() Configuration {
	cfg := Configuration{Name: DefaultConfigurationName}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Configuration) applyDefaults() {
	if cfg.ThemeSuffix == "" {
		cfg.ThemeSuffix = DefaultThemeSuffix
	}
	if len(cfg.EventSuffixes) == 0 {
		cfg.EventSuffixes = []string{DefaultEventSuffix}
	}
	if cfg.Grammar == "" {
		cfg.Grammar = GrammarPositional
	}
	if cfg.DuplicateIDs == "" {
		cfg.DuplicateIDs = DuplicateIDsOverwrite
	}
}

func (cfg Configuration) Validate() error {
	if cfg.Grammar != GrammarPositional && cfg.Grammar != GrammarPattern {
		return fmt.Errorf("wrong grammar %q", cfg.Grammar)
	}
	if cfg.DuplicateIDs != DuplicateIDsOverwrite && cfg.DuplicateIDs != DuplicateIDsReject {
		return fmt.Errorf("wrong duplicate ids policy %q", cfg.DuplicateIDs)
	}
	for _, suffix := range cfg.EventSuffixes {
		if suffix == cfg.ThemeSuffix {
			return fmt.Errorf("event suffix %q equals theme suffix", suffix)
		}
	}
	return nil
}

// EventPaths derives the event file paths that belong to a theme file.
func (cfg Configuration) EventPaths(themePath string) ([]string, bool) {
	if !strings.HasSuffix(themePath, cfg.ThemeSuffix) {
		return nil, false
	}
	base := strings.TrimSuffix(themePath, cfg.ThemeSuffix)
	paths := make([]string, 0, len(cfg.EventSuffixes))
	for _, suffix := range cfg.EventSuffixes {
		paths = append(paths, base+suffix)
	}
	return paths, true
}

type Configurations map[string]Configuration

// Get falls back to the default configuration for an empty name.
func (cfgs Configurations) Get(name string) (Configuration, bool) {
	if name == "" {
		if cfg, ok := cfgs[DefaultConfigurationName]; ok {
			return cfg, true
		}
		return DefaultConfiguration(), true
	}
	cfg, ok := cfgs[name]
	return cfg, ok
}

func LoadConfiguration(filePath string) (Configuration, error) {
	_, fileName := path.Split(filePath)
	cfg := Configuration{
		Name:     strings.TrimSuffix(fileName, ".yaml"),
		FilePath: filePath,
	}
	buf, err := os.ReadFile(filePath)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", fileName, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration %s: %w", fileName, err)
	}
	return cfg, nil
}

func LoadConfigurations(dirPath string) (Configurations, error) {
	fdlLogger := logger.NewLogger("LoadConfigurations")

	files, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	configChan := make(chan Configuration, len(files))
	for _, f := range files {
		// Skip dirs and non-yaml files
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}

		wg.Add(1)
		go func(file os.DirEntry) {
			defer wg.Done()
			cfg, err := LoadConfiguration(path.Join(dirPath, file.Name()))
			if err != nil {
				fdlLogger.Err(err).Str("file", file.Name()).Msg("Skipping configuration")
				return
			}
			configChan <- cfg
		}(f)
	}

	go func() {
		wg.Wait()
		close(configChan)
	}()

	configs := make(Configurations, len(files))
	for cfg := range configChan {
		configs[cfg.Name] = cfg
	}
	return configs, nil
}
