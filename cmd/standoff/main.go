package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"text2phenotype.com/standoff/logger"
	"text2phenotype.com/standoff/standoff"
	"text2phenotype.com/standoff/types"
)

var version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:           "standoff",
		Short:         "Build annotation graphs from BioNLP standoff files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	configDir   string
	profileName string
	outDir      string

	cliLogger = logger.NewLogger("CLI")
)

var convertCmd = &cobra.Command{
	Use:   "convert [glob...]",
	Short: "Write one graph JSON file per matched theme file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadProfile()
		if err != nil {
			return err
		}
		docs, err := findDocuments(cfg, args)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
		load := standoff.NewLoader(cfg)
		failed := 0
		for _, doc := range docs {
			graph, err := load(doc)
			if err != nil {
				failed++
				cliLogger.Err(err).Str("doc_id", doc.ID).Str("error_class", standoff.ErrorClass(err)).Msg("Failed to build graph")
				continue
			}
			out := filepath.Join(outDir, doc.ID+".graph.json")
			if err := writeGraph(out, graph); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(docs))
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [glob...]",
	Short: "Check that every matched document resolves into a graph",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadProfile()
		if err != nil {
			return err
		}
		docs, err := findDocuments(cfg, args)
		if err != nil {
			return err
		}
		failed := validate(cmd, standoff.NewLoader(cfg), docs)
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(docs))
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func main() {
	logger.SetupLogging()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "", "directory of YAML configurations")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "configuration name, the default configuration if empty")
	convertCmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadProfile() (types.Configuration, error) {
	cfgs := types.Configurations{}
	if configDir != "" {
		loaded, err := types.LoadConfigurations(configDir)
		if err != nil {
			return types.Configuration{}, fmt.Errorf("load configurations: %w", err)
		}
		cfgs = loaded
	}
	cfg, ok := cfgs.Get(profileName)
	if !ok {
		return cfg, fmt.Errorf("unknown configuration %q", profileName)
	}
	return cfg, nil
}

// findDocuments expands patterns into documents. Files not ending in the
// theme suffix are ignored and event files that do not exist are skipped.
func findDocuments(cfg types.Configuration, patterns []string) ([]standoff.Document, error) {
	seen := make(map[string]struct{})
	var docs []standoff.Document
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, themePath := range matches {
			eventPaths, ok := cfg.EventPaths(themePath)
			if !ok {
				continue
			}
			if _, dup := seen[themePath]; dup {
				continue
			}
			seen[themePath] = struct{}{}
			doc := standoff.Document{
				ID:     strings.TrimSuffix(filepath.Base(themePath), cfg.ThemeSuffix),
				Themes: standoff.FileSource(themePath),
			}
			for _, eventPath := range eventPaths {
				if _, err := os.Stat(eventPath); err != nil {
					continue
				}
				doc.Events = append(doc.Events, standoff.FileSource(eventPath))
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func validate(cmd *cobra.Command, load standoff.Loader, docs []standoff.Document) int {
	failed := 0
	for _, doc := range docs {
		graph, err := load(doc)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s [%s] %v\n", doc.ID, standoff.ErrorClass(err), err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok   %s themes=%d events=%d\n", doc.ID, len(graph.Themes()), len(graph.Events()))
	}
	return failed
}

func writeGraph(path string, graph *standoff.Graph) error {
	data, err := json.MarshalIndent(graph.Export(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
