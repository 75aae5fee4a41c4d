package types

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir string, name string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadConfigurations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "default.yaml", "order_by_span: true\n")
	writeFile(t, dir, "genia.yaml", "event_suffixes: [.a2, .a2.ext]\ngrammar: pattern\nduplicate_ids: reject\n")
	writeFile(t, dir, "broken.yaml", "grammar: regex\n")
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))

	configs, err := LoadConfigurations(dir)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	def, ok := configs.Get("")
	require.True(t, ok)
	assert.Equal(t, DefaultConfigurationName, def.Name)
	assert.True(t, def.OrderBySpan)
	assert.Equal(t, DefaultThemeSuffix, def.ThemeSuffix)
	assert.Equal(t, []string{DefaultEventSuffix}, def.EventSuffixes)
	assert.Equal(t, GrammarPositional, def.Grammar)
	assert.Equal(t, DuplicateIDsOverwrite, def.DuplicateIDs)

	genia, ok := configs.Get("genia")
	require.True(t, ok)
	assert.Equal(t, []string{".a2", ".a2.ext"}, genia.EventSuffixes)
	assert.Equal(t, GrammarPattern, genia.Grammar)
	assert.Equal(t, DuplicateIDsReject, genia.DuplicateIDs)
	assert.Equal(t, filepath.Join(dir, "genia.yaml"), genia.FilePath)

	_, ok = configs.Get("broken")
	assert.False(t, ok)
}

func TestLoadConfigurationsMissingDir(t *testing.T) {
	_, err := LoadConfigurations(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestConfigurationsGetWithoutDefault(t *testing.T) {
	cfg, ok := Configurations{}.Get("")
	require.True(t, ok)
	assert.Equal(t, DefaultConfiguration(), cfg)
}

func TestConfigurationValidate(t *testing.T) {
	cfg := DefaultConfiguration()
	require.NoError(t, cfg.Validate())

	cfg.EventSuffixes = []string{".a1"}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfiguration()
	cfg.DuplicateIDs = "merge"
	assert.Error(t, cfg.Validate())
}

func TestConfigurationEventPaths(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.EventSuffixes = []string{".a2", ".a2.ext"}

	paths, ok := cfg.EventPaths("corpus/PMID-1.a1")
	require.True(t, ok)
	assert.Equal(t, []string{"corpus/PMID-1.a2", "corpus/PMID-1.a2.ext"}, paths)

	_, ok = cfg.EventPaths("corpus/PMID-1.txt")
	assert.False(t, ok)
}
