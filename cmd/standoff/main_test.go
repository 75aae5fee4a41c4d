package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"text2phenotype.com/standoff/types"
)

const testdataDir = "../../standoff/testdata"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestFindDocuments(t *testing.T) {
	docs, err := findDocuments(types.DefaultConfiguration(), []string{
		filepath.Join(testdataDir, "*"),
		filepath.Join(testdataDir, "**", "*.a1"),
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "PMID-9361024", docs[0].ID)
	require.Len(t, docs[0].Events, 1)
	assert.Equal(t, filepath.Join(testdataDir, "PMID-9361024.a2"), docs[0].Events[0].Name)
}

func TestFindDocumentsSkipsMissingEventFiles(t *testing.T) {
	cfg := types.DefaultConfiguration()
	cfg.EventSuffixes = []string{".a2", ".a2.ext", ".a3"}
	docs, err := findDocuments(cfg, []string{filepath.Join(testdataDir, "*.a1")})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Len(t, docs[0].Events, 2)
}

func TestConvertWritesGraph(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "convert", "--out", dir, filepath.Join(testdataDir, "*.a1"))
	require.NoError(t, err)
	path := filepath.Join(dir, "PMID-9361024.graph.json")
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var resp types.GraphResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, "PMID-9361024", resp.DocId)
	assert.Len(t, resp.Events, 3)
}

func TestValidateReportsFailures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.a1"), []byte("T1\tProtein 0 5\tBMP-6\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.a1"), []byte("T1\tProtein 0 5\tBMP-6\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.a2"), []byte("E1\tBinding:T9 Theme:T1\n"), 0o644))

	out, err := execute(t, "validate", filepath.Join(dir, "*.a1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, out, "ok   good")
	assert.Contains(t, out, "FAIL bad [unresolved]")
}

func TestUnknownProfile(t *testing.T) {
	_, err := execute(t, "validate", "--profile", "bionlp", filepath.Join(testdataDir, "*.a1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown configuration")
	profileName = ""
}
