package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/classify-api/internal/config"
	"github.com/Brownie44l1/classify-api/internal/errs"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestClassesCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classes.json")
	require.NoError(t, os.WriteFile(path, []byte(`["poodle", "beagle", "golden_retriever"]`), 0o600))
	t.Setenv("IMGCLS_MODEL_VOCABULARY_PATH", path)

	out, err := run(t, "classes")
	require.NoError(t, err)
	assert.Equal(t, "beagle\ngolden_retriever\npoodle\n", out)
}

func TestPrepareCommand_MissingModel(t *testing.T) {
	dir := t.TempDir()
	vocabPath := filepath.Join(dir, "classes.txt")
	require.NoError(t, os.WriteFile(vocabPath, []byte("cat\ndog\n"), 0o600))
	t.Setenv("IMGCLS_MODEL_VOCABULARY_PATH", vocabPath)
	t.Setenv("IMGCLS_MODEL_PATH", filepath.Join(dir, "absent.onnx"))
	t.Setenv("IMGCLS_LOG_LEVEL", "error")

	_, err := run(t, "prepare")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.FatalStartup))
}

func TestClassifyCommand_RequiresArgument(t *testing.T) {
	_, err := run(t, "classify")
	assert.Error(t, err)
}

func TestResolvePaths(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Path = "/abs/model.onnx"
	resolvePaths(cfg)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, "/abs/model.onnx", cfg.Model.Path)
	assert.Equal(t, filepath.Join(wd, config.DefaultVocabularyPath), cfg.Model.VocabularyPath)
	assert.Equal(t, filepath.Join(wd, config.DefaultMetadataPath), cfg.Model.MetadataPath)
}

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("https://example.com/dog.jpg"))
	assert.True(t, isURL("HTTP://example.com/dog.jpg"))
	assert.True(t, isURL("s3://images/dog.jpg"))
	assert.False(t, isURL("./dog.jpg"))
	assert.False(t, isURL("/tmp/http/dog.jpg"))
}
