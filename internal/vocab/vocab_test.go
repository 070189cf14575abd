package vocab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/classify-api/internal/errs"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classes.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_JSONArray(t *testing.T) {
	v, err := Load(writeFile(t, `["golden_retriever", "poodle", "beagle"]`))
	require.NoError(t, err)

	assert.Equal(t, 3, v.Len())
	assert.Equal(t, "poodle", v.Label(1))
	assert.Equal(t, []string{"golden_retriever", "poodle", "beagle"}, v.Labels())
	assert.Equal(t, []string{"beagle", "golden_retriever", "poodle"}, v.Sorted())
}

func TestLoad_LineFormat(t *testing.T) {
	v, err := Load(writeFile(t, "# dogs\nzebra\n\napple\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"zebra", "apple"}, v.Labels())
}

func TestLoad_Failures(t *testing.T) {
	tests := map[string]string{
		"malformed json": `["a", `,
		"empty array":    `[]`,
		"duplicate":      `["a", "b", "a"]`,
		"blank label":    `["a", " "]`,
		"wrong types":    `[1, 2]`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, body))
			require.Error(t, err)
			assert.True(t, errs.IsKind(err, errs.FatalStartup))
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.FatalStartup))
}

func TestVocabulary_Immutable(t *testing.T) {
	in := []string{"b", "a"}
	v, err := New(in)
	require.NoError(t, err)

	in[0] = "mutated"
	v.Labels()[1] = "mutated"
	v.Sorted()[0] = "mutated"

	assert.Equal(t, []string{"b", "a"}, v.Labels())
	assert.Equal(t, []string{"a", "b"}, v.Sorted())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "golden retriever", DisplayName("golden_retriever"))
	assert.Equal(t, "great white shark", DisplayName("great_white_shark"))
	assert.Equal(t, "poodle", DisplayName("poodle"))
}
