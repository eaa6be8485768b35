package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverrides_EmptyPath(t *testing.T) {
	overrides, err := LoadOverrides("")
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestLoadOverrides_MissingFile(t *testing.T) {
	overrides, err := LoadOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestLoadOverrides_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o644))

	_, err := LoadOverrides(path)
	assert.Error(t, err)
}

func TestOverrides_ApplyPatchesSelectors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
instagram:
  strategies:
    meta-description:
      selector: meta[name="description"]
twitter:
  url_template: https://nitter.example/%s
`), 0o644))

	overrides, err := LoadOverrides(path)
	require.NoError(t, err)

	profiles := overrides.Apply(Profiles())

	assert.Equal(t, "https://nitter.example/%s", profiles["twitter"].URLTemplate)

	var patched *Strategy
	for i := range profiles["instagram"].Strategies {
		if profiles["instagram"].Strategies[i].Name == "meta-description" {
			patched = &profiles["instagram"].Strategies[i]
		}
	}
	require.NotNil(t, patched)
	assert.Equal(t, `meta[name="description"]`, patched.Selector)

	// Untouched platforms keep their built-in profile.
	assert.Equal(t, FacebookProfile().URLTemplate, profiles["facebook"].URLTemplate)
}

func TestOverrides_UnknownPlatformIgnored(t *testing.T) {
	overrides := Overrides{"myspace": {URLTemplate: "https://example.com/%s"}}
	profiles := overrides.Apply(Profiles())
	assert.Len(t, profiles, 4)
}
