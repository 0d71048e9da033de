package navindex

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	idx, err := ReadFile(filepath.Join("testdata", "app_index.json"))
	require.NoError(t, err)

	out := Render("App", idx, 0)
	assert.True(t, strings.HasPrefix(out, "App (schema 0.1.0)"), out)
	assert.Contains(t, out, "swift")
	assert.Contains(t, out, "occ")
	assert.Contains(t, out, "App [module] /documentation/app")
	assert.Contains(t, out, "AppDelegate [class] /documentation/app/appdelegate")
	assert.Contains(t, out, "Essentials [groupMarker]")
}

func TestRender_Depth(t *testing.T) {
	idx, err := ReadFile(filepath.Join("testdata", "app_index.json"))
	require.NoError(t, err)

	out := Render("App", idx, 1)
	assert.Contains(t, out, "App [module]")
	assert.NotContains(t, out, "AppDelegate")
}
