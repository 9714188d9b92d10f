package metacache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/xattr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// xattrSupported probes whether the test filesystem accepts the
// autopkg attribute namespace; tmpfs on Linux usually does not.
func xattrSupported(t *testing.T) bool {
	t.Helper()
	probe := filepath.Join(t.TempDir(), "probe")
	require.NoError(t, os.WriteFile(probe, []byte("x"), 0o644))
	return xattr.Set(probe, AttrETag, []byte("probe")) == nil
}

func TestSynthesizeCreatesPlaceholder(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "downloads", "Firefox.dmg")

	cache := Cache{
		"Firefox.pkg.recipe": NewRecipeCache([]DownloadMetadata{{
			ETag:         "abc123",
			FilePath:     target,
			FileSize:     1024,
			LastModified: "Wed, 01 Jan 2025 10:00:00 GMT",
		}}),
	}

	created, err := Synthesize([]string{"Firefox.pkg.recipe"}, cache)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), info.Size())

	if xattrSupported(t) {
		assert.Equal(t, "abc123", FileAttr(target, AttrETag))
		assert.Equal(t, "Wed, 01 Jan 2025 10:00:00 GMT", FileAttr(target, AttrLastModified))
	}
}

func TestSynthesizeIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "Firefox.dmg")
	cache := Cache{
		"Firefox.pkg.recipe": NewRecipeCache([]DownloadMetadata{{
			FilePath: target,
			FileSize: 64,
		}}),
	}

	created, err := Synthesize([]string{"Firefox.pkg.recipe"}, cache)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	created, err = Synthesize([]string{"Firefox.pkg.recipe"}, cache)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestSynthesizeLeavesExistingFilesAlone(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "Firefox.dmg")
	require.NoError(t, os.WriteFile(target, []byte("real download"), 0o644))

	cache := Cache{
		"Firefox.pkg.recipe": NewRecipeCache([]DownloadMetadata{{
			FilePath: target,
			FileSize: 9999,
		}}),
	}

	created, err := Synthesize([]string{"Firefox.pkg.recipe"}, cache)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "real download", string(data))
}

func TestSynthesizeSkipsIncompleteEntries(t *testing.T) {
	dir := t.TempDir()
	cache := Cache{
		"NoPath.recipe": NewRecipeCache([]DownloadMetadata{{FileSize: 100}}),
		"NoSize.recipe": NewRecipeCache([]DownloadMetadata{{FilePath: filepath.Join(dir, "x.dmg")}}),
	}

	created, err := Synthesize([]string{"NoPath.recipe", "NoSize.recipe"}, cache)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	_, statErr := os.Stat(filepath.Join(dir, "x.dmg"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSynthesizeOnlyTouchesListedRecipes(t *testing.T) {
	dir := t.TempDir()
	cache := Cache{
		"Listed.recipe":   NewRecipeCache([]DownloadMetadata{{FilePath: filepath.Join(dir, "listed.dmg"), FileSize: 10}}),
		"Unlisted.recipe": NewRecipeCache([]DownloadMetadata{{FilePath: filepath.Join(dir, "unlisted.dmg"), FileSize: 10}}),
	}

	created, err := Synthesize([]string{"Listed.recipe"}, cache)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	_, statErr := os.Stat(filepath.Join(dir, "unlisted.dmg"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileAttrMissingAttribute(t *testing.T) {
	probe := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(probe, []byte("x"), 0o644))

	assert.Equal(t, "", FileAttr(probe, AttrETag))
}
