package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palletworks/pallet/internal/logger"
)

func TestMain(m *testing.M) {
	logger.UseTestMode()
	os.Exit(m.Run())
}

const samplePlistRecipe = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Description</key>
	<string>Downloads the latest Firefox release.</string>
	<key>Identifier</key>
	<string>local.download.Firefox</string>
	<key>Input</key>
	<dict>
		<key>NAME</key>
		<string>Firefox</string>
	</dict>
	<key>MinimumVersion</key>
	<string>2.3</string>
	<key>Process</key>
	<array>
		<dict>
			<key>Processor</key>
			<string>URLDownloader</string>
		</dict>
	</array>
</dict>
</plist>
`

const sampleYAMLRecipe = `Description: Downloads the latest Google Chrome release.
Identifier: local.download.GoogleChrome
Input:
  NAME: GoogleChrome
MinimumVersion: "2.7"
ParentRecipe: com.github.autopkg.download.googlechrome
Process:
  - Processor: URLDownloader
    Arguments:
      url: https://dl.google.com/chrome/mac/stable/googlechrome.dmg
`

func writeRecipeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "Firefox.download.recipe.yaml", want: FormatYAML},
		{path: "Firefox.download.recipe", want: FormatPlist},
		{path: "Firefox.download.plist", want: FormatPlist},
		{path: "Firefox.download.json", wantErr: true},
		{path: "Firefox", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewParsesPlistRecipe(t *testing.T) {
	dir := t.TempDir()
	path := writeRecipeFile(t, dir, "Firefox.download.recipe", samplePlistRecipe)

	r, err := New(path)
	require.NoError(t, err)

	assert.Equal(t, "Firefox.download.recipe", r.Name())
	assert.Equal(t, dir, r.Dir())
	assert.Equal(t, FormatPlist, r.Format())
	assert.Equal(t, "local.download.Firefox", r.Identifier())
	assert.Equal(t, "Downloads the latest Firefox release.", r.Description())
	assert.Equal(t, "2.3", r.MinimumVersion())
	assert.Empty(t, r.ParentRecipe())
	require.Len(t, r.Process(), 1)
	assert.Equal(t, "URLDownloader", r.Process()[0]["Processor"])
	assert.Equal(t, TrustUntested, r.Trust())

	name, err := r.InputName()
	require.NoError(t, err)
	assert.Equal(t, "Firefox", name)
}

func TestNewParsesYAMLRecipe(t *testing.T) {
	dir := t.TempDir()
	path := writeRecipeFile(t, dir, "GoogleChrome.download.recipe.yaml", sampleYAMLRecipe)

	r, err := New(path)
	require.NoError(t, err)

	assert.Equal(t, FormatYAML, r.Format())
	assert.Equal(t, "local.download.GoogleChrome", r.Identifier())
	assert.Equal(t, "com.github.autopkg.download.googlechrome", r.ParentRecipe())
	assert.Equal(t, "2.7", r.MinimumVersion())

	name, err := r.InputName()
	require.NoError(t, err)
	assert.Equal(t, "GoogleChrome", name)
}

func TestNewRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeRecipeFile(t, dir, "Firefox.download.json", "{}")

	_, err := New(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipe format")
}

func TestNewRejectsGarbageContents(t *testing.T) {
	dir := t.TempDir()
	path := writeRecipeFile(t, dir, "Broken.download.recipe", "not a plist")

	_, err := New(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file contents")
}

func TestInputNameMissing(t *testing.T) {
	dir := t.TempDir()
	path := writeRecipeFile(t, dir, "NoName.download.recipe.yaml", "Identifier: local.noname\nInput: {}\n")

	r, err := New(path)
	require.NoError(t, err)

	_, err = r.InputName()
	require.Error(t, err)
}

func TestTrustStateString(t *testing.T) {
	assert.Equal(t, "untested", TrustUntested.String())
	assert.Equal(t, "verified", TrustVerified.String())
	assert.Equal(t, "failed", TrustFailed.String())
}
