package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZIP(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestExtractZIP(t *testing.T) {
	path := writeZIP(t, map[string]string{
		"cb_2021_us_state_5m.shp": "shape bytes",
		"cb_2021_us_state_5m.dbf": "dbf bytes",
	})

	dest := t.TempDir()
	extracted, err := ExtractZIP(path, dest)
	require.NoError(t, err)
	assert.Len(t, extracted, 2)

	data, err := os.ReadFile(filepath.Join(dest, "cb_2021_us_state_5m.shp"))
	require.NoError(t, err)
	assert.Equal(t, "shape bytes", string(data))
}

func TestExtractZIP_RejectsZipSlip(t *testing.T) {
	path := writeZIP(t, map[string]string{"../evil.txt": "pwn"})

	_, err := ExtractZIP(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip slip")
}

func TestExtractShapefile(t *testing.T) {
	path := writeZIP(t, map[string]string{
		"cb_2021_us_county_20m.shp": "shape bytes",
		"cb_2021_us_county_20m.shx": "index bytes",
		"cb_2021_us_county_20m.dbf": "dbf bytes",
		"cb_2021_us_county_20m.prj": "projection",
	})

	dest := t.TempDir()
	shp, err := ExtractShapefile(path, dest)
	require.NoError(t, err)
	assert.Equal(t, "cb_2021_us_county_20m.shp", filepath.Base(shp))
	assert.Equal(t, dest, filepath.Dir(shp))

	// Sidecars land next to the .shp so the reader can pair them up.
	_, err = os.Stat(filepath.Join(dest, "cb_2021_us_county_20m.dbf"))
	require.NoError(t, err)
}

func TestExtractShapefile_NoShpMember(t *testing.T) {
	path := writeZIP(t, map[string]string{"readme.txt": "nothing here"})

	_, err := ExtractShapefile(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .shp member")
}

func TestParseFTPURL(t *testing.T) {
	host, p, err := parseFTPURL("ftp://ftp2.census.gov/geo/tiger/GENZ2021/shp/cb_2021_us_state_5m.zip")
	require.NoError(t, err)
	assert.Equal(t, "ftp2.census.gov:21", host)
	assert.Equal(t, "/geo/tiger/GENZ2021/shp/cb_2021_us_state_5m.zip", p)

	_, _, err = parseFTPURL("https://example.com/x")
	require.Error(t, err)

	_, _, err = parseFTPURL("ftp://host")
	require.Error(t, err)
}
