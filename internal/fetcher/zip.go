package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Cartographic boundary archives are flat: one shared basename with a
// handful of sidecar members (.shp, .shx, .dbf, .prj, .cpg) and no
// directories. ExtractZIP tolerates nested entries anyway but refuses
// anything that would land outside destDir.

// ExtractZIP unpacks every regular file in the archive into destDir and
// returns the written paths in archive order.
func ExtractZIP(zipPath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open archive %s", zipPath)
	}
	defer r.Close() //nolint:errcheck

	written := make([]string, 0, len(r.File))
	for _, entry := range r.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if !filepath.IsLocal(entry.Name) {
			return written, eris.Errorf("fetcher: archive entry %q escapes the destination (zip slip)", entry.Name)
		}
		dest := filepath.Join(destDir, filepath.FromSlash(entry.Name))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return written, eris.Wrap(err, "fetcher: create extract dir")
		}
		if err := writeZIPEntry(entry, dest); err != nil {
			return written, err
		}
		written = append(written, dest)
	}
	return written, nil
}

// ExtractShapefile unpacks a boundary archive and returns the path of
// its .shp member. The sidecar files land next to it so the shapefile
// reader can find them by basename.
func ExtractShapefile(zipPath, destDir string) (string, error) {
	paths, err := ExtractZIP(zipPath, destDir)
	if err != nil {
		return "", err
	}
	for _, p := range paths {
		if strings.EqualFold(filepath.Ext(p), ".shp") {
			return p, nil
		}
	}
	return "", eris.Errorf("fetcher: no .shp member in %s", zipPath)
}

func writeZIPEntry(entry *zip.File, dest string) error {
	rc, err := entry.Open()
	if err != nil {
		return eris.Wrapf(err, "fetcher: open archive entry %s", entry.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "fetcher: create extracted file")
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return eris.Wrapf(err, "fetcher: write %s", dest)
	}
	return nil
}
