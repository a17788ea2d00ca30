package geodata

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civicdata/policy-atlas/internal/fetcher"
)

// Census cartographic boundary archives, 2021 vintage. The 5m state file
// balances coastline detail against size; counties only feed the border
// maps so the coarser 20m file is enough.
const (
	StateArchive  = "cb_2021_us_state_5m.zip"
	CountyArchive = "cb_2021_us_county_20m.zip"

	httpShapefileBase = "https://www2.census.gov/geo/tiger/GENZ2021/shp/"
	ftpShapefileBase  = "ftp://ftp2.census.gov/geo/tiger/GENZ2021/shp/"
)

// Source resolves boundary geometry, preferring a local cache, then the
// Census HTTPS host, then its FTP mirror, then a bundled GeoJSON snapshot.
type Source struct {
	HTTP     fetcher.Fetcher
	FTP      fetcher.Fetcher
	CacheDir string

	// FallbackGeoJSON is the bundled state snapshot used when every
	// network path fails. Empty disables the fallback.
	FallbackGeoJSON string

	// HTTPBase and FTPBase override the Census hosts, mainly for tests.
	HTTPBase string
	FTPBase  string
}

// NewSource builds a Source with the default fetchers.
func NewSource(cacheDir, fallbackGeoJSON string) *Source {
	return &Source{
		HTTP:            fetcher.NewHTTPFetcher(fetcher.HTTPOptions{RateLimiters: fetcher.DefaultRateLimiters()}),
		FTP:             fetcher.NewFTPFetcher(fetcher.FTPOptions{}),
		CacheDir:        cacheDir,
		FallbackGeoJSON: fallbackGeoJSON,
	}
}

// States returns the 51-jurisdiction state boundary set.
func (s *Source) States(ctx context.Context) ([]StateShape, error) {
	shpPath, err := s.ensureShapefile(ctx, StateArchive)
	if err == nil {
		states, loadErr := LoadStateShapefile(shpPath)
		if loadErr == nil {
			return states, nil
		}
		err = loadErr
	}

	if s.FallbackGeoJSON == "" {
		return nil, err
	}
	zap.L().Warn("geodata: falling back to bundled state geometry", zap.Error(err))
	return LoadStateGeoJSON(s.FallbackGeoJSON)
}

// Counties returns the county boundary set.
func (s *Source) Counties(ctx context.Context) ([]CountyShape, error) {
	shpPath, err := s.ensureShapefile(ctx, CountyArchive)
	if err != nil {
		return nil, err
	}
	return LoadCountyShapefile(shpPath)
}

// ensureShapefile returns the path to the extracted .shp for an archive,
// downloading it if the cache is cold.
func (s *Source) ensureShapefile(ctx context.Context, archive string) (string, error) {
	if err := os.MkdirAll(s.CacheDir, 0o755); err != nil {
		return "", eris.Wrap(err, "geodata: create cache dir")
	}

	zipPath := filepath.Join(s.CacheDir, archive)
	extractDir := filepath.Join(s.CacheDir, strings.TrimSuffix(archive, ".zip"))

	// A previously extracted shapefile wins outright.
	if shpPath, err := findFileByExt(extractDir, ".shp"); err == nil {
		return shpPath, nil
	}

	if info, err := os.Stat(zipPath); err != nil || info.Size() == 0 {
		if err := s.download(ctx, archive, zipPath); err != nil {
			return "", err
		}
	} else {
		zap.L().Debug("geodata: archive already cached", zap.String("path", zipPath))
	}

	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return "", eris.Wrap(err, "geodata: create extract dir")
	}
	shpPath, err := fetcher.ExtractShapefile(zipPath, extractDir)
	if err != nil {
		return "", eris.Wrapf(err, "geodata: extract %s", archive)
	}
	return shpPath, nil
}

func (s *Source) download(ctx context.Context, archive, dest string) error {
	log := zap.L().With(zap.String("archive", archive))

	httpBase := s.HTTPBase
	if httpBase == "" {
		httpBase = httpShapefileBase
	}
	ftpBase := s.FTPBase
	if ftpBase == "" {
		ftpBase = ftpShapefileBase
	}

	log.Info("geodata: downloading boundary archive")
	n, httpErr := s.HTTP.DownloadToFile(ctx, httpBase+archive, dest)
	if httpErr == nil {
		log.Info("geodata: download complete", zap.Int64("bytes", n))
		return nil
	}

	if s.FTP == nil {
		return eris.Wrapf(httpErr, "geodata: download %s", archive)
	}

	log.Warn("geodata: https download failed, trying ftp mirror", zap.Error(httpErr))
	n, ftpErr := s.FTP.DownloadToFile(ctx, ftpBase+archive, dest)
	if ftpErr != nil {
		_ = os.Remove(dest)
		return eris.Wrapf(ftpErr, "geodata: download %s from ftp mirror", archive)
	}
	log.Info("geodata: ftp download complete", zap.Int64("bytes", n))
	return nil
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "geodata: read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("geodata: no %s file found in %s", ext, dir)
}
