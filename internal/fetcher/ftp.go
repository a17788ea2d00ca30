package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// The Census FTP mirror takes anonymous logins only.
const (
	ftpUser    = "anonymous"
	ftpPass    = "anonymous@"
	ftpTimeout = 30 * time.Second
)

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout time.Duration
}

// FTPFetcher downloads boundary archives over anonymous FTP. The Census
// Bureau mirrors its shapefiles on ftp2.census.gov, which stays up when
// the HTTPS host is being rate limited.
type FTPFetcher struct {
	timeout time.Duration
}

// NewFTPFetcher creates an FTPFetcher with the given options.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = ftpTimeout
	}
	return &FTPFetcher{timeout: timeout}
}

// parseFTPURL splits an ftp:// URL into a dialable host:port and the
// remote path, defaulting to port 21.
func parseFTPURL(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrapf(err, "fetcher: parse ftp url %s", rawURL)
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("fetcher: expected ftp scheme, got %q", u.Scheme)
	}
	if u.Path == "" {
		return "", "", eris.Errorf("fetcher: ftp url %s has no path", rawURL)
	}

	host := u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}
	return host, u.Path, nil
}

// connect dials the server and logs in anonymously. The caller owns the
// returned connection and must Quit it.
func (f *FTPFetcher) connect(ctx context.Context, host string) (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: ftp dial %s", host)
	}
	if err := conn.Login(ftpUser, ftpPass); err != nil {
		_ = conn.Quit()
		return nil, eris.Wrapf(err, "fetcher: ftp login %s", host)
	}
	return conn, nil
}

// ftpSession ties a RETR data stream to its control connection so that
// closing the reader also releases the session.
type ftpSession struct {
	data *ftp.Response
	conn *ftp.ServerConn
}

func (s *ftpSession) Read(p []byte) (int, error) { return s.data.Read(p) }

func (s *ftpSession) Close() error {
	dataErr := s.data.Close()
	quitErr := s.conn.Quit()
	if dataErr != nil {
		return eris.Wrap(dataErr, "fetcher: close ftp data stream")
	}
	return eris.Wrap(quitErr, "fetcher: quit ftp session")
}

// Download retrieves the file behind an ftp:// URL. The caller must
// close the returned ReadCloser to release the FTP session.
func (f *FTPFetcher) Download(ctx context.Context, ftpURL string) (io.ReadCloser, error) {
	host, remotePath, err := parseFTPURL(ftpURL)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("fetcher: ftp retrieve", zap.String("host", host), zap.String("path", remotePath))

	conn, err := f.connect(ctx, host)
	if err != nil {
		return nil, err
	}
	data, err := conn.Retr(remotePath)
	if err != nil {
		_ = conn.Quit()
		return nil, eris.Wrapf(err, "fetcher: ftp retrieve %s", remotePath)
	}
	return &ftpSession{data: data, conn: conn}, nil
}

// DownloadToFile streams the FTP URL into a local file and reports the
// bytes written.
func (f *FTPFetcher) DownloadToFile(ctx context.Context, ftpURL string, path string) (int64, error) {
	rc, err := f.Download(ctx, ftpURL)
	if err != nil {
		return 0, err
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrapf(err, "fetcher: create %s", path)
	}
	defer out.Close() //nolint:errcheck

	n, err := io.Copy(out, rc)
	if err != nil {
		return n, eris.Wrapf(err, "fetcher: write %s", path)
	}
	return n, nil
}
