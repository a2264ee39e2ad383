// Package corpus fetches and reads the training text.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/samcharles93/charrnn/internal/logger"
)

// ShakespeareURL is the tiny-shakespeare corpus.
const ShakespeareURL = "https://storage.googleapis.com/download.tensorflow.org/data/shakespeare.txt"

const envCacheDir = "CHARRNN_CACHE_DIR"

var ErrInvalidUTF8 = errors.New("corpus: text is not valid UTF-8")

// Fetcher downloads corpora into a cache directory. A file that is already
// cached is never downloaded again.
type Fetcher struct {
	Client   *http.Client
	CacheDir string
	Log      logger.Logger
}

// CacheDir resolves the corpus cache: $CHARRNN_CACHE_DIR, then the user cache
// directory, then ./.cache.
func CacheDir() string {
	if dir := strings.TrimSpace(os.Getenv(envCacheDir)); dir != "" {
		return dir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "charrnn", "datasets")
	}
	return filepath.Join(".cache", "charrnn", "datasets")
}

// Fetch returns the local path of url, downloading it on first use. The
// download goes to a temporary file that is renamed once complete, so an
// interrupted fetch never leaves a truncated corpus behind.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	log := f.Log
	if log == nil {
		log = logger.Discard()
	}
	dir := f.CacheDir
	if dir == "" {
		dir = CacheDir()
	}
	name, err := cacheName(url)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(dir, name)
	if st, err := os.Stat(dest); err == nil && st.Size() > 0 {
		log.Debug("corpus cached", "path", dest, "bytes", st.Size())
		return dest, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	log.Info("downloading corpus", "url", url)
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(dir, "."+name+"-*")
	if err != nil {
		return "", err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	n, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", err
	}
	log.Info("corpus saved", "path", dest, "bytes", n)
	return dest, nil
}

// cacheName keys a cached file by the full URL. The file name of the URL is
// kept as a suffix so the cache stays readable.
func cacheName(url string) (string, error) {
	base := path.Base(url)
	if base == "" || base == "." || base == "/" {
		return "", fmt.Errorf("corpus: cannot derive file name from %q", url)
	}
	key := uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()[:8]
	return key + "-" + base, nil
}

// Read loads a corpus file and checks that it decodes as UTF-8.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", path, ErrInvalidUTF8)
	}
	return string(data), nil
}
