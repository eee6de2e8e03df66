package mediahttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Downloader fetches stored media to scratch files for local processing.
type Downloader struct {
	httpClient *http.Client
	scratchDir string
}

func NewDownloader(scratchDir string, timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	return &Downloader{
		httpClient: &http.Client{Timeout: timeout},
		scratchDir: scratchDir,
	}
}

// Download writes the media at url to a scratch file and returns its path.
// The caller owns the file and removes it when done.
func (d *Downloader) Download(ctx context.Context, url string) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	response, err := d.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: status %d", url, response.StatusCode)
	}

	file, err := os.CreateTemp(d.scratchDir, "media-*.bin")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(file, response.Body); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", fmt.Errorf("write %s: %w", file.Name(), err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", err
	}
	return file.Name(), nil
}
