package invoice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrAssetNotFound is returned when no loader has the requested asset.
var ErrAssetNotFound = errors.New("asset not found")

const maxAssetBytes = 2 << 20

// AssetLoader fetches static document assets such as the company logo.
// The layout engine does not know where the bytes come from.
type AssetLoader interface {
	Load(ctx context.Context, name string) ([]byte, error)
}

// FileLoader reads assets from a local directory.
type FileLoader struct {
	Dir string
}

func (l FileLoader) Load(_ context.Context, name string) ([]byte, error) {
	path := filepath.Join(l.Dir, filepath.Clean("/"+name))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, path)
		}
		return nil, err
	}
	return data, nil
}

// HTTPLoader downloads assets relative to BaseURL.
type HTTPLoader struct {
	BaseURL string
	Client  *http.Client
}

func (l HTTPLoader) Load(ctx context.Context, name string) ([]byte, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	url := strings.TrimRight(l.BaseURL, "/") + "/" + strings.TrimLeft(name, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, url)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
}

// MapLoader serves assets from memory.
type MapLoader map[string][]byte

func (l MapLoader) Load(_ context.Context, name string) ([]byte, error) {
	data, ok := l[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
	}
	return data, nil
}

// ChainLoader tries each loader in turn and returns the first hit.
type ChainLoader []AssetLoader

func (l ChainLoader) Load(ctx context.Context, name string) ([]byte, error) {
	var errs []error
	for _, loader := range l {
		data, err := loader.Load(ctx, name)
		if err == nil {
			return data, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
	}
	return nil, errors.Join(errs...)
}

// NewLogoLoader chains the configured logo sources, local directory first.
// It returns nil when neither is set.
func NewLogoLoader(dir, baseURL string) AssetLoader {
	var chain ChainLoader
	if dir != "" {
		chain = append(chain, FileLoader{Dir: dir})
	}
	if baseURL != "" {
		chain = append(chain, HTTPLoader{BaseURL: baseURL, Client: &http.Client{Timeout: 5 * time.Second}})
	}
	if len(chain) == 0 {
		return nil
	}
	return chain
}
