package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"k8s.io/klog/v2"
)

// DefaultFetchTimeout bounds a single remote fetch.
const DefaultFetchTimeout = 30 * time.Second

// Source is a dataset location: a local path or an http(s) URL.
type Source struct {
	Location string
	Client   *resty.Client
}

// NewHTTPClient returns the resty client used for remote sources.
func NewHTTPClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return resty.New().
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
}

// IsRemote reports whether the location is an http(s) URL.
func (s Source) IsRemote() bool {
	loc := strings.ToLower(strings.TrimSpace(s.Location))
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

// Open returns the full payload of the source.
func (s Source) Open(ctx context.Context) ([]byte, error) {
	loc := strings.TrimSpace(s.Location)
	if loc == "" {
		return nil, fmt.Errorf("no source location: %w", ErrInvalidSource)
	}
	if s.IsRemote() {
		return s.fetch(ctx, loc)
	}

	data, err := os.ReadFile(loc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", loc, err)
	}
	return data, nil
}

func (s Source) fetch(ctx context.Context, url string) ([]byte, error) {
	log := klog.FromContext(ctx)

	client := s.Client
	if client == nil {
		client = NewHTTPClient(DefaultFetchTimeout)
	}

	log.V(1).Info("fetching source", "url", url)
	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching %s: %s: %w", url, resp.Status(), ErrInvalidSource)
	}
	return resp.Body(), nil
}
