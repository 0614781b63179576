package main

import (
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// parseDuration parses a flag value like "50ms" or "2s".
func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, eris.Wrapf(err, "parse duration %q", s)
	}
	if d < 0 {
		return 0, eris.Errorf("negative duration %q", s)
	}
	return d, nil
}

// newHTTPClient builds the outbound HTTP client shared by all workers.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
