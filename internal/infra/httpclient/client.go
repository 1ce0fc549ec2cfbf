package httpclient

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/estateflow/server/internal/infra/config"
)

const requestIDHeader = "X-Request-ID"

// New returns the client estatectl uses to reach the backend. Each request
// carries userAgent and its own X-Request-ID so backend access logs can be
// matched to a CLI run.
func New(cfg config.BackendConfig, userAgent string) *http.Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.MaxIdleConns > 0 {
		// Polling talks to one host.
		base.MaxIdleConns = cfg.MaxIdleConns
		base.MaxIdleConnsPerHost = cfg.MaxIdleConns
	}
	if cfg.IdleTimeout > 0 {
		base.IdleConnTimeout = cfg.IdleTimeout
	}

	return &http.Client{
		Transport: &taggingTransport{base: base, userAgent: userAgent},
		Timeout:   cfg.Timeout,
	}
}

type taggingTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *taggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	if t.userAgent != "" && r.Header.Get("User-Agent") == "" {
		r.Header.Set("User-Agent", t.userAgent)
	}
	if r.Header.Get(requestIDHeader) == "" {
		r.Header.Set(requestIDHeader, uuid.NewString())
	}
	return t.base.RoundTrip(r)
}
