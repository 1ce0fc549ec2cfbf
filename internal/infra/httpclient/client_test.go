package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estateflow/server/internal/infra/config"
)

func TestNew(t *testing.T) {
	c := New(config.BackendConfig{
		Timeout:      5 * time.Second,
		MaxIdleConns: 3,
		IdleTimeout:  time.Minute,
	}, "estatectl/test")

	assert.Equal(t, 5*time.Second, c.Timeout)

	tt, ok := c.Transport.(*taggingTransport)
	require.True(t, ok)
	tr, ok := tt.base.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 3, tr.MaxIdleConns)
	assert.Equal(t, 3, tr.MaxIdleConnsPerHost)
	assert.Equal(t, time.Minute, tr.IdleConnTimeout)
}

func TestNew_TagsRequests(t *testing.T) {
	ids := make(chan string, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "estatectl/test", r.UserAgent())
		ids <- r.Header.Get(requestIDHeader)
	}))
	defer srv.Close()

	c := New(config.BackendConfig{}, "estatectl/test")
	for i := 0; i < 2; i++ {
		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		resp, err := c.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Empty(t, req.Header.Get(requestIDHeader))
	}

	first, second := <-ids, <-ids
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)

	t.Run("keeps caller request id", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		req.Header.Set(requestIDHeader, "fixed")
		resp, err := c.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "fixed", <-ids)
	})
}
