package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPort(t *testing.T) {
	assert.Equal(t, 6000, detectPort(""))
	assert.Equal(t, 6000, detectPort("abc"))
	assert.Equal(t, 6000, detectPort("70000"))
	assert.Equal(t, 8080, detectPort("8080"))
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode int
	}{
		{"healthy", 200, `{"status":"ok"}`, 0},
		{"empty body", 200, ``, 0},
		{"bad status", 500, `{"status":"down"}`, codeBadHTTPStatus},
		{"garbage", 200, `{`, codeDecodeError},
		{"unhealthy", 200, `{"status":"degraded"}`, codeReportedUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := probe(context.Background(), srv.Client(), srv.URL+healthEndpoint)
			if tt.wantCode == 0 {
				assert.NoError(t, err)
				return
			}

			var pe *probeError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.wantCode, pe.code)
		})
	}
}

func TestProbeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := probe(context.Background(), http.DefaultClient, url)
	var pe *probeError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, codeRequestFailed, pe.code)
}
