// cmd/ping/main.go
//
// Intended for Docker HEALTHCHECK:
//   HEALTHCHECK CMD ["/ping"]

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"
)

const (
	defaultPort          = 6000
	healthEndpoint       = "/healthz"
	expectedHealthStatus = "ok"
	requestTimeout       = 1 * time.Second

	// exit codes
	codeRequestFailed     = 2
	codeBadHTTPStatus     = 3
	codeDecodeError       = 4
	codeReportedUnhealthy = 5
)

// probeError carries the exit code matching the failed check
type probeError struct {
	code int
	msg  string
}

func (e *probeError) Error() string { return e.msg }

// healthResp mirrors the optional JSON body { "status": "ok" }.
type healthResp struct {
	Status string `json:"status"`
}

func main() {
	port := detectPort(os.Getenv("APP_PORT"))
	url := fmt.Sprintf("http://localhost:%d%s", port, healthEndpoint)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := probe(ctx, http.DefaultClient, url); err != nil {
		log.Print(err)
		var pe *probeError
		if errors.As(err, &pe) {
			os.Exit(pe.code)
		}
		os.Exit(1)
	}

	log.Printf("service healthy on port %d", port)
}

// probe calls the health endpoint and checks the reported status
func probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &probeError{codeRequestFailed, fmt.Sprintf("request failed: %v", err)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return &probeError{codeRequestFailed, fmt.Sprintf("request failed: %v", err)}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return &probeError{codeBadHTTPStatus, fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode)}
	}

	var h healthResp
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil && !errors.Is(err, io.EOF) {
		return &probeError{codeDecodeError, fmt.Sprintf("decode error: %v", err)}
	}
	if h.Status != "" && h.Status != expectedHealthStatus {
		return &probeError{codeReportedUnhealthy, fmt.Sprintf("service reported unhealthy: %q", h.Status)}
	}
	return nil
}

// detectPort parses APP_PORT and falls back to defaultPort.
func detectPort(v string) int {
	if p, err := strconv.Atoi(v); err == nil && p > 0 && p <= 65535 {
		return p
	}
	return defaultPort
}
