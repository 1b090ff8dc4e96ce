//go:build e2e

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	signUpEndpoint     = "/api/signup"
	loginEndpoint      = "/api/login"
	logoutEndpoint     = "/api/logout"
	createPostEndpoint = "/api/create-blog"
	postEndpoint       = "/api/blog/"

	containerStartup = 60 * time.Second
)

// TestEnvironment is a running server backed by throwaway containers
type TestEnvironment struct {
	BaseURL string
	Client  *http.Client
}

// startContainer runs req and returns host:port for exposed. The container
// is terminated when the test ends.
func startContainer(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest, exposed string) string {
	t.Helper()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start %s", req.Image)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, nat.Port(exposed))
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func startMongo(ctx context.Context, t *testing.T) string {
	addr := startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        "mongo:8.0",
		ExposedPorts: []string{"27017/tcp"},
		Env: map[string]string{
			"MONGO_INITDB_ROOT_USERNAME": "root",
			"MONGO_INITDB_ROOT_PASSWORD": "example",
		},
		WaitingFor: wait.ForExec([]string{"mongosh", "--eval", "db.adminCommand('ping')"}).
			WithStartupTimeout(containerStartup),
	}, "27017")
	return "mongodb://root:example@" + addr + "/"
}

func startRedis(ctx context.Context, t *testing.T) string {
	return startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(containerStartup),
	}, "6379")
}

// startServer launches BIN_SERVER, or `go run ./cmd/server` when unset, in
// its own process group and returns the base URL. Server output goes to a
// log file that is dumped if the server never becomes healthy.
func startServer(t *testing.T, env map[string]string) string {
	t.Helper()

	port, err := randomPort()
	require.NoError(t, err)

	logPath := filepath.Join(t.TempDir(), "server.log")
	logFile, err := os.Create(logPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = logFile.Close() })

	var cmd *exec.Cmd
	if bin := os.Getenv("BIN_SERVER"); bin != "" {
		cmd = exec.Command(bin)
	} else {
		cmd = exec.Command("go", "run", "./cmd/server")
		cmd.Dir = "../"
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = append(os.Environ(), "APP_PORT="+port, "BCRYPT_COST=4", "LOG_LEVEL=warn")
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	require.NoError(t, cmd.Start())
	t.Cleanup(func() { stopServer(cmd) })

	baseURL := "http://localhost:" + port
	if err := waitHealthy(baseURL, 30*time.Second); err != nil {
		out, _ := os.ReadFile(logPath)
		t.Fatalf("%v\nserver output:\n%s", err, out)
	}
	return baseURL
}

// stopServer kills the whole process group so `go run` children die too
func stopServer(cmd *exec.Cmd) {
	if pgid, err := syscall.Getpgid(cmd.Process.Pid); err == nil {
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
	}

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = cmd.Process.Kill()
	}
}

func waitHealthy(baseURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("server at %s never became healthy", baseURL)
}

// httpJSON performs an HTTP request with JSON payload and returns the response.
// A nil client gets a fresh cookie-less one.
func httpJSON(c *http.Client, method, url string, payload any) (*http.Response, error) {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest(method, url, &body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	if c == nil {
		c = &http.Client{Timeout: 5 * time.Second}
	}
	return c.Do(req)
}

// SetupTestEnvironment starts Mongo and the server with the in-memory session store
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	return SetupTestEnvironmentWithEnv(t, nil)
}

// SetupTestEnvironmentWithRedis also starts Redis and points the session store at it
func SetupTestEnvironmentWithRedis(t *testing.T) *TestEnvironment {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	return SetupTestEnvironmentWithEnv(t, map[string]string{
		"SESSION_STORE": "redis",
		"REDIS_ADDR":    startRedis(ctx, t),
	})
}

// SetupTestEnvironmentWithEnv starts Mongo and the server with extra env vars
func SetupTestEnvironmentWithEnv(t *testing.T, extraEnv map[string]string) *TestEnvironment {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	env := map[string]string{
		"MONGO_URI":     startMongo(ctx, t),
		"MONGO_DB_NAME": "e2e",
	}
	for k, v := range extraEnv {
		env[k] = v
	}

	return &TestEnvironment{
		BaseURL: startServer(t, env),
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func signUp(t *testing.T, c *http.Client, baseURL, email, password, name string) map[string]any {
	t.Helper()
	return ExecuteHTTPJSONStep(t, c, HTTPJSONStep{
		Name:   "sign up " + email,
		Method: http.MethodPost,
		URL:    signUpEndpoint,
		Body: map[string]any{
			"email":    email,
			"password": password,
			"age":      30,
			"name":     name,
		},
		ExpectedStatus: http.StatusOK,
		Validator:      MessageValidator("New user created"),
	}, baseURL)
}

func login(t *testing.T, c *http.Client, baseURL, email, password string) map[string]any {
	t.Helper()
	return ExecuteHTTPJSONStep(t, c, HTTPJSONStep{
		Name:           "login " + email,
		Method:         http.MethodPost,
		URL:            loginEndpoint,
		Body:           map[string]string{"email": email, "password": password},
		ExpectedStatus: http.StatusOK,
		Validator:      FieldsValidator("success", "user"),
	}, baseURL)
}
