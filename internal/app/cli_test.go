package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCLI() (*CLI, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &CLI{
		Name:     "chirpfunction",
		Endpoint: EndpointTranscribe,
		Build:    BuildInfo{Version: "0.3.0", BuildTime: "today", GitCommit: "deadbeef"},
		Stdout:   &stdout,
		Stderr:   &stderr,
	}, &stdout, &stderr
}

func TestCLI_NoArgs(t *testing.T) {
	c, _, stderr := newTestCLI()
	assert.Equal(t, 1, c.Main(nil))
	assert.Contains(t, stderr.String(), "Usage:")
}

func TestCLI_UnknownCommand(t *testing.T) {
	c, _, stderr := newTestCLI()
	assert.Equal(t, 1, c.Main([]string{"dance"}))
	assert.Contains(t, stderr.String(), "Unknown command: dance")
}

func TestCLI_Help(t *testing.T) {
	c, stdout, _ := newTestCLI()
	assert.Equal(t, 0, c.Main([]string{"help"}))
	assert.Contains(t, stdout.String(), "chirpfunction serve --config")
	assert.Contains(t, stdout.String(), "transcribe entry point")
}

func TestCLI_Version(t *testing.T) {
	c, stdout, _ := newTestCLI()
	assert.Equal(t, 0, c.Main([]string{"version"}))
	assert.Contains(t, stdout.String(), "chirpfunction 0.3.0")
	assert.Contains(t, stdout.String(), "Git Commit: deadbeef")
}

func TestCLI_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, stdout, _ := newTestCLI()
	assert.Equal(t, 0, c.Main([]string{"health", "--addr", srv.URL}))
	assert.Equal(t, "OK\n", stdout.String())
}

func TestCLI_HealthUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _, stderr := newTestCLI()
	assert.Equal(t, 1, c.Main([]string{"health", "--addr", srv.URL}))
	assert.Contains(t, stderr.String(), "status 503")
}

func TestCLI_ServeInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transcribe:\n  failure_policy: noisy\n"), 0o600))

	c, _, stderr := newTestCLI()
	assert.Equal(t, 1, c.Main([]string{"serve", "--config", path, "--env-file", ""}))
	assert.Contains(t, stderr.String(), "Failed to load config")
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("STTS_AUTH_TOKEN=from-dotenv\n"), 0o600))
	// godotenv 不覆盖已有变量；t.Setenv 负责在测试结束后恢复
	t.Setenv("STTS_AUTH_TOKEN", "")
	require.NoError(t, os.Unsetenv("STTS_AUTH_TOKEN"))

	cfg, err := LoadConfig("", envPath)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Auth.Token)
}

func TestLoadConfig_MissingEnvFileIgnored(t *testing.T) {
	_, err := LoadConfig("", filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
