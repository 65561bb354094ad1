package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/CsabaConsulting/STTSFunctions/config"
	"github.com/CsabaConsulting/STTSFunctions/internal/telemetry"
	"github.com/CsabaConsulting/STTSFunctions/internal/tlsutil"
)

// CLI 单个入口的命令行：serve、version、health
type CLI struct {
	Name     string
	Endpoint Endpoint
	Build    BuildInfo
	Stdout   io.Writer
	Stderr   io.Writer
}

// Main 解析子命令并返回进程退出码
func (c *CLI) Main(args []string) int {
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	if len(args) < 1 {
		c.printUsage(c.Stderr)
		return 1
	}

	switch args[0] {
	case "serve":
		return c.runServe(args[1:])
	case "version":
		c.printVersion()
		return 0
	case "health":
		return c.runHealthCheck(args[1:])
	case "call":
		return c.runCall(args[1:])
	case "help", "-h", "--help":
		c.printUsage(c.Stdout)
		return 0
	default:
		fmt.Fprintf(c.Stderr, "Unknown command: %s\n", args[0])
		c.printUsage(c.Stderr)
		return 1
	}
}

// LoadConfig 加载 .env 与配置文件。envFile 不存在时忽略。
func LoadConfig(configPath, envFile string) (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	loader := config.NewLoader()
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *CLI) runServe(args []string) int {
	flags := flag.NewFlagSet("serve", flag.ContinueOnError)
	flags.SetOutput(c.Stderr)
	configPath := flags.String("config", "", "Path to config file")
	envFile := flags.String("env-file", ".env", "Path to .env file")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := LoadConfig(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(c.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(c.Stderr, "Failed to init logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting "+c.Name,
		zap.String("version", c.Build.Version),
		zap.String("build_time", c.Build.BuildTime),
		zap.String("git_commit", c.Build.GitCommit),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Init(ctx, cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	a, err := New(cfg, c.Endpoint, c.Build, logger, WithTelemetry(providers))
	if err != nil {
		logger.Error("failed to build app", zap.Error(err))
		return 1
	}

	runErr := a.Run(ctx)

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.Close(closeCtx); err != nil {
		logger.Warn("cleanup failed", zap.Error(err))
	}

	if runErr != nil {
		logger.Error("server exited", zap.Error(runErr))
		return 1
	}
	logger.Info(c.Name + " stopped")
	return 0
}

func (c *CLI) runHealthCheck(args []string) int {
	flags := flag.NewFlagSet("health", flag.ContinueOnError)
	flags.SetOutput(c.Stderr)
	addr := flags.String("addr", "http://localhost:8080", "Server address")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	client := tlsutil.ProbeClient(5*time.Second, nil)
	resp, err := client.Get(*addr + "/health")
	if err != nil {
		fmt.Fprintf(c.Stderr, "Health check failed: %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(c.Stderr, "Health check failed: status %d\n", resp.StatusCode)
		return 1
	}

	fmt.Fprintln(c.Stdout, "OK")
	return 0
}

func (c *CLI) printVersion() {
	fmt.Fprintf(c.Stdout, "%s %s\n", c.Name, c.Build.Version)
	fmt.Fprintf(c.Stdout, "  Build Time: %s\n", c.Build.BuildTime)
	fmt.Fprintf(c.Stdout, "  Git Commit: %s\n", c.Build.GitCommit)
}

func (c *CLI) printUsage(w io.Writer) {
	fmt.Fprintf(w, `%[1]s - %[2]s entry point

Usage:
  %[1]s <command> [options]

Commands:
  serve     Start the HTTP server
  version   Show version information
  health    Check server health
  call      Call a running server as a client
  help      Show this help message

Options for 'serve':
  --config <path>     Path to configuration file (YAML)
  --env-file <path>   Path to .env file (default .env)

Options for 'call':
  --addr, --token, --timeout
  --in <file> [--project-id] [--region]          (transcribe)
  --text <text> [--language-code] [--out <file>] (synthesize)

Examples:
  %[1]s serve
  %[1]s serve --config /etc/stts/config.yaml
  %[1]s health --addr http://localhost:8080
  %[1]s call --token $TOKEN --in hello.wav
  %[1]s version
`, c.Name, c.Endpoint)
}
