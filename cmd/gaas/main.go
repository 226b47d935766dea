package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/gaasapi/internal/app"
	"github.com/atvirokodosprendimai/gaasapi/internal/core/usecase"
)

func main() {
	cmd := &cli.Command{
		Name:  "gaas",
		Usage: "Graph as a Service admin API and schema validator",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Sources: cli.EnvVars("GAAS_DEBUG"),
				Usage:   "Human readable debug logging",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			validateCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Command) (*zap.Logger, error) {
	if c.Bool("debug") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":8080",
				Sources: cli.EnvVars("GAAS_ADDR"),
				Usage:   "HTTP listen address",
			},
			&cli.StringFlag{
				Name:    "db-path",
				Value:   "./gaas.sqlite",
				Sources: cli.EnvVars("GAAS_DB_PATH"),
				Usage:   "SQLite file path",
			},
			&cli.StringFlag{
				Name:    "bootstrap-api-key",
				Sources: cli.EnvVars("GAAS_BOOTSTRAP_API_KEY"),
				Usage:   "Optional API key to upsert at startup",
			},
			&cli.StringFlag{
				Name:    "bootstrap-tenant",
				Value:   "default",
				Sources: cli.EnvVars("GAAS_BOOTSTRAP_TENANT"),
				Usage:   "Tenant for bootstrap API key",
			},
			&cli.StringFlag{
				Name:    "bootstrap-key-name",
				Value:   "bootstrap",
				Sources: cli.EnvVars("GAAS_BOOTSTRAP_KEY_NAME"),
				Usage:   "Name for bootstrap API key",
			},
			&cli.StringFlag{
				Name:    "webhook-url",
				Sources: cli.EnvVars("GAAS_WEBHOOK_URL"),
				Usage:   "Deployer endpoint that receives graph lifecycle events",
			},
			&cli.StringFlag{
				Name:    "webhook-secret",
				Sources: cli.EnvVars("GAAS_WEBHOOK_SECRET"),
				Usage:   "HMAC-SHA256 signing secret for outbound webhook requests",
			},
			&cli.DurationFlag{
				Name:    "webhook-timeout",
				Value:   10 * time.Second,
				Sources: cli.EnvVars("GAAS_WEBHOOK_TIMEOUT"),
				Usage:   "Timeout for a single webhook delivery",
			},
			&cli.DurationFlag{
				Name:    "dispatch-interval",
				Value:   2 * time.Second,
				Sources: cli.EnvVars("GAAS_DISPATCH_INTERVAL"),
				Usage:   "How often the outbox is polled",
			},
			&cli.IntFlag{
				Name:    "dispatch-batch",
				Value:   100,
				Sources: cli.EnvVars("GAAS_DISPATCH_BATCH"),
				Usage:   "Outbox events delivered per poll",
			},
		},
		Action: serve,
	}
}

func serve(ctx context.Context, c *cli.Command) error {
	logger, err := newLogger(c)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := app.Config{
		Addr:             c.String("addr"),
		DBPath:           c.String("db-path"),
		BootstrapAPIKey:  c.String("bootstrap-api-key"),
		BootstrapTenant:  c.String("bootstrap-tenant"),
		BootstrapKeyName: c.String("bootstrap-key-name"),
		WebhookURL:       c.String("webhook-url"),
		WebhookSecret:    c.String("webhook-secret"),
		WebhookTimeout:   c.Duration("webhook-timeout"),
		DispatchInterval: c.Duration("dispatch-interval"),
		DispatchBatch:    c.Int("dispatch-batch"),
	}

	server, closer, err := app.NewServer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer func() {
		if closeErr := closer.Close(); closeErr != nil {
			logger.Error("close resources", zap.Error(closeErr))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case sig := <-sigCh:
		logger.Info("received signal", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate a schema file and print every message found",
		ArgsUsage: "FILE (use - for stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "kind",
				Value: string(usecase.SchemaKindElements),
				Usage: "Schema kind: elements, entities, edges or types",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return cli.Exit("validate takes exactly one FILE argument", 2)
			}
			text, err := readSchema(c.Args().First(), c.Root().Reader)
			if err != nil {
				return err
			}
			return validate(c.Root().Writer, usecase.SchemaKind(c.String("kind")), text)
		},
	}
}

func readSchema(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read schema file: %w", err)
	}
	return string(data), nil
}

// validate prints "ok" for a clean schema. Otherwise the joined message is
// printed and the returned error carries exit code 1.
func validate(out io.Writer, kind usecase.SchemaKind, text string) error {
	if out == nil {
		out = os.Stdout
	}
	svc, err := usecase.NewSchemaService()
	if err != nil {
		return err
	}
	n, err := svc.Validate(kind, text)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if n.IsEmpty() {
		_, _ = fmt.Fprintln(out, "ok")
		return nil
	}
	_, _ = fmt.Fprintln(out, n.ErrorMessage())
	return cli.Exit("", 1)
}
