// Package cli implements the relay command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/adamwoolhether/relay/client"
	"github.com/adamwoolhether/relay/client/middleware"
	"github.com/adamwoolhether/relay/internal/config"
	"github.com/spf13/cobra"
)

// globals are the persistent flags shared by every subcommand.
type globals struct {
	baseURL   string
	timeout   time.Duration
	adapter   string
	userAgent string
	verbose   bool
}

// NewRootCmd builds the command tree with defaults taken from cfg.
func NewRootCmd(cfg *config.Config) *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:           "relay",
		Short:         "Send HTTP requests from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.baseURL, "base-url", cfg.BaseURL, "Prefix for relative request URLs (RELAY_BASE_URL)")
	flags.DurationVar(&g.timeout, "timeout", cfg.Timeout, "Request timeout, 0 for none (RELAY_TIMEOUT)")
	flags.StringVar(&g.adapter, "adapter", cfg.Adapter, "Transport adapter: fetch or http (RELAY_ADAPTER)")
	flags.StringVar(&g.userAgent, "user-agent", cfg.UserAgent, "User-Agent header (RELAY_USER_AGENT)")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "Log every request to stderr")

	rootCmd.AddCommand(newRequestCmd(cfg, g))
	rootCmd.AddCommand(newGetCmd(cfg, g))
	rootCmd.AddCommand(newDownloadCmd(cfg, g))

	return rootCmd
}

// Execute runs the CLI.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd(config.Load()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// newClient builds a client from the configuration and the global flags.
func newClient(cmd *cobra.Command, cfg *config.Config, g *globals) (*client.Client, error) {
	level := cfg.LogLevel
	if g.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	opts := []client.Option{
		client.WithLogger(log),
		client.WithMiddleware(
			middleware.Panics(),
			middleware.RequestID(),
			middleware.Logger(log),
			middleware.Errors(log),
		),
	}

	if g.baseURL != "" {
		opts = append(opts, client.WithBaseURL(g.baseURL))
	}
	if g.timeout > 0 {
		opts = append(opts, client.WithTimeout(g.timeout))
	}
	if g.userAgent != "" {
		opts = append(opts, client.WithUserAgent(g.userAgent))
	}
	if g.adapter != "" {
		opts = append(opts, client.WithAdapter(client.Named(g.adapter)))
	}
	if cfg.MaxRedirects < 0 {
		opts = append(opts, client.WithNoFollowRedirects())
	} else if cfg.MaxRedirects > 0 {
		opts = append(opts, client.WithDefaults(&client.Config{MaxRedirects: cfg.MaxRedirects}))
	}
	if cfg.RateLimitRPS > 0 {
		if cfg.RateLimitPerHost {
			opts = append(opts, client.WithHostThrottle(cfg.RateLimitRPS, cfg.RateLimitBurst))
		} else {
			opts = append(opts, client.WithThrottle(cfg.RateLimitRPS, cfg.RateLimitBurst))
		}
	}

	c, err := client.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("building client: %w", err)
	}

	return c, nil
}
