package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/matome/internal"
	pkgconfig "github.com/starford/matome/pkg/config"
)

// loadConfig reads the config file (when present) and applies flag overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfPresent(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if v := cmd.String("vault"); v != "" {
		cfg.Vault.Path = v
	}
	if v := cmd.String("input"); v != "" {
		cfg.Vault.InputDir = v
	}
	if v := cmd.String("output"); v != "" {
		cfg.Vault.OutputDir = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runOnce(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunOnce(ctx, internal.WithConfig(cfg))
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Serve(ctx, internal.WithConfig(cfg))
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg))
}

func main() {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to config file",
			DefaultText: "config/config.yaml",
			Value:       "config/config.yaml",
			Sources:     cli.EnvVars("MATOME_CONFIG_FILE"),
		},
		&cli.StringFlag{
			Name:    "vault",
			Usage:   "Path to the vault directory (overrides config)",
			Sources: cli.EnvVars("MATOME_VAULT"),
		},
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "Input directory name within the vault (overrides config)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output directory name within the vault (overrides config)",
		},
	}

	cmd := &cli.Command{
		Name:   "matome",
		Usage:  "Aggregate daily journal notes into per-topic Markdown files",
		Action: runOnce,
		Flags:  flags,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Process all pending daily notes once and exit",
				Action: runOnce,
				Flags:  flags,
			},
			{
				Name:   "serve",
				Usage:  "Run the status server and watch the input directory",
				Action: serve,
				Flags:  flags,
			},
			{
				Name:   "mcp",
				Usage:  "Expose the aggregator over MCP stdio transport",
				Action: serveMCP,
				Flags:  flags,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
