package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/cryptodevs/nftmint/internal"
	pkgconfig "github.com/cryptodevs/nftmint/pkg/config"
)

type runFunc func(ctx context.Context, opts ...internal.Option) error

func action(run runFunc, name string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		configPath := cmd.String("config")

		cfg := internal.NewDefaultConfig()
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithConfigPath(configPath),
		}

		if err := run(ctx, opts...); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "cryptodevs",
		Usage:  "Crypto Devs NFT mint dapp: presale, public mint, token metadata and deployment",
		Action: action(internal.Run, "app run error"),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the dapp page, metadata endpoint and mint API",
				Action: action(internal.Run, "app run error"),
			},
			{
				Name:   "deploy",
				Usage:  "Deploy the CryptoDevs contract and print its address",
				Action: action(internal.Deploy, "deploy"),
			},
			{
				Name:   "status",
				Usage:  "Read the contract once and print the current view",
				Action: action(internal.Status, "status"),
			},
			{
				Name:   "mcp",
				Usage:  "Serve the sale tools over MCP on stdio",
				Action: action(internal.ServeMCP, "mcp"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
