package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/callerid/internal"
	pkgconfig "github.com/starford/callerid/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func addContact(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.AddContact(ctx, cmd.String("name"), cmd.String("phone"), cmd.String("notes"),
		internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func listContacts(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ListContacts(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func main() {
	cmd := &cli.Command{
		Name:   "callerid",
		Usage:  "Caller-ID notifier: shows the saved contact name for incoming SMS and calls",
		Action: serve,
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
				Usage:  "Run the event ingest, notification and contacts API server",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Expose the contact book as MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:  "contacts",
				Usage: "Manage saved contacts",
				Commands: []*cli.Command{
					{
						Name:   "add",
						Usage:  "Add a contact",
						Action: addContact,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name", Required: true},
							&cli.StringFlag{Name: "phone", Aliases: []string{"p"}, Usage: "Phone number in any format", Required: true},
							&cli.StringFlag{Name: "notes", Usage: "Free-form notes"},
						},
					},
					{
						Name:   "list",
						Usage:  "List contacts",
						Action: listContacts,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
