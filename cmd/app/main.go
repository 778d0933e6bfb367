// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/identity/cmd/app/commands"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "app",
		Usage:   "Privacy-preserving identity and one-time token service",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP server, metrics server, and mail dispatcher",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "create-key",
				Usage: "Generate a new current key file for a purpose",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "purpose",
						Aliases: []string{"p"},
						Usage:   "Key purpose (e.g., email_index, email_seal, password_reset)",
					},
					&cli.StringFlag{
						Name:    "version",
						Aliases: []string{"v"},
						Usage:   "Key version identifier (autogenerated when omitted)",
					},
					&cli.BoolFlag{
						Name:    "all",
						Aliases: []string{"a"},
						Usage:   "Create keys for every purpose (initial setup)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.CreateKey(ctx, cmd.String("purpose"), cmd.String("version"), cmd.Bool("all"))
				},
			},
			{
				Name:  "rotate-key",
				Usage: "Retire the current key for a purpose and write a fresh one",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "purpose",
						Aliases: []string{"p"},
						Usage:   "Key purpose (e.g., email_index, email_seal, password_reset)",
					},
					&cli.StringFlag{
						Name:    "version",
						Aliases: []string{"v"},
						Usage:   "Key version identifier (autogenerated when omitted)",
					},
					&cli.BoolFlag{
						Name:    "all",
						Aliases: []string{"a"},
						Usage:   "Rotate keys for every purpose",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RotateKey(ctx, cmd.String("purpose"), cmd.String("version"), cmd.Bool("all"))
				},
			},
			{
				Name:  "clean-expired-tokens",
				Usage: "Delete verification tokens past their expiry",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.CleanExpiredTokens(ctx, cmd.String("format"))
				},
			},
			{
				Name:  "dispatch-mail",
				Usage: "Drain the pending mail queue once",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.DispatchMail(ctx)
				},
			},
			{
				Name:  "lookup-email",
				Usage: "Resolve an email address to its subject via the blind index",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Required: true,
						Usage:    "Email address to resolve",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.LookupEmail(ctx, cmd.String("email"), cmd.String("format"))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
