package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/Obvman/obv-Omega-Mouse/internal/logging"
)

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "omega-mouse",
		Usage:   "Tri-mode eye and head tracking mouse controller",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "settings",
				Aliases: []string{"s"},
				Usage:   "Path to settings file (YAML); defaults apply when empty",
				Sources: cli.EnvVars("OMEGA_SETTINGS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("OMEGA_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("OMEGA_LOG_FORMAT"),
			},
		},
		Commands: []*cli.Command{
			newRunCommand(),
			newCheckCommand(),
			{
				Name:  "version",
				Usage: "Show version",
				Action: func(_ context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprintf(cmd.Root().Writer, "omega-mouse v%s\n", version)
					return err
				},
			},
		},
	}
}

func newLogger(cmd *cli.Command) (*slog.Logger, error) {
	logger, err := logging.New(logging.Options{
		Level:  cmd.String("log-level"),
		Format: cmd.String("log-format"),
		Output: os.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(logger)
	return logger, nil
}
