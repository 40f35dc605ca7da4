package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Obvman/obv-Omega-Mouse/internal/actions"
	"github.com/Obvman/obv-Omega-Mouse/internal/api"
	"github.com/Obvman/obv-Omega-Mouse/internal/eventlog"
	"github.com/Obvman/obv-Omega-Mouse/internal/host"
	"github.com/Obvman/obv-Omega-Mouse/internal/mode"
	"github.com/Obvman/obv-Omega-Mouse/internal/remote"
	"github.com/Obvman/obv-Omega-Mouse/internal/settings"
)

func newRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Start the controller and turn Omega Mouse on",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-addr",
				Usage:   "Control API address (disabled if empty)",
				Value:   "127.0.0.1:9470",
				Sources: cli.EnvVars("OMEGA_API_ADDR"),
			},
			&cli.StringFlag{
				Name:    "api-token",
				Usage:   "Bearer token for the control API",
				Sources: cli.EnvVars("OMEGA_API_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ssh-addr",
				Usage:   "Remote action shell address (disabled if empty)",
				Sources: cli.EnvVars("OMEGA_SSH_ADDR"),
			},
			&cli.StringFlag{
				Name:    "authorized-keys",
				Usage:   "authorized_keys file for the remote action shell",
				Sources: cli.EnvVars("OMEGA_AUTHORIZED_KEYS"),
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Directory for persistent state (host key)",
				Value:   "/var/lib/omega-mouse",
				Sources: cli.EnvVars("OMEGA_DATA_DIR"),
			},
			&cli.IntFlag{
				Name:  "event-limit",
				Usage: "Number of transitions kept for /events",
				Value: eventlog.DefaultLimit,
			},
		},
		Action: runOmegaMouse,
	}
}

// app is the wired controller stack shared by the HTTP and SSH surfaces.
type app struct {
	settings   *settings.Store
	sim        *host.Sim
	controller *mode.Controller
	registry   *actions.Registry
	events     *eventlog.Store
}

func newApp(settingsPath string, eventLimit int, logger *slog.Logger) (*app, error) {
	store, err := settings.NewStore(settingsPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	store.OnReload(func(s settings.Settings) {
		logger.Info("settings reloaded", "omega_mouse_mode", s.OmegaMouseMode, "path", store.Path())
	})

	sim := host.NewSim(logger)
	controller, err := mode.NewController(mode.Config{
		Tracker:  sim,
		Mouse:    sim,
		Keyboard: sim,
		Tags:     sim,
		Settings: store,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init controller: %w", err)
	}

	registry := actions.NewRegistry(sim, actions.WithLogger(logger))
	if err := registry.Register(mode.ActionControlSwitch, "Switches to Control Mouse", sim.SwitchControlMouse); err != nil {
		return nil, err
	}
	if err := registry.Register(mode.ActionZoomSwitch, "Switches to Zoom Mouse", sim.SwitchZoomMouse); err != nil {
		return nil, err
	}
	if err := mode.Bind(registry, controller); err != nil {
		return nil, fmt.Errorf("bind actions: %w", err)
	}

	events := eventlog.NewStore(eventLimit, logger)
	controller.OnTransition(eventlog.NewRecorder(events).Record)

	return &app{
		settings:   store,
		sim:        sim,
		controller: controller,
		registry:   registry,
		events:     events,
	}, nil
}

func runOmegaMouse(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.String("settings"), int(cmd.Int("event-limit")), logger)
	if err != nil {
		return err
	}

	if addr := cmd.String("ssh-addr"); addr != "" {
		dataDir := cmd.String("data-dir")
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return fmt.Errorf("create data directory %s: %w", dataDir, err)
		}
		remoteServer, err := remote.NewServer(remote.Config{
			Addr:               addr,
			HostKeyPath:        filepath.Join(dataDir, "omega_host_key"),
			AuthorizedKeysPath: cmd.String("authorized-keys"),
			Invoker:            a.registry,
			Logger:             logger,
		})
		if err != nil {
			return fmt.Errorf("init remote shell: %w", err)
		}
		if err := remoteServer.Start(); err != nil {
			return fmt.Errorf("start remote shell: %w", err)
		}
		defer remoteServer.Close()
	}

	if addr := cmd.String("api-addr"); addr != "" {
		token := cmd.String("api-token")
		if token == "" {
			return errors.New("api-token is required when the control API is enabled")
		}
		apiServer := api.NewServer(api.ServerConfig{
			Addr:    addr,
			Token:   token,
			Version: version,
			Logger:  logger,
		}, api.Deps{
			Actions:  a.registry,
			State:    a.controller,
			Events:   a.events,
			Settings: a.settings,
		})
		go func() {
			if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("control API stopped", "error", err)
			}
		}()
		defer shutdownAPI(apiServer, logger)
	}

	if err := a.registry.Ready(ctx); err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	snap := a.controller.Snapshot()
	logger.Info("omega mouse ready", "enabled", snap.Enabled, "mode", snap.ModeName, "tags", snap.Tags)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-hup:
			if err := a.settings.Reload(); err != nil {
				logger.Warn("settings reload failed", "path", a.settings.Path(), "error", err)
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		}
	}
}

func shutdownAPI(s *api.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Warn("control API shutdown", "error", err)
	}
}
