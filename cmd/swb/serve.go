package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/zulandar/switchboard/internal/archive"
	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/db"
	"github.com/zulandar/switchboard/internal/front"
	"github.com/zulandar/switchboard/internal/observability"
	"github.com/zulandar/switchboard/internal/operator"
	discordadapter "github.com/zulandar/switchboard/internal/operator/discord"
	slackadapter "github.com/zulandar/switchboard/internal/operator/slack"
	"github.com/zulandar/switchboard/internal/router"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the switchboard daemon",
		Long:  "Connects to the configured operator platform, serves the front channel, and routes session events between the two.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "switchboard.yaml", "path to switchboard config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	adapter, err := createAdapter(cfg)
	if err != nil {
		return err
	}

	var recorder *archive.Recorder
	if cfg.Archive.Enabled {
		gdb, err := openArchive(cfg)
		if err != nil {
			return err
		}
		if err := db.Migrate(gdb); err != nil {
			return err
		}
		recorder, err = archive.NewRecorder(gdb)
		if err != nil {
			return err
		}
	}

	daemon, err := router.NewDaemon(router.DaemonOpts{
		Config:   cfg,
		Adapter:  adapter,
		Hub:      front.NewHub(),
		Recorder: recorder,
		Metrics:  observability.NewMetrics("switchboard"),
		Out:      cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return daemon.Run(ctx)
}

// createAdapter builds a platform adapter from the config.
func createAdapter(cfg *config.Config) (operator.Adapter, error) {
	switch cfg.Operator.Platform {
	case "discord":
		return discordadapter.New(discordadapter.AdapterOpts{
			BotToken:  cfg.Operator.Discord.BotToken,
			ChannelID: cfg.Operator.Channel,
		})
	case "slack":
		return slackadapter.New(slackadapter.AdapterOpts{
			AppToken:  cfg.Operator.Slack.AppToken,
			BotToken:  cfg.Operator.Slack.BotToken,
			ChannelID: cfg.Operator.Channel,
		})
	default:
		return nil, fmt.Errorf("operator: unsupported platform %q", cfg.Operator.Platform)
	}
}

// openArchive connects to the configured archive database.
func openArchive(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.Archive.Driver {
	case "sqlite":
		return db.ConnectSQLite(cfg.Archive.Path)
	case "mysql":
		m := cfg.Archive.MySQL
		return db.ConnectMySQL(m.User, m.Host, m.Port, m.Database)
	default:
		return nil, fmt.Errorf("archive: unsupported driver %q", cfg.Archive.Driver)
	}
}
