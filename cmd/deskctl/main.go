package main

import (
	"context"
	"fmt"
	"os"

	"transportdesk/cmd/deskctl/commands"
	"transportdesk/internal/client"
	"transportdesk/internal/config"
	"transportdesk/internal/domain/models"
	"transportdesk/internal/utils"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		server      string
		sessionFile string
	)
	app := &commands.AppContext{}

	rootCmd := &cobra.Command{
		Use:           "deskctl",
		Short:         "deskctl - submit and dispatch transport requests",
		Long:          `A terminal client for the transport desk: submit requests, review them as dispatcher and follow the list live.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadCLIConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if server != "" {
				cfg.Server = server
			}
			if sessionFile != "" {
				cfg.SessionFile = sessionFile
			}
			if err := config.ValidateCLIConfig(cfg); err != nil {
				return err
			}

			logger, err := utils.NewLogger(cfg.LogFormat)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			app.Cfg = cfg
			app.Logger = logger
			app.Ctx = cmd.Context()
			if app.Ctx == nil {
				app.Ctx = context.Background()
			}
			app.Client = client.New(cfg.Server, client.FileSessionStore{Path: cfg.SessionFile}, logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./deskctl.yaml or ~/deskctl.yaml)")
	rootCmd.PersistentFlags().StringVar(&server, "server", "", "API base URL, overrides config")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "Session file, overrides config")

	rootCmd.AddCommand(commands.LoginCmd(app))
	rootCmd.AddCommand(commands.LogoutCmd(app))
	rootCmd.AddCommand(commands.SessionCmd(app))
	rootCmd.AddCommand(commands.SubmitCmd(app))
	rootCmd.AddCommand(commands.ListCmd(app))
	rootCmd.AddCommand(commands.ShowCmd(app))
	rootCmd.AddCommand(commands.DecideCmd(app, "approve", models.StatusApproved))
	rootCmd.AddCommand(commands.DecideCmd(app, "reject", models.StatusRejected))
	rootCmd.AddCommand(commands.SetStatusCmd(app))
	rootCmd.AddCommand(commands.DeleteCmd(app))
	rootCmd.AddCommand(commands.TripSheetCmd(app))
	rootCmd.AddCommand(commands.WatchCmd(app))

	return rootCmd
}
