package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/darkroom/internal/config"
	"github.com/jackzampolin/darkroom/internal/home"
	"github.com/jackzampolin/darkroom/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the darkroom server",
	Long: `Start the darkroom HTTP server.

The server owns the shoot store under the darkroom home directory and
exposes the shoot, frame, snapshot, generation, and export API. Config
changes (providers, defaults) are hot-reloaded while it runs.

Examples:
  darkroom serve                    # Start on default port 8585
  darkroom serve --port 3000        # Start on custom port
  darkroom serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Use the home config file when no explicit --config is given
		configPath := cfgFile
		if configPath == "" && h.ConfigExists() {
			configPath = h.ConfigPath()
		}
		cfgMgr, err := config.NewManager(configPath)
		if err != nil {
			return err
		}
		cfgMgr.WatchConfig()

		serverCfg := cfgMgr.Get().Server
		host := serveHost
		if !cmd.Flags().Changed("host") && serverCfg.Host != "" {
			host = serverCfg.Host
		}
		port := servePort
		if !cmd.Flags().Changed("port") && serverCfg.Port != "" {
			port = serverCfg.Port
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			Home:          h,
			ConfigManager: cfgMgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8585", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
