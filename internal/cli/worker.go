package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ezpool/ezpool/internal/config"
	"github.com/ezpool/ezpool/internal/observability"
	"github.com/ezpool/ezpool/internal/rpc"
	"github.com/ezpool/ezpool/worker"
)

var (
	workerConfigPath string
	workerURI        string
	workerName       string
	workerHost       string
	workerPort       int
	workerLogLevel   string
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Manage worker daemons",
	Long:  `Worker daemons host registered worker types and execute tasks dispatched by distributed pools.`,
}

var workerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a worker daemon",
	Example: `  # Serve the built-in workers at the well-known local endpoint
  ezpool worker start

  # Serve at an explicit endpoint
  ezpool worker start --uri grpc:fib@localhost:21001

  # Load settings from a config file
  ezpool worker start --config worker.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(workerConfigPath)
		if err != nil {
			return err
		}
		if err := applyWorkerFlags(cmd, cfg); err != nil {
			return err
		}

		logger, err := observability.SetupLogger(cfg.Log)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		reg := worker.NewRegistry()
		if err := worker.RegisterBuiltins(reg); err != nil {
			return err
		}

		logger.Info("starting worker daemon", zap.String("uri", cfg.URI()))

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := worker.NewServer(cfg.ListenAddr(), reg, worker.WithServerLogger(logger))
		return srv.Serve(ctx)
	},
}

// applyWorkerFlags layers explicit flags over the loaded config. A --uri
// shorthand overrides name, host and port at once.
func applyWorkerFlags(cmd *cobra.Command, cfg *config.Config) error {
	if workerURI != "" {
		u, err := rpc.ParseURI(workerURI)
		if err != nil {
			return err
		}
		cfg.Name, cfg.Host, cfg.Port = u.Name, u.Host, u.Port
	}
	if cmd.Flags().Changed("name") {
		cfg.Name = workerName
	}
	if cmd.Flags().Changed("host") {
		cfg.Host = workerHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = workerPort
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = workerLogLevel
	}
	return cfg.Validate()
}

func init() {
	workerStartCmd.Flags().StringVar(&workerConfigPath, "config", "", "path to YAML config file")
	workerStartCmd.Flags().StringVarP(&workerURI, "uri", "u", "", "endpoint URI shorthand (grpc:name@host:port)")
	workerStartCmd.Flags().StringVarP(&workerName, "name", "n", "worker", "worker object name")
	workerStartCmd.Flags().StringVarP(&workerHost, "host", "a", "localhost", "listen host")
	workerStartCmd.Flags().IntVarP(&workerPort, "port", "p", 21000, "listen port")
	workerStartCmd.Flags().StringVar(&workerLogLevel, "log-level", "info", "log level: debug, info, warn, error")

	workerCmd.AddCommand(workerStartCmd)
	rootCmd.AddCommand(workerCmd)
}
