// Command battrend reports regression candidates and next-season projections
// for batters from a store of season records.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	service "github.com/okian/battrend/internal/app"
	"github.com/okian/battrend/internal/config"
	"github.com/okian/battrend/pkg/logger"
)

// globals holds the persistent flags and what PersistentPreRunE builds from them.
type globals struct {
	configPath string
	logLevel   string
	jsonLogs   bool
	storeKind  string
	storePath  string
	dataFiles  []string

	cfg *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "battrend",
		Short: "Regression and projection reports for batters",
		Long: `battrend compares each batter's current season with their career baseline and
the league, flags metrics likely to regress, nets them into a buy/sell call and
projects the next season.

Configuration is layered: defaults, then the YAML file named by --config or
BATTREND_CONFIG, then BATTREND_* environment variables, then flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: g.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "YAML config file (default $"+config.EnvFile+")")
	flags.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&g.jsonLogs, "json-logs", false, "write logs as JSON lines")
	flags.StringVar(&g.storeKind, "store", "", "record store: memory or badger")
	flags.StringVar(&g.storePath, "store-path", "", "badger directory (empty keeps badger in memory)")
	flags.StringSliceVarP(&g.dataFiles, "data", "d", nil, "record files (.json, .yaml, .csv) loaded into the store first")

	root.AddCommand(
		newReportCmd(g),
		newBatchCmd(g),
		newDigestCmd(g),
		newLoadCmd(g),
		newServeCmd(g),
		newSynthCmd(g),
	)
	return root
}

// setup initializes logging and loads the configuration. Flags win over
// the file and the environment.
func (g *globals) setup(cmd *cobra.Command, _ []string) error {
	if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithJSON(g.jsonLogs)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg, err := config.LoadFile(cmd.Context(), g.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	if flags.Changed("json-logs") {
		cfg.LogJSON = g.jsonLogs
	}
	if flags.Changed("store") {
		cfg.StoreKind = g.storeKind
	}
	if flags.Changed("store-path") {
		cfg.StorePath = g.storePath
		if !flags.Changed("store") {
			cfg.StoreKind = config.StoreBadger
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.LogJSON != g.jsonLogs {
		if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithJSON(cfg.LogJSON)); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	g.cfg = cfg
	return nil
}

// open returns an opened service with any --data files loaded. Callers
// must close it.
func (g *globals) open(ctx context.Context) (*service.Service, error) {
	svc := service.New(g.cfg, service.WithLogger(logger.Get().Named("service")))
	if err := svc.Open(ctx); err != nil {
		return nil, err
	}
	if _, err := loadFiles(ctx, svc, g.dataFiles); err != nil {
		closeService(ctx, svc)
		return nil, err
	}
	return svc, nil
}

// closeService stops svc and logs a failure instead of masking the command's error.
func closeService(ctx context.Context, svc *service.Service) {
	if err := svc.Stop(ctx); err != nil {
		logger.Get().Error(ctx, "failed to stop service", logger.Error(err))
	}
}
