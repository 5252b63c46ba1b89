package main

import (
	"fmt"

	service "github.com/okian/dltscope/internal/app"
	"github.com/okian/dltscope/internal/config"
	"github.com/okian/dltscope/pkg/logger"
	"github.com/spf13/cobra"
)

// state carries what every subcommand needs once the root has loaded it.
type state struct {
	cfg *config.Config
	log logger.Logger

	// newService builds the service for a loaded config.
	newService func(cfg *config.Config) *service.Service
}

func newRootState() *state {
	return &state{
		cfg: config.New(),
		log: logger.Get().Named("cmd"),
		newService: func(cfg *config.Config) *service.Service {
			return service.New(cfg)
		},
	}
}

func newRootCmd() *cobra.Command {
	rt := newRootState()

	root := &cobra.Command{
		Use:   "dltscope",
		Short: "dltscope acquires lottery draws and expert rankings and analyzes them.",
		Long: "dltscope acquires lottery draw history and expert rankings, caches them as CSV " +
			"and runs sales, frequency, weekday and expert analyses plus a heuristic prediction.\n\n" +
			"Configuration comes from defaults, the YAML file named by " + config.EnvConfigPath +
			" and " + config.EnvPrefix + "* environment variables.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			rt.cfg = cfg
			// Apply configured log level (fallback to info on invalid input)
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				rt.log.Warn(cmd.Context(), "invalid log_level; falling back to info",
					logger.String("log_level", cfg.LogLevel), logger.Error(err))
				_ = logger.SetLevelString("info")
			}
			return nil
		},
	}

	root.AddCommand(
		newMenuCmd(rt),
		newAcquireCmd(rt),
		newPredictCmd(rt),
		newServeCmd(rt),
		newFixturesCmd(rt),
	)
	return root
}

// service builds and starts the service for one command.
func (rt *state) service(cmd *cobra.Command) (*service.Service, error) {
	svc := rt.newService(rt.cfg)
	if err := svc.Start(cmd.Context()); err != nil {
		return nil, fmt.Errorf("failed to start service: %w", err)
	}
	return svc, nil
}
