// Package commands implements the huddle CLI.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/huddle-sports/huddle-client/internal/config"
	"github.com/huddle-sports/huddle-client/pkg/client"
	"github.com/huddle-sports/huddle-client/pkg/logging"
	"github.com/huddle-sports/huddle-client/pkg/metrics"
	"github.com/huddle-sports/huddle-client/pkg/push"
	"github.com/huddle-sports/huddle-client/pkg/securestore"
	"github.com/huddle-sports/huddle-client/pkg/service"
	"github.com/huddle-sports/huddle-client/pkg/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app is the wiring shared by every command.
type app struct {
	cfg     config.Config
	secrets securestore.Store
	client  *client.Client
	rdb     *redis.Client
	svc     *service.Services
	state   *store.Store
	push    *push.DeviceRegistrar

	stopMetrics context.CancelFunc
}

type rootFlags struct {
	configPath  string
	home        string
	apiURL      string
	logLevel    string
	passphrase  string
	metricsAddr string
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:           "huddle",
		Short:         "Find and join pickup games from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, flags); err != nil {
				a.close()
				return err
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ./huddle.yaml)")
	pf.StringVar(&flags.home, "home", "", "directory holding the secure store (default ~/.huddle)")
	pf.StringVar(&flags.apiURL, "api-url", "", "Huddle API base URL")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVarP(&flags.passphrase, "passphrase", "p", "", "passphrase protecting the secure store (or HUDDLE_PASSPHRASE)")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")

	root.AddCommand(
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		eventsCmd(a),
		chatsCmd(a),
		notificationsCmd(a),
		pushCmd(a),
		statusCmd(a),
	)
	closeAfterRun(root, a)
	return root
}

// closeAfterRun wraps every RunE in the tree so the app is closed whether the
// command succeeds or fails. Cobra skips PersistentPostRunE after an error.
func closeAfterRun(cmd *cobra.Command, a *app) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) (err error) {
			defer func() {
				if cerr := a.close(); err == nil {
					err = cerr
				}
			}()
			return run(c, args)
		}
	}
	for _, sub := range cmd.Commands() {
		closeAfterRun(sub, a)
	}
}

func (a *app) setup(cmd *cobra.Command, flags rootFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.home != "" {
		cfg.Home = flags.home
	}
	if flags.apiURL != "" {
		cfg.API.URL = flags.apiURL
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.passphrase != "" {
		cfg.Passphrase = flags.passphrase
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Passphrase == "" {
		return fmt.Errorf("passphrase required (-p or %s)", config.EnvPassphrase)
	}
	a.cfg = cfg

	lc := cfg.LoggerConfig()
	lc.Output = cmd.ErrOrStderr()
	logging.Setup(lc)

	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return fmt.Errorf("create home: %w", err)
	}
	secrets, err := securestore.OpenFileStore(cfg.SecretsPath(), cfg.Passphrase)
	if err != nil {
		return fmt.Errorf("open secure store: %w", err)
	}
	a.secrets = secrets

	a.rdb = connectRedis(cmd.Context(), cfg)

	c, err := client.New(cfg.ClientConfig(a.rdb, securestore.TokenSource(secrets)))
	if err != nil {
		return err
	}
	a.client = c
	a.svc = service.New(c, secrets)
	a.state = store.New(store.State{})
	a.push = push.NewDeviceRegistrar(c, secrets, cfg.Push.Platform)

	if flags.metricsAddr != "" {
		ctx, cancel := context.WithCancel(context.Background())
		a.stopMetrics = cancel
		go func() {
			if err := metrics.Serve(ctx, flags.metricsAddr); err != nil {
				log.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}
	return nil
}

// connectRedis returns nil, running without the response cache, when Redis
// is not configured or unreachable.
func connectRedis(ctx context.Context, cfg config.Config) *redis.Client {
	opts, err := cfg.RedisOptions()
	if err != nil {
		log.Warn().Err(err).Msg("Ignoring invalid Redis URL")
		return nil
	}
	if opts == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", opts.Addr).Msg("Redis unreachable, response cache disabled")
		rdb.Close()
		return nil
	}
	log.Debug().Str("addr", opts.Addr).Msg("Connected to Redis")
	return rdb
}

// close releases everything setup acquired. It is safe to call twice.
func (a *app) close() error {
	if a.stopMetrics != nil {
		a.stopMetrics()
		a.stopMetrics = nil
	}
	if a.rdb != nil {
		a.rdb.Close()
		a.rdb = nil
	}
	if a.client != nil {
		err := a.client.Close()
		a.client = nil
		return err
	}
	return nil
}
