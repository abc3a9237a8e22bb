package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"rhystmorgan/likeWallet/internal/audit"
	"rhystmorgan/likeWallet/internal/chain"
	"rhystmorgan/likeWallet/internal/chainstore"
	"rhystmorgan/likeWallet/internal/config"
	"rhystmorgan/likeWallet/internal/i18n"
	"rhystmorgan/likeWallet/internal/logging"
	"rhystmorgan/likeWallet/internal/metrics"
	"rhystmorgan/likeWallet/internal/security"
	"rhystmorgan/likeWallet/internal/storage"
	"rhystmorgan/likeWallet/internal/views"
)

var rootCmd = &cobra.Command{
	Use:   "liketerm",
	Short: "LikeCoin staking wallet for the terminal",
	Long: `liketerm manages LikeCoin wallets and their delegations.

Without a subcommand it starts the interactive terminal UI. Configuration is
read from LIKETERM_* environment variables.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env bundles the services shared by the TUI and the headless commands.
type env struct {
	cfg        *config.Config
	logger     *logrus.Logger
	closer     io.Closer
	storage    *storage.Storage
	client     *chain.Client
	builder    *chain.TxBuilder
	chain      *chainstore.Store
	journal    *audit.Journal
	translator *i18n.Translator
}

func (e *env) Close() {
	if e.journal != nil {
		if err := e.journal.Close(); err != nil {
			e.logger.WithError(err).Warn("Failed to flush transaction journal")
		}
	}
	if e.closer != nil {
		e.closer.Close()
	}
}

// setup loads configuration and builds the service graph. The TUI logs to a
// file; headless commands log to stderr.
func setup(console bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	opts := logging.Options{Dir: cfg.DataDir, Format: cfg.LogFormat, Level: cfg.LogLevel}
	if cfg.IsDebugEnabled() {
		opts.Level = "debug"
	}

	e := &env{cfg: cfg, translator: i18n.New(cfg.Locale)}
	if console {
		e.logger, err = logging.NewConsoleLogger(opts)
	} else {
		e.logger, e.closer, err = logging.NewLogger(opts)
	}
	if err != nil {
		return nil, err
	}

	metrics.Register(e.logger)

	e.storage, err = storage.NewStorage(cfg.DataDir)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	e.journal, err = audit.NewJournal(cfg.DataDir)
	if err != nil {
		e.Close()
		return nil, err
	}

	chainCfg := cfg.ChainConfig()
	e.client, err = chain.NewClientWithoutCheck(chainCfg, e.logger)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to create chain client: %w", err)
	}

	e.builder, err = chain.NewTxBuilder(e.client, chainCfg, e.logger)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to create transaction builder: %w", err)
	}

	e.chain = chainstore.New(e.client, chainstore.Options{
		Denom:                chainCfg.DenomInfo(),
		FeeReserve:           cfg.FeeReserve,
		CivicLikerValidators: cfg.CivicLikerValidators,
		CivicLikerMinStake:   cfg.CivicLikerMinStake,
	}, e.logger)

	e.logger.WithFields(logrus.Fields{
		"network":  cfg.Network,
		"lcd":      chainCfg.LCDURL,
		"chain_id": chainCfg.ChainID,
	}).Debug("Configuration loaded")

	return e, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	srv := metrics.StartServer(e.cfg.MetricsAddr, e.logger)
	defer func() {
		stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Stop(stopCtx); err != nil {
			e.logger.WithError(err).Warn("Failed to stop metrics server")
		}
	}()

	e.client.StartCacheCleanup(ctx)
	go func() {
		if err := e.client.CheckConnection(ctx); err != nil {
			e.logger.WithError(err).Warn("LCD not reachable")
		}
	}()

	sessionCfg := security.DefaultSessionConfig()
	sessionCfg.DefaultTimeout = e.cfg.SessionTimeout
	sessions := security.NewSessionManager(sessionCfg, e.logger)
	go sessions.Run(ctx)

	app, err := views.NewAppModel(views.Dependencies{
		Config:     e.cfg,
		Storage:    e.storage,
		Client:     e.client,
		Builder:    e.builder,
		Chain:      e.chain,
		Sessions:   sessions,
		Attempts:   security.NewAttemptTracker(3),
		Journal:    e.journal,
		Translator: e.translator,
		Logger:     e.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	p := tea.NewProgram(*app, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if model, ok := final.(views.AppModel); ok {
		model.Shutdown()
	} else {
		sessions.CloseAllSessions()
	}
	if err != nil {
		return fmt.Errorf("failed to run application: %w", err)
	}
	return nil
}
