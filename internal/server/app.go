// Package server assembles the ledger service from its configuration and
// runs the gRPC and metrics endpoints until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/holiman/uint256"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/stakeledger/internal/filex"
	"github.com/dmitrijs2005/stakeledger/internal/logging"
	"github.com/dmitrijs2005/stakeledger/internal/metrics"
	"github.com/dmitrijs2005/stakeledger/internal/server/config"
	"github.com/dmitrijs2005/stakeledger/internal/server/events"
	"github.com/dmitrijs2005/stakeledger/internal/server/external"
	"github.com/dmitrijs2005/stakeledger/internal/server/ledger"
	"github.com/dmitrijs2005/stakeledger/internal/server/locks"
	"github.com/dmitrijs2005/stakeledger/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/stakeledger/internal/server/snapshot"

	gs "github.com/dmitrijs2005/stakeledger/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	ledger  *ledger.Ledger
	grpc    *gs.GRPCServer
	metrics *metrics.Server
	closers []func() error
}

// NewApp connects every backend named by c. Whatever was opened before a
// failure is closed again.
func NewApp(ctx context.Context, c *config.Config) (_ *App, err error) {
	app := &App{config: c, logger: logging.New(os.Stdout, c.LogLevel)}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	store, err := app.initStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	custody, treasury, err := app.initCollaborators()
	if err != nil {
		return nil, fmt.Errorf("collaborators init error: %w", err)
	}

	publisher, journal, err := app.initEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("events init error: %w", err)
	}

	locker, err := app.initLocker(ctx)
	if err != nil {
		return nil, fmt.Errorf("locks init error: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app.ledger = ledger.New(store, custody, treasury,
		ledger.Accounts{Vault: c.VaultAccount, Operating: c.OperatingAccount},
		ledger.WithPublisher(publisher),
		ledger.WithLocker(locker),
		ledger.WithMeter(metrics.NewLedgerMeter(reg)),
		ledger.WithLogger(app.logger),
	)

	rate, err := uint256.FromDecimal(c.RewardRatePerDay)
	if err != nil {
		return nil, fmt.Errorf("reward rate %q: %w", c.RewardRatePerDay, err)
	}
	if err := app.ledger.Init(ctx, rate); err != nil {
		return nil, fmt.Errorf("ledger init error: %w", err)
	}
	if err := app.ledger.CheckConsistency(ctx); err != nil {
		return nil, fmt.Errorf("ledger consistency: %w", err)
	}

	opts := []gs.Option{}
	if journal != nil {
		opts = append(opts, gs.WithEventLog(journal))
	}
	if c.S3Bucket != "" {
		snaps, err := snapshot.NewS3Store(ctx, snapshot.Settings{
			Region:       c.S3Region,
			User:         c.S3RootUser,
			Password:     c.S3RootPassword,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("snapshot init error: %w", err)
		}
		opts = append(opts, gs.WithSnapshotter(snaps))
	}

	app.grpc = gs.NewGRPCServer(c.EndpointAddrGRPC, app.logger, app.ledger, c.SecretKey, opts...)
	app.metrics = metrics.NewServer(c.EndpointAddrMetrics, reg, app.logger)

	return app, nil
}

func (app *App) onClose(f func() error) {
	app.closers = append(app.closers, f)
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	app.closers = nil
}

func (app *App) initStore(ctx context.Context) (ledger.Store, error) {
	if app.config.DatabaseDSN == config.MemoryDSN {
		app.logger.Warn(ctx, "using in-memory store, state is lost on exit")
		return ledger.NewMemoryStore(), nil
	}

	db, err := sql.Open("pgx", app.config.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	app.onClose(db.Close)

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return ledger.NewSQLStore(db, repos), nil
}

func (app *App) initCollaborators() (ledger.Custody, ledger.Treasury, error) {
	var (
		custody  ledger.Custody
		treasury ledger.Treasury
	)

	if app.config.CustodyEndpoint == "" {
		custody = external.NewMemoryCustody(app.config.DevItems)
	} else {
		conn, err := external.Dial(app.config.CustodyEndpoint)
		if err != nil {
			return nil, nil, fmt.Errorf("custody: %w", err)
		}
		app.onClose(conn.Close)
		custody = external.NewCustodyClient(conn)
	}

	if app.config.TreasuryEndpoint == "" {
		funds, err := uint256.FromDecimal(app.config.DevTreasuryFunds)
		if err != nil {
			return nil, nil, fmt.Errorf("dev treasury funds %q: %w", app.config.DevTreasuryFunds, err)
		}
		treasury = external.NewMemoryTreasury(app.config.OperatingAccount, funds)
	} else {
		conn, err := external.Dial(app.config.TreasuryEndpoint)
		if err != nil {
			return nil, nil, fmt.Errorf("treasury: %w", err)
		}
		app.onClose(conn.Close)
		treasury = external.NewTreasuryClient(conn)
	}

	return custody, treasury, nil
}

func (app *App) initEvents(ctx context.Context) (events.Publisher, *events.Journal, error) {
	var (
		sinks   events.Fanout
		journal *events.Journal
	)

	if app.config.JournalPath != "" {
		path, err := filex.EnsureFileDir(app.config.JournalPath)
		if err != nil {
			return nil, nil, err
		}
		journal, err = events.OpenJournal(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		app.onClose(journal.Close)
		sinks = append(sinks, journal)
	}

	if len(app.config.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(app.config.KafkaBrokers, app.config.KafkaTopic)
		if err != nil {
			return nil, nil, err
		}
		app.onClose(kp.Close)
		sinks = append(sinks, kp)
	}

	return sinks, journal, nil
}

func (app *App) initLocker(ctx context.Context) (ledger.Locker, error) {
	if app.config.RedisAddr == "" {
		return locks.Local{}, nil
	}
	client, err := locks.Connect(ctx, app.config.RedisAddr)
	if err != nil {
		return nil, err
	}
	app.onClose(client.Close)
	return locks.NewRedisLocker(client, app.config.LockTTL, app.logger), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled, a shutdown signal arrives or one of the
// servers fails, then releases every backend.
func (app *App) Run(ctx context.Context) error {
	defer app.close()

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.grpc.Run(ctx) })
	g.Go(func() error { return app.metrics.Run(ctx) })

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		app.logger.Error(ctx, "server stopped", "error", err)
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
