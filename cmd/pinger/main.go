package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	config "github.com/NordCoder/ipwatch/internal/config/pinger"
	"github.com/NordCoder/ipwatch/internal/domain/outbox"
	"github.com/NordCoder/ipwatch/internal/domain/target"
	"github.com/NordCoder/ipwatch/internal/obs"
	"github.com/NordCoder/ipwatch/internal/obs/retry"
	intoutbox "github.com/NordCoder/ipwatch/internal/outbox"
	"github.com/NordCoder/ipwatch/internal/repository/kafka"
	"github.com/NordCoder/ipwatch/internal/repository/memory"
	pg "github.com/NordCoder/ipwatch/internal/repository/postgres"
	"github.com/NordCoder/ipwatch/internal/services/pinger"

	"go.uber.org/zap"
)

type storage struct {
	targets  target.Repo
	downtime target.DowntimeRepo
	tx       pinger.TxRunner
	outbox   outbox.Repository
	health   obs.HealthFunc
	close    func()
}

func openStorage(ctx context.Context, cfg *config.Config, l *zap.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		s, err := memory.New(cfg.Storage.SeedTargets...)
		if err != nil {
			return nil, err
		}
		l.Warn("memory storage: state is lost on exit", zap.Int("targets", len(cfg.Storage.SeedTargets)))
		return &storage{
			targets: s, downtime: s, tx: s, outbox: memory.NewOutbox(),
			health: func(context.Context) error { return nil },
			close:  func() {},
		}, nil
	}

	db, err := pg.NewDB(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	targets := pg.NewTargetRepo(db)
	for _, a := range cfg.Storage.SeedTargets {
		if err := targets.Register(ctx, a); err != nil {
			l.Warn("seed target", zap.String("address", a), zap.Error(err))
		}
	}
	return &storage{
		targets:  targets,
		downtime: pg.NewDowntimeRepo(db),
		tx:       pg.NewTransactor(db, l),
		outbox:   pg.NewOutboxRepo(db),
		health:   db.Ping,
		close:    db.Close,
	}, nil
}

func newProber(p config.Ping) pinger.Prober {
	if p.Mode == config.ModeTCP {
		return pinger.TCPProber{Port: p.TCPPort}
	}
	return pinger.ICMPProber{Count: p.Count, Privileged: p.Privileged}
}

func wire(cfg *config.Config, st *storage, withOutbox bool, l *zap.Logger) (*pinger.Orchestrator, *pinger.Runner) {
	exec := &pinger.BatchExecutor{Prober: newProber(cfg.Ping), Timeout: cfg.Ping.Timeout}
	sup := pinger.NewRetrySupervisor(exec, l)

	var opts []pinger.ReconcilerOption
	if withOutbox {
		opts = append(opts, pinger.WithOutbox(st.outbox))
	}
	rec := pinger.NewReconciler(st.targets, st.downtime, st.tx, l, opts...)

	orch := pinger.NewOrchestrator(l, st.targets, sup, rec, pinger.OrchestratorConfig{
		Workers:      cfg.Ping.ResolveWorkers(),
		MaxBatchSize: cfg.Ping.MaxBatchSize,
	})
	return orch, pinger.NewRunner(l, orch, cfg.Ping.Interval)
}

func main() {
	cfgPath := flag.String("config", "config/pinger.yaml", "path to the yaml config")
	flag.Parse()

	// init
	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.LoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	// otel
	otelCloser, err := obs.SetupOTel(root, cfg.OTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// storage
	st, err := openStorage(root, cfg, l)
	if err != nil {
		l.Fatal("storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer st.close()

	// metrics
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, st.health, l)

	// wiring
	orch, runner := wire(cfg, st, cfg.Kafka.Enable, l)

	// start
	runCtx, stopRunner := context.WithCancel(root)
	defer stopRunner()

	errCh := make(chan error, 3)
	runnerDone := make(chan struct{})
	go func() {
		defer close(runnerDone)
		errCh <- runner.Run(runCtx)
	}()

	if cfg.Kafka.Enable {
		prod := kafka.BootstrapProducer(root, cfg.Kafka.Brokers, cfg.Kafka.TransitionsTopic, l)
		defer func() { _ = prod.Close() }()

		dispatch := intoutbox.MakeGlobalOutboxHandler(kafka.NewTransitionEvents(prod), retry.DefaultOutboxPolicy(l))
		outboxRunner := intoutbox.NewOutboxRunner(l, st.outbox, dispatch,
			cfg.Outbox.Workers, cfg.Outbox.BatchSize, cfg.Outbox.Wait, cfg.Outbox.InProgressTTL)
		go func() { errCh <- outboxRunner.Run(root) }()

		cons := kafka.BootstrapConsumer(root, cfg.TriggerConsumerConfig(), l).WithLogger(l)
		defer func() { _ = cons.Close() }()
		ctrl := &pinger.TriggerController{Log: l, Sub: cons, Runner: runner}
		go func() { errCh <- ctrl.Run(root) }()
	}

	l.Info("pinger started",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("mode", cfg.Ping.Mode),
		zap.Int("workers", cfg.Ping.ResolveWorkers()),
		zap.Duration("interval", cfg.Ping.Interval),
	)

	// loop
	select {
	case <-root.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("component stopped", zap.Error(err))
		}
	}

	// shutdown: no new cycles, then cancel running executions, then resources
	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	stopRunner()
	if err := orch.Terminate(shCtx); err != nil {
		l.Warn("terminate executions", zap.Error(err))
	}
	select {
	case <-runnerDone:
	case <-shCtx.Done():
		l.Warn("runner did not stop in time")
	}
	stop()

	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
