package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/evrwallet/evrwallet-daemon/internal/config"
	"github.com/evrwallet/evrwallet-daemon/internal/core/application"
	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/engine"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/httpclient"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/notifier"
	dbbadger "github.com/evrwallet/evrwallet-daemon/internal/infrastructure/storage/db/badger"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/timesource"
	"github.com/evrwallet/evrwallet-daemon/internal/infrastructure/transport"
	httpinterface "github.com/evrwallet/evrwallet-daemon/internal/interfaces/http"
	"github.com/evrwallet/evrwallet-daemon/pkg/stats"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := stats.NewMetrics()
	if config.GetBool(config.EnableProfilerKey) {
		stats.EnableMemoryStatistics(
			ctx,
			time.Duration(config.GetInt(config.StatsIntervalKey))*time.Second,
			metrics.Registry,
			filepath.Join(config.GetDatadir(), config.ProfilerLocation),
		)
	}

	dbManager, err := dbbadger.NewDbManager(config.GetDbDir(), dbbadger.NewLogger())
	if err != nil {
		log.WithError(err).Fatal("failed to open db")
	}

	httpOpts := httpclient.Options{
		RequestsPerSecond: config.GetInt(config.RequestsPerSecondKey),
	}

	engineClient, err := engine.NewClient(
		httpclient.New(httpOpts), config.GetString(config.EngineAddrKey),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to wallet engine")
	}

	timeSource, err := timesource.NewTimeSource(
		httpclient.New(httpOpts), config.GetString(config.ClockEndpointKey),
	)
	if err != nil {
		log.WithError(err).Fatal("invalid clock endpoint")
	}

	notifierSvc, err := newNotifier(httpOpts)
	if err != nil {
		log.WithError(err).Fatal("failed to setup notifier")
	}

	storage := dbbadger.NewStorage(dbManager)
	accountsStorage := dbbadger.NewAccountsStorage(dbManager)

	connectionSvc, err := application.NewConnectionService(
		storage,
		transport.NewFactory(engineClient, httpOpts, metrics),
		timeSource,
		config.GetConnectionConfig(),
		metrics,
	)
	if err != nil {
		log.WithError(err).Fatal("failed to create connection service")
	}

	accountSvc, err := application.NewAccountService(
		connectionSvc,
		engineClient,
		engineClient,
		storage,
		dbbadger.NewSessionStorage(dbManager),
		accountsStorage,
		notifierSvc,
		config.GetPollingConfig(),
		metrics,
	)
	if err != nil {
		log.WithError(err).Fatal("failed to create account service")
	}

	walletSvc, err := application.NewWalletService(
		connectionSvc, accountSvc, storage, accountsStorage,
	)
	if err != nil {
		log.WithError(err).Fatal("failed to create wallet service")
	}

	log.Debug("starting daemon")

	if err := walletSvc.InitialSync(ctx); err != nil {
		log.WithError(err).Fatal("initial sync failed")
	}

	svc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Address:   fmt.Sprintf(":%d", config.GetInt(config.HTTPListeningPortKey)),
		Gatherer:  metrics.Registry,
		WalletSvc: walletSvc,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to create http interface")
	}
	if err := svc.Start(); err != nil {
		log.WithError(err).Fatal("failed to start http interface")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, os.Interrupt)
	<-sigChan

	log.Info("shutting down daemon")

	svc.Stop()
	walletSvc.Close()
	cancel()
	dbManager.Close()

	log.Debug("exiting")
}

func newNotifier(opts httpclient.Options) (ports.Notifier, error) {
	endpoints := config.GetStringSlice(config.WebhookEndpointsKey)
	if len(endpoints) <= 0 {
		return notifier.NewLogNotifier(), nil
	}
	return notifier.NewWebhookNotifier(
		httpclient.New(opts), endpoints, config.GetString(config.WebhookSecretKey),
	)
}
