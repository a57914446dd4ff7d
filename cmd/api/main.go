package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/metrics-api/infrastructure/database/postgres"
	"github.com/vfg2006/metrics-api/infrastructure/export"
	"github.com/vfg2006/metrics-api/infrastructure/integrator/httpsource"
	"github.com/vfg2006/metrics-api/infrastructure/migration"
	"github.com/vfg2006/metrics-api/infrastructure/repository"
	"github.com/vfg2006/metrics-api/internal/api"
	"github.com/vfg2006/metrics-api/internal/api/handler"
	"github.com/vfg2006/metrics-api/internal/config"
	"github.com/vfg2006/metrics-api/internal/scheduler"
	"github.com/vfg2006/metrics-api/internal/usecases/authenticating"
	"github.com/vfg2006/metrics-api/internal/usecases/metering"
	"github.com/vfg2006/metrics-api/pkg/format"
	"github.com/vfg2006/metrics-api/pkg/log"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	// Define formato e nível de log com base na configuração
	if err := log.Configure(cfg.App.LogLevel); err != nil {
		logrus.Warnf("Nível de log inválido: %s, usando 'info'", cfg.App.LogLevel)
	}
	logrus.Infof("Nível de log configurado para: %s", logrus.GetLevel())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgConn := pgconn(ctx, cfg.Database)
	defer pgConn.Close()

	if err := migration.Run(ctx, pgConn); err != nil {
		logrus.WithError(err).Fatal("Erro ao aplicar migração do banco de dados")
	}

	sourceRegistry, err := repository.NewSourceRegistry(pgConn, cfg.Metrics.Datasets)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao registrar datasets de métricas")
	}
	remoteSources, err := httpsource.FromConfig(
		httpsource.NewClient(cfg.Metrics.HTTPToken, cfg.Metrics.HTTPTimeout),
		cfg.Metrics.HTTPDatasets,
	)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao configurar datasets remotos")
	}
	for _, source := range remoteSources {
		if err := sourceRegistry.Register(source); err != nil {
			logrus.WithError(err).Fatal("Erro ao registrar dataset remoto")
		}
	}
	logrus.WithField("datasets", sourceRegistry.Names()).Info("Datasets de métricas registrados")

	snapshotRepo := repository.NewSnapshotRepository(pgConn)

	formatter := metering.NumberFormatterFunc(format.ForStyle(cfg.Metrics.NumberFormat, cfg.Metrics.Locale))
	metricsService := metering.NewService(cfg.Metrics, formatter)

	authenticator := authenticating.NewService(cfg)

	snapshotSyncService, err := scheduler.NewSnapshotSyncService(sourceRegistry, metricsService, snapshotRepo, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao configurar o agendador de snapshots")
	}

	// Inicia o agendador em background
	if err := snapshotSyncService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de snapshots de métricas")
	} else {
		logrus.Info("Agendador de snapshots de métricas iniciado com sucesso")
	}

	server, err := api.New(cfg, api.Dependencies{
		Metrics: handler.MetricServices{
			Aggregator: metricsService,
			Sources:    sourceRegistry,
			Exporter:   export.NewXLSXExporter(),
			Now:        metricsService.Now,
		},
		Snapshots: snapshotRepo,
		CronJobs: handler.CronJobServices{
			SnapshotSyncService: snapshotSyncService,
		},
		Authenticator: authenticator,
		DB:            pgConn,
	})
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

// pgconn cria uma conexão com o banco de dados
func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao PostgreSQL")
	}

	logrus.Info("Conexão com PostgreSQL estabelecida com sucesso")
	return conn
}
