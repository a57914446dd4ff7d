package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/metrics-api/infrastructure/repository"
	"github.com/vfg2006/metrics-api/internal/config"
	"github.com/vfg2006/metrics-api/internal/domain"
	"github.com/vfg2006/metrics-api/internal/usecases/metering"
)

// SnapshotSyncConfig representa a configuração do agendador de snapshots
type SnapshotSyncConfig struct {
	CronSchedule string
	LookbackDays int
	SyncEnabled  bool
	Definitions  []domain.SnapshotDefinition
}

// SnapshotSyncService calcula periodicamente as métricas headline configuradas e salva um snapshot por dia
type SnapshotSyncService struct {
	scheduler           *gocron.Scheduler
	config              SnapshotSyncConfig
	sources             metering.SourceResolver
	aggregator          metering.Aggregator
	snapshotRepo        repository.SnapshotRepository
	now                 func() time.Time
	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
	lastSyncResult      SyncResult
}

// SyncResult resume uma execução da sincronização
type SyncResult struct {
	Saved  int `json:"saved"`
	Failed int `json:"failed"`
}

// NewSnapshotSyncService cria uma nova instância do serviço de sincronização de snapshots
func NewSnapshotSyncService(
	sources metering.SourceResolver,
	aggregator metering.Aggregator,
	snapshotRepo repository.SnapshotRepository,
	appConfig *config.Config,
) (*SnapshotSyncService, error) {
	if appConfig.SnapshotSync.LookbackDays < 0 {
		return nil, fmt.Errorf("snapshot_sync_lookback_days inválido: %d", appConfig.SnapshotSync.LookbackDays)
	}

	definitions := make([]domain.SnapshotDefinition, 0, len(appConfig.SnapshotSync.Definitions))
	for _, expr := range appConfig.SnapshotSync.Definitions {
		if expr == "" {
			continue
		}
		def, err := domain.ParseSnapshotDefinition(expr)
		if err != nil {
			return nil, err
		}
		definitions = append(definitions, def)
	}

	syncConfig := SnapshotSyncConfig{
		CronSchedule: appConfig.SnapshotSync.CronSchedule,
		LookbackDays: appConfig.SnapshotSync.LookbackDays,
		SyncEnabled:  appConfig.SnapshotSync.Enabled,
		Definitions:  definitions,
	}

	logrus.WithFields(logrus.Fields{
		"cron_schedule": syncConfig.CronSchedule,
		"lookback_days": syncConfig.LookbackDays,
		"sync_enabled":  syncConfig.SyncEnabled,
		"definitions":   len(syncConfig.Definitions),
	}).Info("Configuração do agendador de snapshots carregada")

	return &SnapshotSyncService{
		scheduler:    gocron.NewScheduler(time.Local),
		config:       syncConfig,
		sources:      sources,
		aggregator:   aggregator,
		snapshotRepo: snapshotRepo,
		now:          time.Now,
	}, nil
}

// Start inicia o agendador
func (s *SnapshotSyncService) Start(ctx context.Context) error {
	if !s.config.SyncEnabled {
		logrus.Info("Sincronização de snapshots desabilitada por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando agendador de sincronização de snapshots")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.syncSnapshots(ctx)
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar sincronização de snapshots: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de sincronização de snapshots")
		s.scheduler.Stop()
	}()

	return nil
}

// syncSnapshots recalcula os snapshots dos últimos dias; execuções sobrepostas são ignoradas
func (s *SnapshotSyncService) syncSnapshots(ctx context.Context) {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Sincronização de snapshots já em andamento, ignorando")
		return
	}
	s.syncRunning = true
	startedAt := s.now()
	s.lastSyncStartedAt = startedAt
	s.syncMutex.Unlock()

	defer func() {
		s.syncMutex.Lock()
		s.syncRunning = false
		s.syncMutex.Unlock()
	}()

	if len(s.config.Definitions) == 0 {
		logrus.Info("Nenhuma métrica configurada para sincronização de snapshots")
		return
	}

	logrus.Info("Iniciando sincronização de snapshots")

	result := s.processDefinitions(ctx, s.config.Definitions, s.getDatesToProcess())

	s.syncMutex.Lock()
	s.lastSyncCompletedAt = s.now()
	s.lastSyncResult = result
	s.syncMutex.Unlock()

	logrus.WithFields(logrus.Fields{
		"saved":    result.Saved,
		"failed":   result.Failed,
		"duration": s.now().Sub(startedAt).String(),
	}).Info("Sincronização de snapshots concluída")
}

// getDatesToProcess cria um conjunto de datas para processar, de ontem para trás
func (s *SnapshotSyncService) getDatesToProcess() []time.Time {
	if s.config.LookbackDays <= 0 {
		return nil
	}

	today := metering.StartOfDay(s.now())

	dates := make([]time.Time, s.config.LookbackDays)
	for i := 0; i < s.config.LookbackDays; i++ {
		dates[i] = today.AddDate(0, 0, -i-1)
	}
	return dates
}

// processDefinitions calcula e salva cada definição em cada data. Erros são registrados e a execução continua.
func (s *SnapshotSyncService) processDefinitions(ctx context.Context, definitions []domain.SnapshotDefinition, dates []time.Time) SyncResult {
	var result SyncResult

	for _, def := range definitions {
		sources, err := s.sources.Resolve(def.Dataset)
		if err != nil {
			logrus.WithError(err).WithField("dataset", def.Dataset).Error("Dataset do snapshot não encontrado")
			result.Failed += len(dates)
			continue
		}

		for _, date := range dates {
			if err := s.processDate(ctx, def, sources, date); err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"dataset": def.Dataset,
					"metric":  def.Name(),
					"date":    date.Format(time.DateOnly),
				}).Error("Erro ao sincronizar snapshot")
				result.Failed++
				continue
			}
			result.Saved++
		}
	}

	return result
}

func (s *SnapshotSyncService) processDate(ctx context.Context, def domain.SnapshotDefinition, sources []metering.RecordSource, date time.Time) error {
	value, err := s.aggregator.HeadlineValue(ctx, metering.HeadlineRequest{
		Sources: sources,
		Func:    def.Func,
		Field:   def.Field,
		Start:   &date,
		End:     &date,
	})
	if err != nil {
		return fmt.Errorf("erro ao calcular métrica: %w", err)
	}

	snapshot := &domain.MetricSnapshot{
		Dataset: def.Dataset,
		Metric:  def.Name(),
		Field:   def.Field,
		Func:    def.Func,
		Date:    date,
		Value:   value,
	}

	if err := s.snapshotRepo.SaveOrUpdate(ctx, snapshot); err != nil {
		return fmt.Errorf("erro ao salvar snapshot: %w", err)
	}

	return nil
}

// TriggerManualSync inicia manualmente uma sincronização de snapshots.
// Retorna false quando já existe uma sincronização em andamento.
func (s *SnapshotSyncService) TriggerManualSync() bool {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Sincronização de snapshots já em andamento, ignorando solicitação manual")
		return false
	}
	s.syncMutex.Unlock()

	logrus.Info("Iniciando sincronização manual de snapshots")
	go s.syncSnapshots(context.Background())
	return true
}

// GetStatus retorna o status atual do agendador
func (s *SnapshotSyncService) GetStatus() map[string]any {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	names := make([]string, 0, len(s.config.Definitions))
	for _, def := range s.config.Definitions {
		names = append(names, def.Dataset+"."+def.Name())
	}

	return map[string]any{
		"sync_enabled":           s.config.SyncEnabled,
		"sync_cron":              s.config.CronSchedule,
		"sync_lookback_days":     s.config.LookbackDays,
		"sync_running":           s.syncRunning,
		"definitions":            names,
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
		"last_sync_result":       s.lastSyncResult,
	}
}
