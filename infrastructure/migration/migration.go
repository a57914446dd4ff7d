package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Transactor executa uma função dentro de uma transação
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(*sql.Tx) error) error
}

// Step é uma etapa idempotente do schema
type Step struct {
	Name       string
	Statements []string
}

// Steps são aplicadas em ordem; todas usam IF NOT EXISTS e podem ser reexecutadas
var Steps = []Step{
	{
		Name: "create_metric_snapshots",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS metric_snapshots (
				id         VARCHAR(32)      PRIMARY KEY,
				dataset    VARCHAR(128)     NOT NULL,
				metric     VARCHAR(128)     NOT NULL,
				field      VARCHAR(128)     NOT NULL DEFAULT '',
				func       VARCHAR(16)      NOT NULL,
				date       DATE             NOT NULL,
				value      DOUBLE PRECISION NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ      NOT NULL DEFAULT NOW()
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS metric_snapshots_dataset_metric_date_idx
				ON metric_snapshots (dataset, metric, date)`,
			`CREATE INDEX IF NOT EXISTS metric_snapshots_date_idx
				ON metric_snapshots (date)`,
		},
	},
}

// Run aplica todas as etapas em uma única transação
func Run(ctx context.Context, conn Transactor) error {
	startTime := time.Now()
	logrus.WithField("steps", len(Steps)).Info("Iniciando migração do banco de dados")

	err := conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		for _, step := range Steps {
			for i, stmt := range step.Statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migração %s (comando %d): %w", step.Name, i+1, err)
				}
			}
			logrus.WithField("step", step.Name).Debug("Etapa de migração aplicada")
		}
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithField("duration", time.Since(startTime).String()).Info("Migração concluída")
	return nil
}
