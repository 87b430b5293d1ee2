// Package jobs runs the background maintenance schedule: audit log retention
// and pruning of soft-deleted rows past their grace period.
package jobs

import (
	"context"
	"time"

	"shopadmin/internal/model"
	"shopadmin/internal/repository"
	"shopadmin/pkg/logger"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const softDeleteGraceDays = 30

// Scheduler owns the cron runner and its job dependencies.
type Scheduler struct {
	cron          *cron.Cron
	db            *gorm.DB
	auditRepo     repository.AuditRepository
	retentionDays int
}

func NewScheduler(db *gorm.DB, auditRepo repository.AuditRepository, retentionDays int) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		db:            db,
		auditRepo:     auditRepo,
		retentionDays: retentionDays,
	}
}

// Start registers the maintenance jobs and launches the runner. Both jobs run
// nightly during off-peak hours.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 3 * * *", s.purgeAuditLogs); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("30 3 * * *", s.purgeSoftDeleted); err != nil {
		return err
	}
	s.cron.Start()
	log := logger.Get()
	log.Info().Int("audit_retention_days", s.retentionDays).Msg("background jobs scheduled")
	return nil
}

// Stop halts the runner and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) purgeAuditLogs() {
	log := logger.Get()
	if s.retentionDays <= 0 {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	removed, err := s.auditRepo.DeleteOlderThan(context.Background(), cutoff)
	if err != nil {
		log.Error().Err(err).Msg("audit log retention purge failed")
		return
	}
	log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("audit log retention purge complete")
}

func (s *Scheduler) purgeSoftDeleted() {
	log := logger.Get()
	cutoff := time.Now().AddDate(0, 0, -softDeleteGraceDays)

	targets := []interface{}{
		&model.Product{},
		&model.Category{},
		&model.Unit{},
		&model.Customer{},
		&model.User{},
	}
	for _, target := range targets {
		res := s.db.Unscoped().Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).Delete(target)
		if res.Error != nil {
			log.Error().Err(res.Error).Msg("soft delete purge failed")
			continue
		}
		if res.RowsAffected > 0 {
			log.Info().Int64("removed", res.RowsAffected).Msg("purged soft deleted rows")
		}
	}
}
