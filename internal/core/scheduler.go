package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// SchedulerService runs the initial refresh at startup and a full refresh
// once a day at the configured wall-clock time.
type SchedulerService struct {
	ingestion *IngestionService
	refreshAt string
	scheduler *gocron.Scheduler
}

func NewSchedulerService(ingestion *IngestionService, refreshAt string) *SchedulerService {
	return &SchedulerService{
		ingestion: ingestion,
		refreshAt: refreshAt,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

func (s *SchedulerService) Start(ctx context.Context) error {
	// Initial load runs in the background so startup is not held hostage
	// by a slow archive.
	go s.refresh(ctx)

	_, err := s.scheduler.Every(1).Day().At(s.refreshAt).Do(func() {
		s.refresh(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *SchedulerService) Stop() {
	s.scheduler.Stop()
}

func (s *SchedulerService) refresh(ctx context.Context) {
	start := time.Now()
	count, err := s.ingestion.RefreshOnce(ctx)
	if err != nil {
		if errors.Is(err, ErrRefreshRunning) {
			log.Printf("Scheduler: refresh already in progress, skipping")
			return
		}
		log.Printf("Scheduler: refresh failed after %s: %v", time.Since(start).Round(time.Second), err)
		return
	}
	log.Printf("Scheduler: refresh ingested %d approvals in %s", count, time.Since(start).Round(time.Second))
}
