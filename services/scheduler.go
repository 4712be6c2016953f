package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// defaultRecalcInterval keeps ranks reasonably fresh without hammering the
// database; operators tune it via RECALC_INTERVAL_HOURS.
const defaultRecalcInterval = 6 * time.Hour

// Scheduler owns the periodic ranking recalculation job.
type Scheduler struct {
	scheduler gocron.Scheduler
	ranking   *RankingService
}

func NewScheduler(ranking *RankingService) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{scheduler: sched, ranking: ranking}, nil
}

// Start registers the recalculation job and launches the scheduler. The job
// also fires once at startup so a fresh deployment has ranks immediately.
func (s *Scheduler) Start() error {
	interval := defaultRecalcInterval
	if raw := os.Getenv("RECALC_INTERVAL_HOURS"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			log.Printf("Ignoring invalid RECALC_INTERVAL_HOURS=%q, using %s", raw, interval)
		} else {
			interval = time.Duration(hours) * time.Hour
		}
	}

	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.runRecalculation),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule ranking recalculation: %w", err)
	}

	s.scheduler.Start()
	log.Printf("Ranking recalculation scheduled every %s", interval)
	return nil
}

func (s *Scheduler) runRecalculation() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	stats, err := s.ranking.RecalculateAll(ctx)
	if err != nil {
		log.Printf("Scheduled ranking recalculation failed: %v", err)
		return
	}
	log.Printf("Scheduled ranking recalculation finished: %d users in %s", stats.UsersScored, stats.Duration)
}

func (s *Scheduler) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
}
