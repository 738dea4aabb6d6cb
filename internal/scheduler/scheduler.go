// Package scheduler starts new draws on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"time"

	"charitylottery/internal/models"
	"charitylottery/internal/services"

	"github.com/google/logger"
	"github.com/robfig/cron/v3"
)

// Drawer is the part of the lottery the scheduler drives.
type Drawer interface {
	AdvanceDraw(ctx context.Context) (models.DrawRecorder, error)
	DrawWinningNumbers(ctx context.Context) (models.WinningNumbers, error)
}

// Scheduler advances the draw and draws its numbers on every tick.
type Scheduler struct {
	cron    *cron.Cron
	drawer  Drawer
	timeout time.Duration
}

// New creates a scheduler that runs on spec, a standard five-field cron
// expression or a descriptor such as "@daily".
func New(drawer Drawer, spec string) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		drawer:  drawer,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := RunDraw(ctx, s.drawer); err != nil {
		logger.Errorf("Scheduled draw failed: %v", err)
	}
}

// RunDraw starts the next draw and draws its winning numbers. If the epoch
// gate is still closed it only fills in numbers the current draw is missing.
func RunDraw(ctx context.Context, drawer Drawer) error {
	recorder, err := drawer.AdvanceDraw(ctx)
	switch {
	case errors.Is(err, services.ErrNotTimeYet):
		logger.Infof("Draw not advanced: %v", err)
	case err != nil:
		return err
	default:
		logger.Infof("Scheduled advance to draw %d", recorder.DrawNumber)
	}

	_, err = drawer.DrawWinningNumbers(ctx)
	if errors.Is(err, services.ErrAlreadyDrawn) || errors.Is(err, services.ErrDrawNotStarted) {
		return nil
	}
	return err
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running draw to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
