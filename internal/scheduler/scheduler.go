// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package scheduler wraps github.com/go-co-op/gocron/v2 to drive periodic
// SendData/SendDeviceData publishes for a Node, the optional sugar described
// for applications that want a fixed-interval publisher instead of
// publishing from their own control loop.
package scheduler

import (
	"context"
	"fmt"
	"time"

	gocron "github.com/go-co-op/gocron/v2"

	"github.com/edgesparkplug/edge-client/pkg/log"
)

// PublishFunc performs one scheduled publish; a non-nil error is logged but
// never stops the schedule.
type PublishFunc func(ctx context.Context) error

// Scheduler runs zero or more periodic publish jobs on a single
// gocron.Scheduler. It is not itself a Node concept: callers register one
// job per Node (or per device) they want published on a fixed cadence.
type Scheduler struct {
	sched gocron.Scheduler
	log   *log.ComponentLogger
}

// New constructs a Scheduler. Call Shutdown when done to stop its
// background goroutine.
func New() (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("scheduler: create gocron scheduler: %w", err)
	}
	return &Scheduler{sched: sched, log: log.Component("scheduler")}, nil
}

// AddPeriodicPublish registers fn to run every interval, starting after the
// first interval elapses. name is used only for log messages.
func (s *Scheduler) AddPeriodicPublish(name string, interval time.Duration, fn PublishFunc) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := fn(context.Background()); err != nil {
				s.log.Warnf("periodic publish %q failed: %v", name, err)
			}
		}),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("scheduler: register job %q: %w", name, err)
	}
	return nil
}

// Start begins running registered jobs in the background.
func (s *Scheduler) Start() { s.sched.Start() }

// Shutdown stops the scheduler and waits for in-flight jobs to finish.
func (s *Scheduler) Shutdown() error {
	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("scheduler: shutdown: %w", err)
	}
	return nil
}
