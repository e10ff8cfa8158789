// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package services

import (
	"context"
	"time"

	"github.com/wonhongChang/jerrygram-recommend/internal/logging"
	"github.com/wonhongChang/jerrygram-recommend/internal/metrics"
)

// Sweeper is the part of the in-process cache the janitor drives.
type Sweeper interface {
	Sweep() int
}

// JanitorService periodically sweeps expired entries out of the
// in-process cache tier. It owns no goroutines of its own; the
// supervisor restarts it if Serve ever returns unexpectedly.
type JanitorService struct {
	sweeper  Sweeper
	interval time.Duration
}

// NewJanitorService builds the janitor. interval values <= 0 default
// to 30 minutes.
func NewJanitorService(sweeper Sweeper, interval time.Duration) *JanitorService {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &JanitorService{sweeper: sweeper, interval: interval}
}

// Serve implements suture.Service.
func (j *JanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed := j.sweeper.Sweep()
			if removed > 0 {
				metrics.CacheSweepRemoved.Add(float64(removed))
				logging.Debug().Int("removed", removed).Msg("cache sweep")
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (j *JanitorService) String() string {
	return "cache-janitor"
}
