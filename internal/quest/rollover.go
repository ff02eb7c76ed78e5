package quest

import (
	"context"

	"go.uber.org/zap"

	"dailyquests/internal/host"
	"dailyquests/internal/model"
	"dailyquests/internal/telemetry"
)

// Initialize prunes the catalog, loads and repairs the save, then runs a
// rollover check. Later calls only run the rollover check.
func (s *Service) Initialize(ctx context.Context) error {
	if !s.initialized {
		if n := s.cat.Prune(s.host.Items, s.log); n > 0 {
			s.log.Warn("pruned unknown catalog items", zap.Int("removed", n))
		}
		s.currentDate = host.DateKey(s.clock.Now())
		s.load(ctx)
		if err := s.backfill(ctx); err != nil {
			return err
		}
		s.initialized = true
	}
	_, err := s.Tick(ctx)
	return err
}

// Tick regenerates the pool when the day changed or the set is empty.
// It reports whether a regeneration happened.
func (s *Service) Tick(ctx context.Context) (bool, error) {
	s.currentDate = host.DateKey(s.clock.Now())
	if len(s.tasks) > 0 && s.currentDate == s.lastSavedDate {
		return false, nil
	}

	from := s.lastSavedDate
	s.rollover()
	s.log.Info("daily tasks regenerated",
		zap.String("from", from),
		zap.String("date", s.currentDate),
		zap.Int("tasks", len(s.tasks)))
	s.rec.Record(telemetry.EventDayRollover, "", telemetry.EventMetadata{
		"from":  from,
		"date":  s.currentDate,
		"tasks": len(s.tasks),
	})
	return true, s.persist(ctx)
}

func (s *Service) rollover() {
	keep := s.evict(s.retained(), s.cat.RolloverFreeSlots)
	// Saves written under a larger capacity can still hold more finished tasks.
	if len(keep) > s.cat.Capacity {
		keep = keep[:s.cat.Capacity]
	}
	s.tasks = append(keep, s.assemble(keep)...)
	s.lastSavedDate = s.currentDate
}

// RefreshUnaccepted replaces every task that is not retained. When retained
// tasks fill the set, accepted unfinished ones are evicted newest first until
// RefreshFreeSlots slots are open.
func (s *Service) RefreshUnaccepted(ctx context.Context) error {
	keep := s.evict(s.retained(), s.cat.RefreshFreeSlots)
	if len(keep) >= s.cat.Capacity {
		s.tasks = keep[:s.cat.Capacity]
		return s.persist(ctx)
	}

	picks := s.assemble(keep)
	s.tasks = append(keep, picks...)
	s.log.Info("daily tasks refreshed", zap.Int("kept", len(keep)), zap.Int("new", len(picks)))
	s.rec.Record(telemetry.EventPoolRegenerated, "", telemetry.EventMetadata{
		"kept": len(keep),
		"new":  len(picks),
	})
	return s.persist(ctx)
}

// retained copies the tasks that survive a regeneration, in order.
func (s *Service) retained() []model.Task {
	var keep []model.Task
	for i := range s.tasks {
		if s.tasks[i].Retained() {
			keep = append(keep, s.tasks[i])
		}
	}
	return keep
}

// evict drops accepted unfinished tasks from the end of keep once keep has
// reached capacity, stopping when free slots are open. Finished tasks are
// never evicted, so the result may still be full.
func (s *Service) evict(keep []model.Task, free int) []model.Task {
	if len(keep) < s.cat.Capacity {
		return keep
	}
	limit := s.cat.Capacity - free
	for i := len(keep) - 1; i >= 0 && len(keep) > limit; i-- {
		t := keep[i]
		if !t.Accepted || t.Finished {
			continue
		}
		keep = append(keep[:i], keep[i+1:]...)
		s.taskLog(&t).Info("evicted accepted task to free slots", zap.Int("progress", t.Progress))
		s.rec.Record(telemetry.EventTaskEvicted, t.Category.String(), telemetry.EventMetadata{
			"task_id":  t.ID,
			"progress": t.Progress,
		})
	}
	return keep
}

func (s *Service) assemble(keep []model.Task) []model.Task {
	pool := s.gen.BuildPool(model.IDsOf(keep))
	quota := s.cat.QuotaFor(s.host.Player.Level())
	return Assemble(pool, keep, quota, s.cat.Capacity)
}
