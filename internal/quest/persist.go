package quest

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"dailyquests/internal/model"
	"dailyquests/internal/save"
	"dailyquests/internal/storage"
	"dailyquests/internal/telemetry"
)

// persist writes the working set. The stored date is the day the set was generated for.
func (s *Service) persist(ctx context.Context) error {
	s.rec.SetWorkingSet(len(s.tasks))

	blob, err := save.Encode(save.State{Date: s.lastSavedDate, Tasks: s.tasks})
	if err != nil {
		s.rec.SaveFailed()
		return fmt.Errorf("encode daily tasks: %w", err)
	}
	if err := s.store.Save(ctx, s.ns, s.key, blob); err != nil {
		s.rec.SaveFailed()
		s.log.Warn("save daily tasks", zap.String("namespace", s.ns), zap.String("key", s.key), zap.Error(err))
		return fmt.Errorf("save daily tasks: %w", err)
	}
	return nil
}

// load replaces the working set with the stored one. Missing or unreadable
// saves leave an empty set so the next rollover check regenerates it.
func (s *Service) load(ctx context.Context) {
	s.tasks = nil
	s.lastSavedDate = ""

	blob, err := s.store.Load(ctx, s.ns, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.log.Debug("no daily task save", zap.String("namespace", s.ns), zap.String("key", s.key))
		} else {
			s.log.Warn("load daily tasks", zap.Error(err))
		}
		return
	}

	f, err := save.Decode(blob)
	if err != nil {
		s.log.Warn("daily task save is unreadable, starting fresh", zap.Error(err))
		return
	}

	version := save.Detect(f)
	st := save.Migrate(f)
	if version != save.VersionCurrent && version != save.VersionEmpty {
		s.log.Info("migrated daily task save",
			zap.Stringer("from", version),
			zap.Int("tasks", len(st.Tasks)))
		s.rec.Record(telemetry.EventSaveMigrated, "", telemetry.EventMetadata{
			"from":  version.String(),
			"tasks": len(st.Tasks),
		})
	}

	seen := model.NewIDSet()
	for _, t := range st.Tasks {
		if seen.Has(t.ID) {
			s.log.Warn("dropping duplicate task from save", zap.Int("task_id", t.ID))
			continue
		}
		seen.Add(t.ID)
		if t.Title == "" {
			applyText(&t, s.host.Items, s.cat.TargetMerchant)
		}
		s.tasks = append(s.tasks, t)
	}
	s.lastSavedDate = st.Date
	s.rec.SetWorkingSet(len(s.tasks))
}

// backfill re-assigns rewards for tasks whose frozen reward is incomplete or
// references items that no longer resolve.
func (s *Service) backfill(ctx context.Context) error {
	changed := false
	for i := range s.tasks {
		t := &s.tasks[i]

		need := t.RewardCashAmount <= 0 || t.RewardExpAmount <= 0
		before := len(t.RewardItems)
		t.RewardItems = slices.DeleteFunc(t.RewardItems, func(ri model.RewardItem) bool {
			return !s.host.Items.GetMetaData(ri.TypeID).Valid()
		})
		if len(t.RewardItems) != before {
			t.RewardPreviewText = RewardPreview(t, s.host.Items)
			changed = true
		}
		if len(t.RewardItems) == 0 {
			need = true
		}
		if !need {
			continue
		}

		s.rewards.Assign(t)
		changed = true
		s.taskLog(t).Debug("backfilled reward")
		s.rec.Record(telemetry.EventRewardBackfilled, t.Category.String(), telemetry.EventMetadata{"task_id": t.ID})
	}
	if !changed {
		return nil
	}
	return s.persist(ctx)
}
