package quest

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"dailyquests/internal/host"
	"dailyquests/internal/model"
	"dailyquests/internal/telemetry"
)

// Accept marks a task accepted. Unknown or already accepted tasks are left alone.
func (s *Service) Accept(ctx context.Context, id int) error {
	t := s.find(id)
	if t == nil || t.Accepted {
		return nil
	}
	t.Accepted = true
	s.taskLog(t).Debug("task accepted")
	s.rec.Record(telemetry.EventTaskAccepted, t.Category.String(), telemetry.EventMetadata{
		"task_id":    t.ID,
		"difficulty": t.Difficulty.String(),
	})
	return s.persist(ctx)
}

// Abandon un-accepts a task and discards its progress.
// Finished or unaccepted tasks are left alone.
func (s *Service) Abandon(ctx context.Context, id int) error {
	t := s.find(id)
	if t == nil || !t.Accepted || t.Finished {
		return nil
	}
	lost := t.Progress
	t.Accepted = false
	t.Progress = 0
	s.taskLog(t).Debug("task abandoned", zap.Int("lost_progress", lost))
	s.rec.Record(telemetry.EventTaskAbandoned, t.Category.String(), telemetry.EventMetadata{
		"task_id":       t.ID,
		"lost_progress": lost,
	})
	return s.persist(ctx)
}

// SubmitItemsForTask hands owned, unequipped items of the target type in
// towards a submit task and returns how many were consumed.
func (s *Service) SubmitItemsForTask(ctx context.Context, id int) (int, error) {
	t := s.find(id)
	if t == nil || t.Category != model.SubmitItem || !t.Active() {
		return 0, nil
	}

	inv := s.host.Inventory
	items := inv.FindItemsOwnedByPlayer(func(it host.Item) bool {
		return it.TypeID() == t.TargetItemID && !inv.IsEquipped(it)
	})

	need := t.Remaining()
	consumed := 0
	for _, it := range items {
		if consumed >= need {
			break
		}
		take := min(it.StackCount(), need-consumed)
		if take <= 0 {
			continue
		}
		if it.StackCount() > take {
			it.SetStackCount(it.StackCount() - take)
		} else {
			it.Destroy()
		}
		consumed += take
	}
	if consumed == 0 {
		return 0, nil
	}

	finished := t.AddProgress(consumed)
	s.rec.Record(telemetry.EventItemsSubmitted, t.Category.String(), telemetry.EventMetadata{
		"task_id":  t.ID,
		"consumed": consumed,
	})
	s.notify(progressMessage(t, s.host.Items))
	if finished {
		s.complete(t)
	}
	return consumed, s.persist(ctx)
}

// ClaimReward grants a finished task's frozen reward and removes the task.
func (s *Service) ClaimReward(ctx context.Context, id int) error {
	t := s.find(id)
	if t == nil || !t.Finished || t.RewardClaimed {
		return nil
	}

	s.grant(t)
	t.RewardClaimed = true
	claimed := t.Clone()
	s.tasks = slices.DeleteFunc(s.tasks, func(x model.Task) bool { return x.ID == id })

	s.taskLog(&claimed).Info("reward claimed",
		zap.Int("cash", claimed.RewardCashAmount),
		zap.Int("exp", claimed.RewardExpAmount),
		zap.Int("items", len(claimed.RewardItems)))
	s.rec.Record(telemetry.EventRewardClaimed, claimed.Category.String(), telemetry.EventMetadata{
		"task_id":    claimed.ID,
		"difficulty": claimed.Difficulty.String(),
		"cash":       claimed.RewardCashAmount,
		"exp":        claimed.RewardExpAmount,
	})
	if err := s.persist(ctx); err != nil {
		return err
	}
	s.notify("Daily task reward claimed")
	return nil
}

// grant sends cash as one stack, experience, and each reward item. Stackable
// items arrive as one stack, others as single instances.
func (s *Service) grant(t *model.Task) {
	econ := s.host.Economy

	if t.RewardCashAmount > 0 {
		if cash := econ.InstantiateItem(econ.CashItemTypeID()); cash != nil {
			cash.SetStackCount(t.RewardCashAmount)
			econ.SendToPlayer(cash)
			s.notify(fmt.Sprintf("Reward: cash %d", t.RewardCashAmount))
		}
	}
	if t.RewardExpAmount > 0 {
		econ.AddExperience(t.RewardExpAmount)
		s.notify(fmt.Sprintf("Reward: EXP %d", t.RewardExpAmount))
	}

	for _, ri := range t.RewardItems {
		count := max(1, ri.Count)
		meta := s.host.Items.GetMetaData(ri.TypeID)
		if !meta.Valid() {
			s.taskLog(t).Warn("skipping reward item that no longer resolves", zap.Int("item_id", ri.TypeID))
			continue
		}

		first := econ.InstantiateItem(ri.TypeID)
		if first == nil {
			continue
		}
		if meta.Stackable {
			first.SetStackCount(count)
			econ.SendToPlayer(first)
		} else {
			first.SetStackCount(1)
			econ.SendToPlayer(first)
			for k := 1; k < count; k++ {
				if extra := econ.InstantiateItem(ri.TypeID); extra != nil {
					extra.SetStackCount(1)
					econ.SendToPlayer(extra)
				}
			}
		}
		s.notify(fmt.Sprintf("Reward: item %s x%d", meta.DisplayName, count))
	}
}

// complete announces a task that just finished.
func (s *Service) complete(t *model.Task) {
	s.taskLog(t).Info("task finished")
	s.rec.Record(telemetry.EventTaskFinished, t.Category.String(), telemetry.EventMetadata{
		"task_id":    t.ID,
		"difficulty": t.Difficulty.String(),
	})
	s.notify("Task complete: " + t.Title)
}
