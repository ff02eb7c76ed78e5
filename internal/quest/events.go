package quest

import (
	"context"

	"go.uber.org/zap"

	"dailyquests/internal/model"
	"dailyquests/internal/telemetry"
)

// ItemUsed is delivered when any character uses an item.
type ItemUsed struct {
	ItemTypeID      int
	ByMainCharacter bool
}

// EntityDeath is delivered when a character dies.
type EntityDeath struct {
	VictimNameKey      string
	VictimDisplayName  string
	VictimOnPlayerTeam bool
	ByMainCharacter    bool
	WeaponItemID       int
}

// MerchantPurchase is delivered after the player pays a merchant.
type MerchantPurchase struct {
	Merchant string
	Amount   int
}

// OnItemUsed advances use tasks targeting the item. Uses by other characters are ignored.
func (s *Service) OnItemUsed(ctx context.Context, ev ItemUsed) error {
	if !ev.ByMainCharacter {
		return nil
	}
	_, err := s.RecordProgress(ctx, model.UseItem, func(t *model.Task) bool {
		return t.TargetItemID == ev.ItemTypeID
	}, 1)
	return err
}

// OnEntityDeath advances kill and challenge tasks. Deaths on the player's team
// and kills not made by the main character are ignored.
func (s *Service) OnEntityDeath(ctx context.Context, ev EntityDeath) error {
	if ev.VictimOnPlayerTeam || !ev.ByMainCharacter {
		return nil
	}
	allowed := s.cat.AllowedEnemyNames.Has(ev.VictimDisplayName) || s.cat.AllowedEnemyNames.Has(ev.VictimNameKey)

	matchEnemy := func(t *model.Task) bool {
		if t.RequireEnemyKey != "" {
			return t.RequireEnemyKey == ev.VictimNameKey
		}
		return allowed
	}

	if _, err := s.RecordProgress(ctx, model.KillEnemy, matchEnemy, 1); err != nil {
		return err
	}
	_, err := s.RecordProgress(ctx, model.ChallengeKill, func(t *model.Task) bool {
		return matchEnemy(t) && t.RequiredWeaponItemID == ev.WeaponItemID
	}, 1)
	return err
}

// OnPurchase advances spend tasks by the cash paid to the configured merchant.
func (s *Service) OnPurchase(ctx context.Context, ev MerchantPurchase) error {
	if ev.Merchant != s.cat.TargetMerchant || ev.Amount <= 0 {
		return nil
	}
	_, err := s.RecordProgress(ctx, model.SpendCashAtMerchant, func(*model.Task) bool { return true }, ev.Amount)
	return err
}

// OnMerchantPurchase records cash spent at the configured merchant.
func (s *Service) OnMerchantPurchase(ctx context.Context, amount int) error {
	return s.OnPurchase(ctx, MerchantPurchase{Merchant: s.cat.TargetMerchant, Amount: amount})
}

// RecordProgress adds delta to every active task of category c that match
// accepts, and persists if anything moved. It returns the number of tasks
// advanced. Calls made while another update is being dispatched are dropped.
func (s *Service) RecordProgress(ctx context.Context, c model.Category, match func(*model.Task) bool, delta int) (int, error) {
	if delta <= 0 {
		return 0, nil
	}
	if s.dispatching {
		s.log.Warn("ignoring re-entrant progress update", zap.Stringer("category", c))
		return 0, nil
	}
	s.dispatching = true
	defer func() { s.dispatching = false }()

	advanced := 0
	for i := range s.tasks {
		t := &s.tasks[i]
		if t.Category != c || !t.Active() || !match(t) {
			continue
		}

		finished := t.AddProgress(delta)
		advanced++
		s.rec.Record(telemetry.EventTaskProgressed, c.String(), telemetry.EventMetadata{
			"task_id":  t.ID,
			"progress": t.Progress,
		})
		s.notify(progressMessage(t, s.host.Items))
		if finished {
			s.complete(t)
		}
	}
	if advanced == 0 {
		return 0, nil
	}
	return advanced, s.persist(ctx)
}
