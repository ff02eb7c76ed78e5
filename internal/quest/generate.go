package quest

import (
	"math/rand/v2"

	"dailyquests/internal/config"
	"dailyquests/internal/host"
	"dailyquests/internal/model"
)

// WeaponTag marks owned items that can be required by a challenge kill.
const WeaponTag = "Weapon"

const cashSubmitMax = 2

// Generator builds candidate tasks for one refresh cycle.
type Generator struct {
	cat     *config.Catalog
	host    host.Host
	rng     *rand.Rand
	rewards *RewardAssignor
}

func NewGenerator(cat *config.Catalog, h host.Host, rng *rand.Rand, rewards *RewardAssignor) *Generator {
	return &Generator{cat: cat, host: h, rng: rng, rewards: rewards}
}

// BuildPool returns a shuffled candidate list, one per eligible target,
// never containing an ID from exclude.
func (g *Generator) BuildPool(exclude model.IDSet) []model.Task {
	if exclude == nil {
		exclude = model.NewIDSet()
	}

	var pool []model.Task
	pool = append(pool, g.useAndSubmit(g.sourceItems(), exclude)...)
	pool = append(pool, g.kills(exclude)...)
	pool = append(pool, g.challenges(exclude)...)
	pool = append(pool, g.spends(exclude)...)

	if !hasCategory(pool, model.SubmitItem) {
		if t, ok := g.cashSubmit(); ok && !exclude.Has(t.ID) {
			pool = append(pool, t)
		}
	}

	shuffle(g.rng, pool)
	return pool
}

// sourceItems is the unlocked-by-default list, or the distinct owned types when that is empty.
func (g *Generator) sourceItems() []int {
	if ids := g.host.Economy.UnlockedItemIDs(); len(ids) > 0 {
		return ids
	}
	seen := model.NewIDSet()
	var ids []int
	for _, it := range g.host.Inventory.FindItemsOwnedByPlayer(nil) {
		if seen.Has(it.TypeID()) {
			continue
		}
		seen.Add(it.TypeID())
		ids = append(ids, it.TypeID())
	}
	return ids
}

func (g *Generator) useAndSubmit(source []int, exclude model.IDSet) []model.Task {
	var out []model.Task
	for _, itemID := range source {
		if g.cat.AllowedUseItemIDs.Has(itemID) {
			if id := model.TaskID(model.UseItem, itemID); !exclude.Has(id) {
				d := pickTier(roll(g.rng), 33, 66)
				r, d := canonicalRange(model.UseItem, d, false)
				out = append(out, g.finish(model.Task{
					ID:             id,
					Category:       model.UseItem,
					TargetItemID:   itemID,
					RequiredAmount: between(g.rng, r.lo, r.hi),
					Difficulty:     d,
				}))
			}
		}

		if g.cat.AllowedSubmitItemIDs.Has(itemID) {
			if id := model.TaskID(model.SubmitItem, itemID); !exclude.Has(id) {
				ammo := g.cat.IsAmmo(itemID)
				var d model.Difficulty
				if ammo {
					d = pickTier(roll(g.rng), 40, 75)
				} else {
					d = pickTier(roll(g.rng), 25, 55, 85)
				}
				r, d := canonicalRange(model.SubmitItem, d, ammo)
				if !ammo && d == model.Easy {
					r.lo = 2
				}
				out = append(out, g.finish(model.Task{
					ID:             id,
					Category:       model.SubmitItem,
					TargetItemID:   itemID,
					RequiredAmount: between(g.rng, r.lo, r.hi),
					Difficulty:     d,
				}))
			}
		}
	}
	return out
}

func (g *Generator) eligibleEnemies() []host.EnemyPreset {
	var out []host.EnemyPreset
	for _, p := range g.host.Enemies.EnemyPresets() {
		if g.cat.EnemyAllowed(p) {
			out = append(out, p)
		}
	}
	return out
}

func (g *Generator) kills(exclude model.IDSet) []model.Task {
	var out []model.Task
	offset := g.rng.IntN(g.cat.KillOffsetSpread)
	for _, p := range g.eligibleEnemies() {
		id := model.TaskID(model.KillEnemy, offset)
		offset++
		if exclude.Has(id) {
			continue
		}

		var n int
		if g.cat.IsBoss(p.NameKey, p.DisplayName) {
			r, _ := canonicalRange(model.KillEnemy, model.Epic, false)
			n = between(g.rng, r.lo, r.hi)
		} else {
			r, _ := canonicalRange(model.KillEnemy, pickTier(roll(g.rng), 30, 70), false)
			n = between(g.rng, r.lo, r.hi)
		}

		t := model.Task{
			ID:                      id,
			Category:                model.KillEnemy,
			RequireEnemyKey:         p.NameKey,
			RequireEnemyDisplayName: p.DisplayName,
			RequiredAmount:          n,
		}
		t.Difficulty = AssignDifficulty(&t, g.cat)
		out = append(out, g.finish(t))
	}
	return out
}

// ownedWeapons lists distinct owned item types tagged as weapons, in inventory order.
func (g *Generator) ownedWeapons() []int {
	seen := model.NewIDSet()
	var ids []int
	for _, it := range g.host.Inventory.FindItemsOwnedByPlayer(func(it host.Item) bool {
		return host.HasTag(it, WeaponTag)
	}) {
		if seen.Has(it.TypeID()) {
			continue
		}
		seen.Add(it.TypeID())
		ids = append(ids, it.TypeID())
	}
	return ids
}

func (g *Generator) challenges(exclude model.IDSet) []model.Task {
	weapons := g.ownedWeapons()
	if len(weapons) == 0 {
		return nil
	}

	var out []model.Task
	offset := g.rng.IntN(g.cat.KillOffsetSpread)
	for _, p := range g.eligibleEnemies() {
		id := model.TaskID(model.ChallengeKill, offset)
		offset++
		if exclude.Has(id) {
			continue
		}

		weapon := pick(g.rng, weapons)
		d := model.Epic
		if !g.cat.IsBoss(p.NameKey, p.DisplayName) {
			d = pickTier(roll(g.rng), 25, 65)
		}
		r, d := canonicalRange(model.ChallengeKill, d, false)

		out = append(out, g.finish(model.Task{
			ID:                      id,
			Category:                model.ChallengeKill,
			TargetItemID:            weapon,
			RequiredWeaponItemID:    weapon,
			RequireEnemyKey:         p.NameKey,
			RequireEnemyDisplayName: p.DisplayName,
			RequiredAmount:          between(g.rng, r.lo, r.hi),
			Difficulty:              d,
		}))
	}
	return out
}

func (g *Generator) spends(exclude model.IDSet) []model.Task {
	var out []model.Task
	cash := g.host.Economy.CashItemTypeID()
	for slot := range g.cat.SpendSlots {
		id := model.TaskID(model.SpendCashAtMerchant, slot)
		if exclude.Has(id) {
			continue
		}
		r, d := canonicalRange(model.SpendCashAtMerchant, pickTier(roll(g.rng), 30, 65), false)
		out = append(out, g.finish(model.Task{
			ID:             id,
			Category:       model.SpendCashAtMerchant,
			TargetItemID:   cash,
			RequiredAmount: between(g.rng, r.lo, r.hi),
			Difficulty:     d,
		}))
	}
	return out
}

// cashSubmit synthesizes the fallback submit task used when no submit target is eligible.
func (g *Generator) cashSubmit() (model.Task, bool) {
	cash := g.host.Economy.CashItemTypeID()
	if cash <= 0 {
		return model.Task{}, false
	}
	t := model.Task{
		ID:             model.TaskID(model.SubmitItem, cash),
		Category:       model.SubmitItem,
		TargetItemID:   cash,
		RequiredAmount: between(g.rng, 1, cashSubmitMax),
		Difficulty:     model.Easy,
	}
	applyText(&t, g.host.Items, g.cat.TargetMerchant)
	g.rewards.Assign(&t)
	return t, true
}

// finish reconciles amount and tier, then derives text and reward.
func (g *Generator) finish(t model.Task) model.Task {
	AdjustByDifficulty(&t, g.cat)
	applyText(&t, g.host.Items, g.cat.TargetMerchant)
	g.rewards.Assign(&t)
	return t
}

// pickTier maps a percentile roll onto Easy, Normal, ... using ascending exclusive thresholds.
func pickTier(r int, thresholds ...int) model.Difficulty {
	for i, th := range thresholds {
		if r < th {
			return model.Difficulty(i)
		}
	}
	return model.Difficulty(len(thresholds))
}

func hasCategory(tasks []model.Task, c model.Category) bool {
	for i := range tasks {
		if tasks[i].Category == c {
			return true
		}
	}
	return false
}
