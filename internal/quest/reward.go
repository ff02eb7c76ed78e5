package quest

import (
	"math"
	"math/rand/v2"

	"dailyquests/internal/config"
	"dailyquests/internal/host"
	"dailyquests/internal/model"
)

// Spend rewards may never exceed these fractions of the required spend.
const (
	spendCashCapPercent = 35
	spendExpCapPercent  = 50
)

type rewardBand struct {
	cash, exp amountRange
}

var rewardBands = [...]rewardBand{
	model.Easy:   {cash: amountRange{2000, 5000}, exp: amountRange{1000, 2100}},
	model.Normal: {cash: amountRange{5000, 9000}, exp: amountRange{2200, 3000}},
	model.Hard:   {cash: amountRange{11000, 19000}, exp: amountRange{3100, 3800}},
	model.Epic:   {cash: amountRange{21000, 29000}, exp: amountRange{4100, 4800}},
}

var spendBand = rewardBand{cash: amountRange{500, 2999}, exp: amountRange{200, 1499}}

var ammoRewardCounts = [...][]int{
	model.Easy:   {30, 35, 40},
	model.Normal: {42, 55, 60},
	model.Hard:   {62, 68, 75},
	model.Epic:   {76, 80, 88},
}

const (
	highValueAmmoCount   = 30
	highValueRewardCount = 1
	maxGenericCount      = 10
)

// RewardAssignor computes and freezes a task's reward.
type RewardAssignor struct {
	cat  *config.Catalog
	host host.Host
	rng  *rand.Rand
}

func NewRewardAssignor(cat *config.Catalog, h host.Host, rng *rand.Rand) *RewardAssignor {
	return &RewardAssignor{cat: cat, host: h, rng: rng}
}

// Assign overwrites t's cash, experience, item list and preview text.
func (a *RewardAssignor) Assign(t *model.Task) {
	d := t.Difficulty
	if d < model.Easy || d > model.Epic {
		d = model.Normal
	}

	if t.Category == model.SpendCashAtMerchant {
		mult := d.Multiplier()
		cash := int(math.Round(float64(between(a.rng, spendBand.cash.lo, spendBand.cash.hi)) * mult))
		exp := int(math.Round(float64(between(a.rng, spendBand.exp.lo, spendBand.exp.hi)) * mult))
		t.RewardCashAmount = min(cash, t.RequiredAmount*spendCashCapPercent/100)
		t.RewardExpAmount = min(exp, t.RequiredAmount*spendExpCapPercent/100)
	} else {
		b := rewardBands[d]
		t.RewardCashAmount = between(a.rng, b.cash.lo, b.cash.hi)
		t.RewardExpAmount = between(a.rng, b.exp.lo, b.exp.hi)
	}

	t.RewardItems = a.items(t, d)
	t.RewardPreviewText = RewardPreview(t, a.host.Items)
}

func (a *RewardAssignor) items(t *model.Task, d model.Difficulty) []model.RewardItem {
	pool := a.pool(d)

	n := between(a.rng, 1, 3)
	switch d {
	case model.Hard:
		n++
	case model.Epic:
		n += 2
	}

	out := make([]model.RewardItem, 0, n)
	for range n {
		typeID := a.pickItem(t, pool)
		if typeID <= 0 {
			continue
		}
		out = append(out, model.RewardItem{TypeID: typeID, Count: a.count(typeID, d)})
	}
	return out
}

// pool lists candidate reward types. High-value entries are Epic-only.
func (a *RewardAssignor) pool(d model.Difficulty) []int {
	var pool []int
	for _, id := range a.cat.AllowedRewardItemIDs.Sorted() {
		if d != model.Epic && a.cat.IsHighValue(id) {
			continue
		}
		pool = append(pool, id)
	}
	if len(pool) == 0 {
		pool = a.host.Economy.UnlockedItemIDs()
	}
	return pool
}

func (a *RewardAssignor) pickItem(t *model.Task, pool []int) int {
	if len(pool) > 0 {
		return pick(a.rng, pool)
	}
	if t.TargetItemID > 0 {
		return t.TargetItemID
	}
	owned := a.host.Inventory.FindItemsOwnedByPlayer(nil)
	if len(owned) == 0 {
		return 0
	}
	return pick(a.rng, owned).TypeID()
}

func (a *RewardAssignor) count(typeID int, d model.Difficulty) int {
	switch {
	case a.cat.HighValueAmmoIDs.Has(typeID):
		return highValueAmmoCount
	case a.cat.IsAmmo(typeID):
		return pick(a.rng, ammoRewardCounts[d])
	case a.cat.HighValueRewardItemIDs.Has(typeID):
		return highValueRewardCount
	}
	n := int(math.Round(float64(between(a.rng, 1, 3)) * d.Multiplier()))
	return max(1, min(n, maxGenericCount))
}
