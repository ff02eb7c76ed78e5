package quest

import (
	"dailyquests/internal/config"
	"dailyquests/internal/model"
)

// amountRange is an inclusive bound on RequiredAmount.
type amountRange struct{ lo, hi int }

func (r amountRange) clamp(n int) int {
	return max(r.lo, min(n, r.hi))
}

var ammoAmounts = [...]int{model.Easy: 60, model.Normal: 120, model.Hard: 180}

// canonicalRange is the authoritative amount range for a category and tier.
// Tiers a category cannot carry are folded into the nearest one it can,
// which is returned alongside the range.
func canonicalRange(c model.Category, d model.Difficulty, ammo bool) (amountRange, model.Difficulty) {
	switch c {
	case model.UseItem:
		switch d {
		case model.Easy:
			return amountRange{3, 8}, d
		case model.Normal:
			return amountRange{9, 14}, d
		default:
			return amountRange{15, 20}, model.Hard
		}

	case model.SubmitItem:
		if ammo {
			if d == model.Epic {
				d = model.Hard
			}
			n := ammoAmounts[d]
			return amountRange{n, n}, d
		}
		switch d {
		case model.Easy:
			return amountRange{1, 5}, d
		case model.Normal:
			return amountRange{6, 9}, d
		case model.Hard:
			return amountRange{10, 14}, d
		default:
			return amountRange{15, 25}, model.Epic
		}

	case model.KillEnemy:
		switch d {
		case model.Easy:
			return amountRange{3, 8}, d
		case model.Normal:
			return amountRange{9, 13}, d
		case model.Hard:
			return amountRange{14, 19}, d
		default:
			return amountRange{3, 9}, model.Epic
		}

	case model.ChallengeKill:
		switch d {
		case model.Easy:
			return amountRange{3, 7}, d
		case model.Normal:
			return amountRange{8, 12}, d
		case model.Hard:
			return amountRange{13, 18}, d
		default:
			return amountRange{3, 8}, model.Epic
		}

	case model.SpendCashAtMerchant:
		switch d {
		case model.Easy:
			return amountRange{10000, 25000}, d
		case model.Normal:
			return amountRange{30000, 65000}, d
		default:
			return amountRange{80000, 150000}, model.Hard
		}
	}
	return amountRange{1, 1}, d
}

// AssignDifficulty derives a tier from the task's amount. Boss targets are always Epic.
func AssignDifficulty(t *model.Task, cat *config.Catalog) model.Difficulty {
	n := t.RequiredAmount
	switch t.Category {
	case model.UseItem:
		return tierOf(n, 8, 14)

	case model.SubmitItem:
		if cat.IsAmmo(t.TargetItemID) {
			return tierOf(n, ammoAmounts[model.Easy], ammoAmounts[model.Normal])
		}
		return tierOf(n, 5, 9, 14)

	case model.KillEnemy:
		if cat.IsBoss(t.RequireEnemyKey, t.RequireEnemyDisplayName) {
			return model.Epic
		}
		return tierOf(n, 8, 13)

	case model.ChallengeKill:
		if cat.IsBoss(t.RequireEnemyKey, t.RequireEnemyDisplayName) {
			return model.Epic
		}
		return tierOf(n, 7, 12)

	case model.SpendCashAtMerchant:
		return tierOf(n, 25000, 65000)
	}
	return model.Normal
}

// tierOf maps n onto Easy, Normal, ... using ascending inclusive upper bounds.
func tierOf(n int, bounds ...int) model.Difficulty {
	for i, b := range bounds {
		if n <= b {
			return model.Difficulty(i)
		}
	}
	return model.Difficulty(len(bounds))
}

// AdjustByDifficulty clamps the amount into the canonical range of the task's tier.
func AdjustByDifficulty(t *model.Task, cat *config.Catalog) {
	r, d := canonicalRange(t.Category, t.Difficulty, cat.IsAmmo(t.TargetItemID))
	t.Difficulty = d
	t.RequiredAmount = r.clamp(t.RequiredAmount)
}
