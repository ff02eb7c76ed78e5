package quest

import (
	"dailyquests/internal/config"
	"dailyquests/internal/model"
)

// Assemble picks candidates to sit beside keep in a working set of the given capacity.
// Tiers are filled in order up to their quota shortfall, then any leftover capacity
// is backfilled from the remaining candidates. Picks never share an ID with keep or
// with each other, and keep plus picks never exceeds capacity. A tier that runs out
// of candidates leaves the set short.
func Assemble(candidates, keep []model.Task, quota config.Quota, capacity int) []model.Task {
	var used config.Quota
	for i := range keep {
		if d := keep[i].Difficulty; d >= model.Easy && d <= model.Epic {
			used[d]++
		}
	}

	taken := model.IDsOf(keep)
	var picks []model.Task

	take := func(match func(*model.Task) bool, n int) {
		n = min(n, capacity-len(keep)-len(picks))
		for i := 0; i < len(candidates) && n > 0; i++ {
			c := &candidates[i]
			if taken.Has(c.ID) || !match(c) {
				continue
			}
			picks = append(picks, *c)
			taken.Add(c.ID)
			n--
		}
	}

	for _, d := range model.Difficulties {
		need := max(0, quota.For(d)-used[d])
		take(func(t *model.Task) bool { return t.Difficulty == d }, need)
	}

	take(func(*model.Task) bool { return true }, capacity)
	return picks
}
