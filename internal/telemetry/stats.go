package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period           string            `json:"period"`
	EventCounts      map[EventType]int `json:"event_counts"`
	Accepted         int               `json:"accepted"`
	Finished         int               `json:"finished"`
	Claimed          int               `json:"claimed"`
	Evicted          int               `json:"evicted"`
	Rollovers        int               `json:"rollovers"`
	ClaimedPerDay    float64           `json:"claimed_per_day"`
	CashRewarded     int               `json:"cash_rewarded"`
	ExpRewarded      int               `json:"exp_rewarded"`
	FinishedByTier   map[string]int    `json:"finished_by_tier"`
	ClaimedByKind    map[string]int    `json:"claimed_by_category"`
	CompletionRatePc float64           `json:"completion_rate_pct"`
}

// CalculateStats summarizes lifecycle events for balance tuning.
func CalculateStats(events []Event, since time.Time) (Stats, error) {
	stats := Stats{
		Period:         since.Format("2006-01-02"),
		EventCounts:    make(map[EventType]int),
		FinishedByTier: make(map[string]int),
		ClaimedByKind:  make(map[string]int),
	}

	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}

		switch event.Type {
		case EventTaskAccepted:
			stats.Accepted++
		case EventTaskFinished:
			stats.Finished++
			if tier, ok := metadata["difficulty"].(string); ok {
				stats.FinishedByTier[tier]++
			}
		case EventRewardClaimed:
			stats.Claimed++
			if kind, ok := metadata["category"].(string); ok {
				stats.ClaimedByKind[kind]++
			}
			// JSON numbers decode as float64
			if cash, ok := metadata["cash"].(float64); ok {
				stats.CashRewarded += int(cash)
			}
			if exp, ok := metadata["exp"].(float64); ok {
				stats.ExpRewarded += int(exp)
			}
		case EventTaskEvicted:
			stats.Evicted++
		case EventDayRollover:
			stats.Rollovers++
		}
	}

	if stats.Rollovers > 0 {
		stats.ClaimedPerDay = float64(stats.Claimed) / float64(stats.Rollovers)
	}
	if stats.Accepted > 0 {
		stats.CompletionRatePc = 100 * float64(stats.Finished) / float64(stats.Accepted)
	}

	return stats, nil
}
