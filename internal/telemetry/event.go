package telemetry

import "time"

type EventType string

const (
	EventTaskAccepted     EventType = "task_accepted"
	EventTaskAbandoned    EventType = "task_abandoned"
	EventTaskProgressed   EventType = "task_progressed"
	EventTaskFinished     EventType = "task_finished"
	EventItemsSubmitted   EventType = "items_submitted"
	EventRewardClaimed    EventType = "reward_claimed"
	EventPoolRegenerated  EventType = "pool_regenerated"
	EventDayRollover      EventType = "day_rollover"
	EventTaskEvicted      EventType = "task_evicted"
	EventSaveMigrated     EventType = "save_migrated"
	EventRewardBackfilled EventType = "reward_backfilled"
)

type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
