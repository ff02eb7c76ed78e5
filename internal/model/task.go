package model

import "slices"

// Category is the kind of objective a daily task tracks.
// Values are persisted as integers; do not reorder.
type Category int

const (
	UseItem Category = iota
	KillEnemy
	SubmitItem
	SpendCashAtMerchant
	ChallengeKill
)

func (c Category) String() string {
	switch c {
	case UseItem:
		return "use_item"
	case KillEnemy:
		return "kill_enemy"
	case SubmitItem:
		return "submit_item"
	case SpendCashAtMerchant:
		return "spend_cash"
	case ChallengeKill:
		return "challenge_kill"
	default:
		return "unknown"
	}
}

// Categories lists every category in generation order.
var Categories = []Category{UseItem, SubmitItem, KillEnemy, ChallengeKill, SpendCashAtMerchant}

// Difficulty drives reward scale and quota bucketing.
type Difficulty int

const (
	Easy Difficulty = iota
	Normal
	Hard
	Epic
)

// Difficulties lists tiers in quota fill order.
var Difficulties = []Difficulty{Easy, Normal, Hard, Epic}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Normal:
		return "normal"
	case Hard:
		return "hard"
	case Epic:
		return "epic"
	default:
		return "unknown"
	}
}

// Multiplier scales reward amounts by tier.
func (d Difficulty) Multiplier() float64 {
	switch d {
	case Normal:
		return 1.25
	case Hard:
		return 1.6
	case Epic:
		return 2.0
	default:
		return 1.0
	}
}

type RewardItem struct {
	TypeID int `json:"typeId"`
	Count  int `json:"count"`
}

type Task struct {
	ID       int      `json:"id"`
	Category Category `json:"type"`

	TargetItemID            int    `json:"targetItemId"`
	RequiredWeaponItemID    int    `json:"requiredWeaponItemId"`
	RequireEnemyKey         string `json:"requireEnemyNameKey"`
	RequireEnemyDisplayName string `json:"requireEnemyDisplayName"`

	RequiredAmount int        `json:"requiredAmount"`
	Progress       int        `json:"progress"`
	Difficulty     Difficulty `json:"difficulty"`

	Accepted      bool `json:"accepted"`
	Finished      bool `json:"finished"`
	RewardClaimed bool `json:"rewardClaimed"`

	// Title and Description are derived from the fields above and may be regenerated.
	Title       string `json:"title"`
	Description string `json:"description"`

	RewardCashAmount  int          `json:"rewardCashAmount"`
	RewardExpAmount   int          `json:"rewardExpAmount"`
	RewardItems       []RewardItem `json:"rewardItems"`
	RewardPreviewText string       `json:"rewardPreviewText"`
}

// Retained reports whether the task survives a regeneration.
func (t *Task) Retained() bool {
	return t.Accepted || (t.Finished && !t.RewardClaimed)
}

// Active reports whether events may still move the task forward.
func (t *Task) Active() bool {
	return t.Accepted && !t.Finished
}

// Remaining is the amount still needed to finish.
func (t *Task) Remaining() int {
	if r := t.RequiredAmount - t.Progress; r > 0 {
		return r
	}
	return 0
}

// AddProgress increments progress capped at RequiredAmount and reports
// whether this call moved the task to finished.
func (t *Task) AddProgress(delta int) bool {
	if delta <= 0 || t.Finished {
		return false
	}
	t.Progress = min(t.RequiredAmount, t.Progress+delta)
	if t.Progress >= t.RequiredAmount {
		t.Finished = true
		return true
	}
	return false
}

// Normalize clamps progress and restores the flag invariants after a load.
func (t *Task) Normalize() {
	if t.RequiredAmount > 0 {
		t.Progress = max(0, min(t.Progress, t.RequiredAmount))
		if t.Progress >= t.RequiredAmount {
			t.Finished = true
		}
	}
	if t.RewardClaimed {
		t.Finished = true
	}
}

// Clone returns a copy that shares no memory with t.
func (t Task) Clone() Task {
	t.RewardItems = slices.Clone(t.RewardItems)
	return t
}

// HasValidReward reports whether the frozen reward looks complete.
func (t *Task) HasValidReward() bool {
	return t.RewardCashAmount > 0 && t.RewardExpAmount > 0 && len(t.RewardItems) > 0
}
