package save

import (
	"dailyquests/internal/model"
)

// Default amounts for tasks rebuilt from bare IDs.
const (
	legacyUseAmount    = 2
	legacySubmitAmount = 3
	legacyKillAmount   = 5
	legacySpendAmount  = 10000
)

// Migrate converts any save generation into the current state. It never
// fails: fields it cannot interpret are dropped. Titles left empty are for
// the caller to regenerate.
func Migrate(f File) State {
	st := State{Date: f.Date}

	switch Detect(f) {
	case VersionEmpty:
		return st
	case VersionIDLists:
		st.Tasks = fromIDLists(f)
	default:
		st.Tasks = make([]model.Task, 0, len(f.TasksFull))
		for _, r := range f.TasksFull {
			st.Tasks = append(st.Tasks, fromRecord(r))
		}
	}

	for i := range st.Tasks {
		st.Tasks[i].Normalize()
	}
	return st
}

func fromRecord(r TaskRecord) model.Task {
	t := r.Task.Clone()
	if len(t.RewardItems) > 0 {
		return t
	}

	switch {
	case r.RewardItemTypeIDs != nil && len(r.RewardItemTypeIDs) == len(r.RewardItemCounts):
		t.RewardItems = make([]model.RewardItem, 0, len(r.RewardItemTypeIDs))
		for i, id := range r.RewardItemTypeIDs {
			t.RewardItems = append(t.RewardItems, model.RewardItem{TypeID: id, Count: r.RewardItemCounts[i]})
		}
	case r.RewardItemTypeID > 0 && r.RewardItemCount > 0:
		t.RewardItems = []model.RewardItem{{TypeID: r.RewardItemTypeID, Count: r.RewardItemCount}}
	}
	return t
}

func fromIDLists(f File) []model.Task {
	tasks := make([]model.Task, 0, len(f.QuestIDs))
	index := map[int]int{}
	for _, id := range f.QuestIDs {
		if _, dup := index[id]; dup {
			continue
		}
		t, ok := FromLegacyID(id)
		if !ok {
			continue
		}
		index[id] = len(tasks)
		tasks = append(tasks, t)
	}
	for _, id := range f.Accepted {
		if i, ok := index[id]; ok {
			tasks[i].Accepted = true
		}
	}
	for _, id := range f.Finished {
		if i, ok := index[id]; ok {
			tasks[i].Finished = true
			tasks[i].Progress = tasks[i].RequiredAmount
		}
	}
	return tasks
}

// FromLegacyID rebuilds a task from its ID alone. Challenge kills cannot be
// rebuilt because the required weapon is not encoded in the ID.
func FromLegacyID(id int) (model.Task, bool) {
	c, key, ok := model.CategoryOf(id)
	if !ok {
		return model.Task{}, false
	}

	t := model.Task{ID: id, Category: c, Difficulty: model.Easy}
	switch c {
	case model.UseItem:
		t.TargetItemID = key
		t.RequiredAmount = legacyUseAmount
	case model.SubmitItem:
		t.TargetItemID = key
		t.RequiredAmount = legacySubmitAmount
	case model.KillEnemy:
		t.RequiredAmount = legacyKillAmount
	case model.SpendCashAtMerchant:
		t.RequiredAmount = legacySpendAmount
	default:
		return model.Task{}, false
	}
	return t, true
}
