// Package save defines the persisted daily task formats and migrates older
// generations into the current one.
package save

import (
	"encoding/json"
	"errors"
	"fmt"

	"dailyquests/internal/model"
)

var ErrUnknownFormat = errors.New("unknown save format")

// Version identifies a save schema generation.
type Version int

const (
	// VersionEmpty is a blob with no task data at all.
	VersionEmpty Version = iota
	// VersionIDLists stores only bare task IDs plus accepted/finished ID lists.
	VersionIDLists
	// VersionSingleReward stores full task records with one reward item each.
	VersionSingleReward
	// VersionParallelRewards stores reward items as parallel type/count lists.
	VersionParallelRewards
	// VersionCurrent stores reward items as objects and carries every fallback field.
	VersionCurrent
)

func (v Version) String() string {
	switch v {
	case VersionEmpty:
		return "empty"
	case VersionIDLists:
		return "v1-id-lists"
	case VersionSingleReward:
		return "v2-single-reward"
	case VersionParallelRewards:
		return "v3-parallel-rewards"
	case VersionCurrent:
		return "v4"
	default:
		return fmt.Sprintf("v%d", int(v))
	}
}

// File is the union of every save generation's fields.
type File struct {
	Version  Version `json:"version,omitempty"`
	Date     string  `json:"date"`
	QuestIDs []int   `json:"questIds,omitempty"`
	Accepted []int   `json:"accepted,omitempty"`
	Finished []int   `json:"finished,omitempty"`

	TasksFull []TaskRecord `json:"tasksFull,omitempty"`
}

// TaskRecord is one persisted task with the legacy reward encodings alongside.
type TaskRecord struct {
	model.Task

	RewardItemTypeID  int   `json:"rewardItemTypeId,omitempty"`
	RewardItemCount   int   `json:"rewardItemCount,omitempty"`
	RewardItemTypeIDs []int `json:"rewardItemTypeIds,omitempty"`
	RewardItemCounts  []int `json:"rewardItemCounts,omitempty"`
}

// State is what the engine keeps between sessions.
type State struct {
	Date  string
	Tasks []model.Task
}

// Detect names the generation a decoded file belongs to.
func Detect(f File) Version {
	if f.Version != 0 {
		return f.Version
	}
	if len(f.TasksFull) > 0 {
		for _, r := range f.TasksFull {
			if r.RewardItemTypeIDs != nil || r.RewardItemCounts != nil {
				return VersionParallelRewards
			}
		}
		return VersionSingleReward
	}
	if len(f.QuestIDs) > 0 {
		return VersionIDLists
	}
	return VersionEmpty
}

// Decode parses a blob without migrating it.
func Decode(blob []byte) (File, error) {
	var f File
	if err := json.Unmarshal(blob, &f); err != nil {
		return File{}, fmt.Errorf("decode save: %w", err)
	}
	if f.Version > VersionCurrent || f.Version < 0 {
		return File{}, fmt.Errorf("%w: version %d", ErrUnknownFormat, f.Version)
	}
	return f, nil
}

// Encode writes state in the current format, including the fallback fields
// older readers understand.
func Encode(st State) ([]byte, error) {
	return json.Marshal(ToFile(st))
}

func ToFile(st State) File {
	f := File{
		Version:   VersionCurrent,
		Date:      st.Date,
		QuestIDs:  []int{},
		Accepted:  []int{},
		Finished:  []int{},
		TasksFull: make([]TaskRecord, 0, len(st.Tasks)),
	}
	for _, t := range st.Tasks {
		f.QuestIDs = append(f.QuestIDs, t.ID)
		if t.Accepted {
			f.Accepted = append(f.Accepted, t.ID)
		}
		if t.Finished {
			f.Finished = append(f.Finished, t.ID)
		}

		rec := TaskRecord{Task: t.Clone()}
		if rec.RewardItems == nil {
			rec.RewardItems = []model.RewardItem{}
		}
		if len(t.RewardItems) > 0 {
			rec.RewardItemTypeID = t.RewardItems[0].TypeID
			rec.RewardItemCount = t.RewardItems[0].Count
		}
		f.TasksFull = append(f.TasksFull, rec)
	}
	return f
}
