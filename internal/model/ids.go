package model

// Each category owns a disjoint ID range so retained and fresh tasks never collide.
const (
	UseItemBase       = 100000
	SubmitItemBase    = 200000
	KillEnemyBase     = 300000
	SpendCashBase     = 400000
	ChallengeKillBase = 500000

	rangeWidth = 100000
)

// Base returns the first ID of the category's range.
func (c Category) Base() int {
	switch c {
	case UseItem:
		return UseItemBase
	case SubmitItem:
		return SubmitItemBase
	case KillEnemy:
		return KillEnemyBase
	case SpendCashAtMerchant:
		return SpendCashBase
	case ChallengeKill:
		return ChallengeKillBase
	default:
		return 0
	}
}

// TaskID derives the stable ID for a category and its target key:
// an item ID for use/submit tasks, an offset for kill tasks, a slot for spend tasks.
func TaskID(c Category, key int) int {
	return c.Base() + key
}

// CategoryOf infers the category and target key from an ID.
func CategoryOf(id int) (Category, int, bool) {
	for _, c := range Categories {
		base := c.Base()
		if id >= base && id < base+rangeWidth {
			return c, id - base, true
		}
	}
	return 0, 0, false
}

// IDSet is a set of task IDs.
type IDSet map[int]struct{}

func NewIDSet(ids ...int) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(id int) {
	s[id] = struct{}{}
}

// IDsOf collects the IDs of tasks.
func IDsOf(tasks []Task) IDSet {
	s := make(IDSet, len(tasks))
	for i := range tasks {
		s.Add(tasks[i].ID)
	}
	return s
}
