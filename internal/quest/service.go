// Package quest runs the daily task pool: candidate generation, quota
// assembly, the task lifecycle, rewards and day rollover.
package quest

import (
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"

	"dailyquests/internal/config"
	"dailyquests/internal/host"
	"dailyquests/internal/logging"
	"dailyquests/internal/model"
	"dailyquests/internal/storage"
	"dailyquests/internal/telemetry"
)

// Save location used when Options leaves it empty.
const (
	DefaultNamespace = "DailyQuests"
	DefaultKey       = "Data"
)

type Options struct {
	Catalog   *config.Catalog
	Host      host.Host
	Store     storage.Store
	Namespace string
	Key       string
	Clock     host.Clock
	Logger    *zap.Logger
	// Rand drives every random draw; nil seeds from the clock.
	Rand     *rand.Rand
	Recorder *telemetry.Recorder
}

// Service owns the working set. It is not safe for concurrent use: the host
// calls it from a single goroutine, and event callbacks must not re-enter it.
type Service struct {
	cat   *config.Catalog
	host  host.Host
	store storage.Store
	ns    string
	key   string
	clock host.Clock
	log   *zap.Logger
	rng   *rand.Rand
	rec   *telemetry.Recorder

	gen     *Generator
	rewards *RewardAssignor

	tasks         []model.Task
	currentDate   string
	lastSavedDate string

	initialized bool
	dispatching bool
}

func NewService(opts Options) *Service {
	s := &Service{
		cat:   opts.Catalog,
		host:  opts.Host,
		store: opts.Store,
		ns:    opts.Namespace,
		key:   opts.Key,
		clock: opts.Clock,
		log:   opts.Logger,
		rng:   opts.Rand,
		rec:   opts.Recorder,
	}
	if s.cat == nil {
		s.cat = config.DefaultCatalog()
	}
	if s.store == nil {
		s.store = storage.NewMemoryStore()
	}
	if s.ns == "" {
		s.ns = DefaultNamespace
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.clock == nil {
		s.clock = host.RealClock{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.rng == nil {
		s.rng = NewRand(0)
	}
	if s.host.Notifier == nil {
		s.host.Notifier = host.NopNotifier{}
	}

	s.rewards = NewRewardAssignor(s.cat, s.host, s.rng)
	s.gen = NewGenerator(s.cat, s.host, s.rng, s.rewards)
	return s
}

// Tasks returns a snapshot of the working set in display order.
func (s *Service) Tasks() []model.Task {
	out := make([]model.Task, len(s.tasks))
	for i := range s.tasks {
		out[i] = s.tasks[i].Clone()
	}
	return out
}

// Task returns a snapshot of one task.
func (s *Service) Task(id int) (model.Task, bool) {
	t := s.find(id)
	if t == nil {
		return model.Task{}, false
	}
	return t.Clone(), true
}

func (s *Service) IsAccepted(id int) bool {
	t := s.find(id)
	return t != nil && t.Accepted
}

func (s *Service) IsFinished(id int) bool {
	t := s.find(id)
	return t != nil && t.Finished
}

func (s *Service) IsRewardClaimed(id int) bool {
	t := s.find(id)
	return t != nil && t.RewardClaimed
}

// LastSavedDate is the day key the working set was generated for.
func (s *Service) LastSavedDate() string { return s.lastSavedDate }

func (s *Service) find(id int) *model.Task {
	i := slices.IndexFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
	if i < 0 {
		return nil
	}
	return &s.tasks[i]
}

func (s *Service) notify(msg string) {
	if msg != "" {
		s.host.Notifier.Notify(msg)
	}
}

func (s *Service) taskLog(t *model.Task) *zap.Logger {
	return logging.ForTask(s.log, t.ID, t.Category.String())
}
