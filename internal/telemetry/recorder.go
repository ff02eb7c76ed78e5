package telemetry

import (
	"go.uber.org/zap"
)

// Recorder fans lifecycle events out to the event log and the metrics.
// A nil *Recorder records nothing.
type Recorder struct {
	repo    Repository
	metrics *Metrics
	log     *zap.Logger
}

func NewRecorder(repo Repository, metrics *Metrics, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{repo: repo, metrics: metrics, log: log}
}

// Record logs one event; category may be empty for pool-wide events.
func (r *Recorder) Record(eventType EventType, category string, metadata EventMetadata) {
	if r == nil {
		return
	}
	if r.metrics != nil {
		r.metrics.Events.WithLabelValues(string(eventType), category).Inc()
	}
	if r.repo == nil {
		return
	}
	if metadata == nil {
		metadata = EventMetadata{}
	}
	if category != "" {
		metadata["category"] = category
	}
	if err := r.repo.RecordEvent(eventType, metadata); err != nil {
		r.log.Warn("record telemetry event", zap.String("event", string(eventType)), zap.Error(err))
	}
}

// SetWorkingSet publishes the current working set size.
func (r *Recorder) SetWorkingSet(n int) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.WorkingSet.Set(float64(n))
}

// SaveFailed counts a failed save write.
func (r *Recorder) SaveFailed() {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.SaveErrors.Inc()
}
