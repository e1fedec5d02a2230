package handlers

import (
	"time"

	"expansion-planner/internal/api/middleware"
	"expansion-planner/internal/data"
	"expansion-planner/internal/scenario"

	"github.com/google/uuid"
)

// StoredRun is a finished solve kept for later retrieval
type StoredRun struct {
	ID        string
	Outcome   *scenario.Outcome
	CreatedAt time.Time
}

// RunStore keeps solve outcomes for a limited time, keyed by a random run ID
type RunStore struct {
	cache   *data.Cache[*StoredRun]
	metrics *middleware.Metrics
}

// NewRunStore creates a store whose runs expire after ttl. ttl <= 0 keeps nothing.
func NewRunStore(ttl time.Duration, metrics *middleware.Metrics) *RunStore {
	return &RunStore{cache: data.NewCache[*StoredRun](ttl), metrics: metrics}
}

// Put stores an outcome and returns its record. The ID is empty when the store keeps nothing.
func (s *RunStore) Put(out *scenario.Outcome) *StoredRun {
	run := &StoredRun{Outcome: out, CreatedAt: time.Now().UTC()}
	if s == nil || s.cache == nil {
		return run
	}
	s.cache.Prune()
	run.ID = uuid.NewString()
	s.cache.Set(run.ID, run)
	s.metrics.SetStoredRuns(s.cache.Len())
	return run
}

func (s *RunStore) Get(id string) (*StoredRun, bool) {
	if s == nil {
		return nil, false
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	return s.cache.Get(id)
}
