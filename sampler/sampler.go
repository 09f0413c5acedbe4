package sampler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"grdiag/drivers"
	"grdiag/logger"
	"grdiag/pids"
)

const queryTimeout = 2 * time.Second

// Sampler issues one query per registered parameter and folds the results
// into a snapshot. It owns its registry; nothing registers into it at
// runtime.
type Sampler struct {
	transport drivers.Transport
	registry  *pids.Registry

	mu     sync.Mutex
	latest *Snapshot
}

func New(transport drivers.Transport, registry *pids.Registry) *Sampler {
	return &Sampler{
		transport: transport,
		registry:  registry,
	}
}

func (s *Sampler) Registry() *pids.Registry {
	return s.registry
}

// Sample polls every registered parameter once. A disconnected transport
// yields an empty snapshot; a failed query yields an absent reading. It
// never returns an error.
func (s *Sampler) Sample(ctx context.Context) *Snapshot {
	snapshot := NewSnapshot(time.Now(), s.registry.Names())

	if s.transport == nil || !s.transport.Connected() {
		s.setLatest(snapshot)
		return snapshot
	}

	for _, name := range s.registry.Names() {
		def, ok := s.registry.Get(name)
		if !ok {
			continue
		}

		queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
		data, err := s.transport.Query(queryCtx, def.Request)
		cancel()

		if err != nil {
			if errors.Is(err, drivers.ErrDisconnected) {
				// remaining parameters stay absent this cycle
				break
			}
			logger.Debug("query failed", zap.String("pid", name), zap.Error(err))
			continue
		}

		if value, ok := def.Decode(data); ok {
			snapshot.Set(name, value)
		} else {
			logger.Debug("undecodable payload", zap.String("pid", name), zap.Binary("data", data))
		}
	}

	s.setLatest(snapshot)
	return snapshot
}

// Latest returns the most recent snapshot, or nil before the first sample.
func (s *Sampler) Latest() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

func (s *Sampler) setLatest(snapshot *Snapshot) {
	s.mu.Lock()
	s.latest = snapshot
	s.mu.Unlock()
}
