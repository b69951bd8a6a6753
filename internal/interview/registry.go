package interview

import (
	"context"
	"sync"

	"github.com/dkazmin/careerpilot/internal/localstore"
)

// StoreFactory yields the device-scoped store for a device id.
type StoreFactory func(deviceID string) localstore.Store

// Registry hands out one Manager per device. The first access for a device
// runs Resume (cold start); a manager is only cached once that resume
// succeeded, so a transient gateway failure is retried on the next request.
type Registry struct {
	mu           sync.Mutex
	managers     map[string]*Manager
	storeFor     StoreFactory
	sessions     SessionGateway
	trajectories TrajectoryGateway
}

func NewRegistry(storeFor StoreFactory, sessions SessionGateway, trajectories TrajectoryGateway) *Registry {
	return &Registry{
		managers:     make(map[string]*Manager),
		storeFor:     storeFor,
		sessions:     sessions,
		trajectories: trajectories,
	}
}

// ForDevice returns the device's manager, resuming state on first access.
func (r *Registry) ForDevice(ctx context.Context, deviceID string) (*Manager, error) {
	r.mu.Lock()
	if m, ok := r.managers[deviceID]; ok {
		r.mu.Unlock()
		return m, nil
	}
	m := NewManager(r.storeFor(deviceID), r.sessions, r.trajectories)
	r.mu.Unlock()

	if _, err := m.Resume(ctx); err != nil {
		return m, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.managers[deviceID]; ok {
		return existing, nil
	}
	r.managers[deviceID] = m
	return m, nil
}
