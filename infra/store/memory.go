package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kilianp07/opsplan/core/model"
)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	schedules map[string]model.BaseSchedule
	ref       model.Reference
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{schedules: make(map[string]model.BaseSchedule)}
}

func (m *MemoryStore) ListSchedules(context.Context) ([]model.BaseSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.BaseSchedule, 0, len(m.schedules))
	for _, s := range m.schedules {
		out = append(out, s)
	}
	model.SortSchedules(out)
	return out, nil
}

func (m *MemoryStore) CreateSchedule(_ context.Context, s model.BaseSchedule) (model.BaseSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.NewString()
	m.schedules[s.ID] = s
	return s, nil
}

func (m *MemoryStore) UpdateSchedule(_ context.Context, s model.BaseSchedule) (model.BaseSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[s.ID]; !ok {
		return model.BaseSchedule{}, ErrNotFound
	}
	m.schedules[s.ID] = s
	return s, nil
}

func (m *MemoryStore) DeleteSchedule(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return ErrNotFound
	}
	delete(m.schedules, id)
	return nil
}

func (m *MemoryStore) Import(_ context.Context, list []model.BaseSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range list {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		m.schedules[s.ID] = s
	}
	return nil
}

func (m *MemoryStore) ReplaceReference(_ context.Context, ref model.Reference) error {
	m.mu.Lock()
	m.ref = ref
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) ListDrivers(context.Context) ([]model.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Driver(nil), m.ref.Drivers...), nil
}

func (m *MemoryStore) ListBuses(context.Context) ([]model.Bus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Bus(nil), m.ref.Buses...), nil
}

func (m *MemoryStore) ListRoutes(context.Context) ([]model.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Route(nil), m.ref.Routes...), nil
}

func (m *MemoryStore) ListExternalBusAssignments(context.Context) ([]model.ExternalBusAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.ExternalBusAssignment(nil), m.ref.Externals...), nil
}

func (m *MemoryStore) Close() error { return nil }
