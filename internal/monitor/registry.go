package monitor

import (
	"sync"
	"time"

	"github.com/voyago/trip-planner/internal/model"
)

// Registration records which update feeds are collected for a trip and when
// collection began.
type Registration struct {
	TripID    string
	Types     map[model.MonitorType]bool
	StartedAt time.Time
}

// Registry is the process-wide set of actively monitored trips. Register and
// Deregister are idempotent and safe under concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Registration
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Registration)}
}

// Register adds the trip with the given feed types. Registering an already
// monitored trip merges the types and keeps the original start time. The
// returned registration is a snapshot; callers never see the live entry.
func (r *Registry) Register(tripID string, types []model.MonitorType) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.entries[tripID]
	if !ok {
		reg = &Registration{
			TripID:    tripID,
			Types:     make(map[model.MonitorType]bool),
			StartedAt: time.Now().UTC(),
		}
		r.entries[tripID] = reg
	}
	for _, t := range types {
		reg.Types[t] = true
	}
	return reg.snapshot()
}

// Deregister removes the trip; removing an unmonitored trip is a no-op.
func (r *Registry) Deregister(tripID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, tripID)
}

// Get returns the registration for tripID, or nil if not monitored.
func (r *Registry) Get(tripID string) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg, ok := r.entries[tripID]; ok {
		return reg.snapshot()
	}
	return nil
}

// Active returns a snapshot of all registrations.
func (r *Registry) Active() []*Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Registration, 0, len(r.entries))
	for _, reg := range r.entries {
		out = append(out, reg.snapshot())
	}
	return out
}

// snapshot copies the registration so callers can read it without holding
// the registry lock. Must be called with the registry lock held.
func (reg *Registration) snapshot() *Registration {
	cp := *reg
	cp.Types = make(map[model.MonitorType]bool, len(reg.Types))
	for k, v := range reg.Types {
		cp.Types[k] = v
	}
	return &cp
}
