package scheduler

import (
	"sync"

	"github.com/alphadesk/alphadesk/internal/analysts"
	"github.com/alphadesk/alphadesk/internal/coordinator"
	"github.com/alphadesk/alphadesk/internal/models"
)

// Registry owns the producer roster and the notice board for one desk.
// It is passed into each day run explicitly; nothing here is global.
type Registry struct {
	mu        sync.RWMutex
	order     []models.ProducerID
	producers map[models.ProducerID]*analysts.Analyst
	profiles  map[models.ProducerID]analysts.Profile
	board     *coordinator.NoticeBoard
}

func NewRegistry() *Registry {
	return &Registry{
		producers: make(map[models.ProducerID]*analysts.Analyst),
		profiles:  make(map[models.ProducerID]analysts.Profile),
		board:     coordinator.NewNoticeBoard(),
	}
}

// Register adds a producer. Re-registering an ID replaces it in place.
func (r *Registry) Register(profile analysts.Profile, a *analysts.Analyst) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, seen := r.producers[profile.ID]; !seen {
		r.order = append(r.order, profile.ID)
	}
	r.producers[profile.ID] = a
	r.profiles[profile.ID] = profile
}

// Producers returns the roster in registration order.
func (r *Registry) Producers() []*analysts.Analyst {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*analysts.Analyst, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.producers[id])
	}
	return out
}

// Profiles returns the roster profiles in registration order.
func (r *Registry) Profiles() []analysts.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]analysts.Profile, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.profiles[id])
	}
	return out
}

// IDs returns the producer IDs in registration order.
func (r *Registry) IDs() []models.ProducerID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ProducerID, len(r.order))
	copy(out, r.order)
	return out
}

// Board exposes the shared notice board producers post to.
func (r *Registry) Board() *coordinator.NoticeBoard {
	return r.board
}
