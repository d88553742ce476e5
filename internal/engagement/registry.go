package engagement

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Registry держит по одному состоянию на зрителя. Состояние загружается
// при первом обращении и перезагружается, пока загрузка не станет полной.
type Registry struct {
	src Source

	mu     sync.Mutex
	states map[uuid.UUID]*State
}

func NewRegistry(src Source) *Registry {
	return &Registry{
		src:    src,
		states: make(map[uuid.UUID]*State),
	}
}

func (r *Registry) state(viewerID uuid.UUID) *State {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[viewerID]
	if !ok {
		st = NewState(viewerID)
		if viewerID != uuid.Nil {
			r.states[viewerID] = st
		}
	}
	return st
}

// Get возвращает загруженное состояние зрителя. При частичном сбое возвращается
// состояние с успешной половиной и *LoadError.
func (r *Registry) Get(ctx context.Context, viewerID uuid.UUID) (*State, error) {
	st := r.state(viewerID)
	if err := st.ensureLoaded(ctx, r.src); err != nil {
		return st, err
	}
	return st, nil
}

// Refresh принудительно перечитывает состояние из хранилища.
func (r *Registry) Refresh(ctx context.Context, viewerID uuid.UUID) (*State, error) {
	st := r.state(viewerID)
	return st, st.Load(ctx, r.src)
}

// Forget убирает возможность из всех загруженных состояний.
func (r *Registry) Forget(opportunityID uuid.UUID) {
	r.mu.Lock()
	states := make([]*State, 0, len(r.states))
	for _, st := range r.states {
		states = append(states, st)
	}
	r.mu.Unlock()

	for _, st := range states {
		st.Forget(opportunityID)
	}
}

// Drop выгружает состояние зрителя.
func (r *Registry) Drop(viewerID uuid.UUID) {
	r.mu.Lock()
	delete(r.states, viewerID)
	r.mu.Unlock()
}

// Len количество загруженных состояний.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}
