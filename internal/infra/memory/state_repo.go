package memory

import (
	"context"
	"sync"

	"telegram-expiry-reminder/internal/domain/model"
	"telegram-expiry-reminder/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.StateRepository = (*StateRepo)(nil)

// StateRepo holds conversation states per Telegram user. A restart resets
// everyone to idle.
type StateRepo struct {
	mu     sync.RWMutex
	states map[int64]model.ConversationStep
}

func NewStateRepo() *StateRepo {
	return &StateRepo{states: make(map[int64]model.ConversationStep)}
}

func (r *StateRepo) SetState(ctx context.Context, tgID int64, state *model.ConversationState) error {
	if state.IsIdle() {
		return r.ClearState(ctx, tgID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[tgID] = state.Step
	return nil
}

func (r *StateRepo) GetState(ctx context.Context, tgID int64) (*model.ConversationState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	step, ok := r.states[tgID]
	if !ok {
		return model.IdleState(), nil
	}
	return &model.ConversationState{Step: step}, nil
}

func (r *StateRepo) ClearState(ctx context.Context, tgID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, tgID)
	return nil
}
