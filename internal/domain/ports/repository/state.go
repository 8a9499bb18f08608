package repository

import (
	"context"

	"telegram-expiry-reminder/internal/domain/model"
)

// StateRepository is the port for managing any user's conversational state.
// GetState returns model.IdleState() for users it has never seen.
type StateRepository interface {
	SetState(ctx context.Context, tgID int64, state *model.ConversationState) error
	GetState(ctx context.Context, tgID int64) (*model.ConversationState, error)
	ClearState(ctx context.Context, tgID int64) error
}
