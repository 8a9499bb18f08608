package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"telegram-expiry-reminder/internal/domain/model"
	"telegram-expiry-reminder/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var _ repository.StateRepository = (*StateRepo)(nil)

// StateRepo manages user conversational state in Redis. Keys never expire:
// a user stays in a flow until they leave it.
type StateRepo struct {
	client RedisClient
}

func NewStateRepo(client RedisClient) *StateRepo {
	return &StateRepo{client: client}
}

func StateKey(tgID int64) string {
	return fmt.Sprintf("conv_state:%d", tgID)
}

func (s *StateRepo) SetState(ctx context.Context, tgID int64, state *model.ConversationState) error {
	if state.IsIdle() {
		return s.ClearState(ctx, tgID)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, StateKey(tgID), data, 0)
}

func (s *StateRepo) GetState(ctx context.Context, tgID int64) (*model.ConversationState, error) {
	data, err := s.client.Get(ctx, StateKey(tgID))
	if errors.Is(err, redis.Nil) {
		return model.IdleState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}

	var state model.ConversationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &state, nil
}

func (s *StateRepo) ClearState(ctx context.Context, tgID int64) error {
	return s.client.Del(ctx, StateKey(tgID))
}
