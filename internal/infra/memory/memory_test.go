//go:build !integration

package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"telegram-expiry-reminder/internal/domain"
	"telegram-expiry-reminder/internal/domain/model"
	"telegram-expiry-reminder/internal/infra/memory"
)

func TestProductRepo(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)

	t.Run("insert assigns increasing ids and list is id ordered", func(t *testing.T) {
		r := memory.NewProductRepo()
		var ids []int64
		for _, n := range []string{"a", "b", "c"} {
			id, err := r.Insert(ctx, n, date)
			if err != nil {
				t.Fatal(err)
			}
			ids = append(ids, id)
		}
		if !(ids[0] < ids[1] && ids[1] < ids[2]) {
			t.Errorf("ids not increasing: %v", ids)
		}
		items, err := r.ListAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 3 || items[0].Name != "a" || items[2].Name != "c" {
			t.Errorf("unexpected list %+v", items)
		}
		if !items[0].ExpiresOn.Equal(model.DateOf(date)) {
			t.Errorf("date not normalized: %v", items[0].ExpiresOn)
		}
	})

	t.Run("delete is idempotent and ids are not reused", func(t *testing.T) {
		r := memory.NewProductRepo()
		id, _ := r.Insert(ctx, "a", date)
		for i := 0; i < 2; i++ {
			if err := r.Delete(ctx, id); err != nil {
				t.Fatal(err)
			}
		}
		next, _ := r.Insert(ctx, "b", date)
		if next == id {
			t.Error("id reused after delete")
		}
	})

	t.Run("list returns copies", func(t *testing.T) {
		r := memory.NewProductRepo()
		_, _ = r.Insert(ctx, "a", date)
		items, _ := r.ListAll(ctx)
		items[0].Name = "changed"
		again, _ := r.ListAll(ctx)
		if again[0].Name != "a" {
			t.Error("store mutated through snapshot")
		}
	})

	t.Run("rejects empty input", func(t *testing.T) {
		r := memory.NewProductRepo()
		if _, err := r.Insert(ctx, "", date); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("concurrent inserts get unique ids", func(t *testing.T) {
		r := memory.NewProductRepo()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = r.Insert(ctx, "x", date)
			}()
		}
		wg.Wait()
		items, _ := r.ListAll(ctx)
		seen := map[int64]bool{}
		for _, p := range items {
			if seen[p.ID] {
				t.Fatalf("duplicate id %d", p.ID)
			}
			seen[p.ID] = true
		}
		if len(items) != 50 {
			t.Errorf("expected 50 items, got %d", len(items))
		}
	})
}

func TestStateRepo(t *testing.T) {
	ctx := context.Background()
	r := memory.NewStateRepo()

	st, err := r.GetState(ctx, 1)
	if err != nil || !st.IsIdle() {
		t.Fatalf("unknown user should be idle, got %+v %v", st, err)
	}
	_ = r.SetState(ctx, 1, &model.ConversationState{Step: model.StepAdding})
	st, _ = r.GetState(ctx, 1)
	if st.Step != model.StepAdding {
		t.Errorf("got %q", st.Step)
	}
	other, _ := r.GetState(ctx, 2)
	if !other.IsIdle() {
		t.Error("states leaked between users")
	}
	_ = r.ClearState(ctx, 1)
	st, _ = r.GetState(ctx, 1)
	if !st.IsIdle() {
		t.Error("clear should reset to idle")
	}
}
