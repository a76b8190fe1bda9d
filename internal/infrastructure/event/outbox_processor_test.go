package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/equiptrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ==================== Fakes ====================

type memoryOutboxRepo struct {
	entries map[uuid.UUID]*shared.OutboxEntry
}

func newMemoryOutboxRepo() *memoryOutboxRepo {
	return &memoryOutboxRepo{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *memoryOutboxRepo) Save(_ context.Context, entries ...*shared.OutboxEntry) error {
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *memoryOutboxRepo) FindPending(_ context.Context, limit int) ([]*shared.OutboxEntry, error) {
	var out []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusPending && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryOutboxRepo) FindRetryable(_ context.Context, now time.Time, limit int) ([]*shared.OutboxEntry, error) {
	var out []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusFailed && e.CanRetry() &&
			e.NextRetryAt != nil && !e.NextRetryAt.After(now) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryOutboxRepo) MarkProcessing(_ context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	var out []*shared.OutboxEntry
	for _, id := range ids {
		e, ok := r.entries[id]
		if !ok {
			continue
		}
		if err := e.MarkProcessing(); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memoryOutboxRepo) Update(_ context.Context, entry *shared.OutboxEntry) error {
	r.entries[entry.ID] = entry
	return nil
}

func (r *memoryOutboxRepo) FindDead(_ context.Context, _, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	var out []*shared.OutboxEntry
	var total int64
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusDead {
			total++
			if len(out) < pageSize {
				out = append(out, e)
			}
		}
	}
	return out, total, nil
}

func (r *memoryOutboxRepo) CountByStatus(_ context.Context) (map[shared.OutboxStatus]int64, error) {
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

type recordingHandler struct {
	eventType string
	err       error
	handled   []*shared.OutboxEntry
}

func (h *recordingHandler) EventType() string { return h.eventType }

func (h *recordingHandler) Handle(_ context.Context, entry *shared.OutboxEntry) error {
	h.handled = append(h.handled, entry)
	return h.err
}

type stubEvent struct {
	shared.BaseDomainEvent
}

func newEntry(eventType string) *shared.OutboxEntry {
	event := shared.NewBaseDomainEvent(eventType, "transfer", uuid.New())
	return shared.NewOutboxEntry(&stubEvent{BaseDomainEvent: event}, []byte(`{"k":"v"}`))
}

// ==================== Tests ====================

func TestOutboxProcessor_Register(t *testing.T) {
	p := NewOutboxProcessor(newMemoryOutboxRepo(), DefaultOutboxProcessorConfig(), zap.NewNop())

	require.NoError(t, p.Register(&recordingHandler{eventType: "a"}))
	require.NoError(t, p.Register(&recordingHandler{eventType: "b"}))

	err := p.Register(&recordingHandler{eventType: "a"})
	assert.Error(t, err)
}

func TestOutboxProcessor_ProcessBatch(t *testing.T) {
	t.Run("successful entries are marked sent", func(t *testing.T) {
		repo := newMemoryOutboxRepo()
		handler := &recordingHandler{eventType: "transfer.relocation.requested"}
		p := NewOutboxProcessor(repo, OutboxProcessorConfig{BatchSize: 10, PollInterval: time.Second}, zap.NewNop())
		require.NoError(t, p.Register(handler))

		entry := newEntry("transfer.relocation.requested")
		require.NoError(t, repo.Save(context.Background(), entry))

		p.ProcessBatch(context.Background())

		require.Len(t, handler.handled, 1)
		assert.Equal(t, shared.OutboxStatusSent, repo.entries[entry.ID].Status)
		assert.NotNil(t, repo.entries[entry.ID].ProcessedAt)
	})

	t.Run("failed entries schedule a retry", func(t *testing.T) {
		repo := newMemoryOutboxRepo()
		handler := &recordingHandler{
			eventType: "transfer.relocation.requested",
			err:       errors.New("equipment row locked"),
		}
		p := NewOutboxProcessor(repo, OutboxProcessorConfig{BatchSize: 10, PollInterval: time.Second}, zap.NewNop())
		require.NoError(t, p.Register(handler))

		entry := newEntry("transfer.relocation.requested")
		require.NoError(t, repo.Save(context.Background(), entry))

		p.ProcessBatch(context.Background())

		stored := repo.entries[entry.ID]
		assert.Equal(t, shared.OutboxStatusFailed, stored.Status)
		assert.Equal(t, 1, stored.RetryCount)
		assert.Equal(t, "equipment row locked", stored.LastError)
		require.NotNil(t, stored.NextRetryAt)
	})

	t.Run("retryable entries are picked up once due", func(t *testing.T) {
		repo := newMemoryOutboxRepo()
		handler := &recordingHandler{eventType: "transfer.relocation.requested"}
		p := NewOutboxProcessor(repo, OutboxProcessorConfig{BatchSize: 10, PollInterval: time.Second}, zap.NewNop())
		require.NoError(t, p.Register(handler))

		entry := newEntry("transfer.relocation.requested")
		entry.MarkFailed("transient")
		due := time.Now().Add(-time.Minute)
		entry.NextRetryAt = &due
		require.NoError(t, repo.Save(context.Background(), entry))

		p.ProcessBatch(context.Background())

		require.Len(t, handler.handled, 1)
		assert.Equal(t, shared.OutboxStatusSent, repo.entries[entry.ID].Status)
	})

	t.Run("entries exhaust retries into the dead letter state", func(t *testing.T) {
		repo := newMemoryOutboxRepo()
		handler := &recordingHandler{
			eventType: "transfer.relocation.requested",
			err:       errors.New("branch gone"),
		}
		p := NewOutboxProcessor(repo, OutboxProcessorConfig{BatchSize: 10, PollInterval: time.Second}, zap.NewNop())
		require.NoError(t, p.Register(handler))

		entry := newEntry("transfer.relocation.requested")
		require.NoError(t, repo.Save(context.Background(), entry))

		for i := 0; i < shared.DefaultMaxRetries; i++ {
			p.ProcessBatch(context.Background())
			// Force the entry due immediately so the next pass retries it
			if repo.entries[entry.ID].NextRetryAt != nil {
				due := time.Now().Add(-time.Minute)
				repo.entries[entry.ID].NextRetryAt = &due
			}
		}

		stored := repo.entries[entry.ID]
		assert.Equal(t, shared.OutboxStatusDead, stored.Status)
		assert.Nil(t, stored.NextRetryAt)
		assert.Equal(t, shared.DefaultMaxRetries, stored.RetryCount)

		dead, total, err := repo.FindDead(context.Background(), 1, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Len(t, dead, 1)
	})

	t.Run("entries without a handler are failed", func(t *testing.T) {
		repo := newMemoryOutboxRepo()
		p := NewOutboxProcessor(repo, OutboxProcessorConfig{BatchSize: 10, PollInterval: time.Second}, zap.NewNop())

		entry := newEntry("transfer.unknown")
		require.NoError(t, repo.Save(context.Background(), entry))

		p.ProcessBatch(context.Background())

		stored := repo.entries[entry.ID]
		assert.Equal(t, shared.OutboxStatusFailed, stored.Status)
		assert.Contains(t, stored.LastError, "no handler")
	})
}

func TestOutboxProcessor_StartStop(t *testing.T) {
	repo := newMemoryOutboxRepo()
	handler := &recordingHandler{eventType: "transfer.relocation.requested"}
	p := NewOutboxProcessor(repo, OutboxProcessorConfig{BatchSize: 10, PollInterval: 10 * time.Millisecond}, zap.NewNop())
	require.NoError(t, p.Register(handler))

	entry := newEntry("transfer.relocation.requested")
	require.NoError(t, repo.Save(context.Background(), entry))

	require.NoError(t, p.Start(context.Background()))
	time.Sleep(50 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Stop(stopCtx))

	assert.Equal(t, shared.OutboxStatusSent, repo.entries[entry.ID].Status)
}
