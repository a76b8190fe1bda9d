package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/equiptrack/backend/internal/domain/identity"
	"github.com/equiptrack/backend/internal/domain/shared"
	"github.com/equiptrack/backend/internal/infrastructure/auth"
	"github.com/equiptrack/backend/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOutboxRepo struct {
	dead         []*shared.OutboxEntry
	total        int64
	stats        map[shared.OutboxStatus]int64
	lastPage     int
	lastPageSize int
}

func (r *stubOutboxRepo) Save(context.Context, ...*shared.OutboxEntry) error { return nil }

func (r *stubOutboxRepo) FindPending(context.Context, int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *stubOutboxRepo) FindRetryable(context.Context, time.Time, int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *stubOutboxRepo) MarkProcessing(context.Context, []uuid.UUID) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *stubOutboxRepo) Update(context.Context, *shared.OutboxEntry) error { return nil }

func (r *stubOutboxRepo) FindDead(_ context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	r.lastPage = page
	r.lastPageSize = pageSize
	return r.dead, r.total, nil
}

func (r *stubOutboxRepo) CountByStatus(context.Context) (map[shared.OutboxStatus]int64, error) {
	return r.stats, nil
}

type outboxFixture struct {
	engine     *gin.Engine
	jwtService *auth.JWTService
	outbox     *stubOutboxRepo
	admin      *identity.User
	seller     *identity.User
}

func newOutboxFixture(t *testing.T) *outboxFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &outboxFixture{outbox: &stubOutboxRepo{}}

	var err error
	f.admin, err = identity.NewUser("admin", "Root Admin", "x", identity.RoleRootAdmin, nil)
	require.NoError(t, err)
	f.seller, err = identity.NewUser("seller", "Store Seller", "x", identity.RoleSeller, nil)
	require.NoError(t, err)

	f.jwtService = auth.NewJWTService(config.JWTConfig{
		Secret:                strings.Repeat("s", 32),
		AccessTokenExpiration: time.Hour,
		Issuer:                "equiptrack-test",
	})

	f.engine = gin.New()
	api := f.engine.Group("/api/v1")
	NewOutboxHandler(f.outbox, f.jwtService).RegisterRoutes(api)

	return f
}

func (f *outboxFixture) get(t *testing.T, path string, user *identity.User) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	if user != nil {
		token, _, err := f.jwtService.GenerateToken(user)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func deadEntry(lastError string) *shared.OutboxEntry {
	now := time.Now()
	return &shared.OutboxEntry{
		ID:            uuid.New(),
		EventID:       uuid.New(),
		EventType:     "transfer.items.received",
		AggregateID:   uuid.New(),
		AggregateType: "Transfer",
		Payload:       []byte(`{"imei":"354123098765430"}`),
		Status:        shared.OutboxStatusDead,
		RetryCount:    5,
		MaxRetries:    5,
		LastError:     lastError,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestOutboxHandler_ListDeadLetters(t *testing.T) {
	f := newOutboxFixture(t)
	f.outbox.dead = []*shared.OutboxEntry{
		deadEntry("equipment not found"),
		deadEntry("destination branch deleted"),
	}
	f.outbox.total = 2

	w := f.get(t, "/api/v1/admin/outbox/dead-letters", f.admin)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var page DeadLetterListResponse
	require.NoError(t, json.Unmarshal(raw, &page))

	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "equipment not found", page.Entries[0].LastError)
	assert.Equal(t, "transfer.items.received", page.Entries[0].EventType)
	assert.Equal(t, 5, page.Entries[0].RetryCount)
}

func TestOutboxHandler_ListDeadLettersPagination(t *testing.T) {
	f := newOutboxFixture(t)

	t.Run("forwards page and pageSize", func(t *testing.T) {
		w := f.get(t, "/api/v1/admin/outbox/dead-letters?page=3&pageSize=5", f.admin)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 3, f.outbox.lastPage)
		assert.Equal(t, 5, f.outbox.lastPageSize)
	})

	t.Run("rejects an oversized page", func(t *testing.T) {
		w := f.get(t, "/api/v1/admin/outbox/dead-letters?pageSize=1000", f.admin)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOutboxHandler_RequiresRootAdmin(t *testing.T) {
	f := newOutboxFixture(t)

	t.Run("rejects missing token", func(t *testing.T) {
		w := f.get(t, "/api/v1/admin/outbox/dead-letters", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects non-admin roles", func(t *testing.T) {
		w := f.get(t, "/api/v1/admin/outbox/stats", f.seller)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestOutboxHandler_Stats(t *testing.T) {
	f := newOutboxFixture(t)
	f.outbox.stats = map[shared.OutboxStatus]int64{
		shared.OutboxStatusPending: 4,
		shared.OutboxStatusSent:    12,
		shared.OutboxStatusDead:    1,
	}

	w := f.get(t, "/api/v1/admin/outbox/stats", f.admin)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var stats OutboxStatsResponse
	require.NoError(t, json.Unmarshal(raw, &stats))

	assert.Equal(t, int64(4), stats.Counts["PENDING"])
	assert.Equal(t, int64(12), stats.Counts["SENT"])
	assert.Equal(t, int64(1), stats.Counts["DEAD"])
}
