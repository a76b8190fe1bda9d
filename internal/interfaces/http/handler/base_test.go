package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equiptrack/backend/internal/domain/shared"
	"github.com/equiptrack/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	t.Run("prefers context value", func(t *testing.T) {
		c, _ := newTestContext()
		c.Set("request_id", "ctx-id")
		c.Request.Header.Set("X-Request-ID", "header-id")

		assert.Equal(t, "ctx-id", getRequestID(c))
	})

	t.Run("falls back to header", func(t *testing.T) {
		c, _ := newTestContext()
		c.Request.Header.Set("X-Request-ID", "header-id")

		assert.Equal(t, "header-id", getRequestID(c))
	})

	t.Run("empty when absent", func(t *testing.T) {
		c, _ := newTestContext()
		assert.Empty(t, getRequestID(c))
	})
}

func TestBaseHandler_Success(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.Success(c, gin.H{"status": "PENDING"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestBaseHandler_SuccessList(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.SuccessList(c, []string{"a", "b"}, 2)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Count)
}

func TestBaseHandler_Created(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.Created(c, gin.H{"id": "x"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeBody(t, w).Success)
}

func TestBaseHandler_NoContent(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.NoContent(c)

	// CreateTestContext does not flush a bare c.Status; read it from the
	// writer instead of the recorder
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Empty(t, w.Body.String())
}

func TestBaseHandler_Error(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()
	c.Set("request_id", "req-42")

	h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, "Access denied")

	assert.Equal(t, http.StatusForbidden, w.Code)
	resp := decodeBody(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeForbidden, resp.Error.Code)
	assert.Equal(t, "Access denied", resp.Error.Message)
	assert.Equal(t, "req-42", resp.Error.RequestID)
}

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}

	t.Run("nil error writes nothing", func(t *testing.T) {
		c, w := newTestContext()
		h.HandleError(c, nil)
		assert.Empty(t, w.Body.String())
	})

	t.Run("domain errors map to their status", func(t *testing.T) {
		tests := []struct {
			name     string
			err      *shared.DomainError
			expected int
		}{
			{"not found", shared.NewDomainError("NOT_FOUND", "Transfer not found"), http.StatusNotFound},
			{"forbidden", shared.NewDomainError("FORBIDDEN", "Access denied"), http.StatusForbidden},
			{"conflict", shared.NewDomainError("CONCURRENCY_CONFLICT", "Transfer was modified"), http.StatusConflict},
			{"mixed origin", shared.NewDomainError("MIXED_ORIGIN", "Equipment spans branches"), http.StatusUnprocessableEntity},
			{"empty items", shared.NewDomainError("EMPTY_ITEMS", "No equipment selected"), http.StatusBadRequest},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				c, w := newTestContext()
				h.HandleError(c, tt.err)

				assert.Equal(t, tt.expected, w.Code)
				resp := decodeBody(t, w)
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.err.Code, resp.Error.Code)
				assert.Equal(t, tt.err.Message, resp.Error.Message)
			})
		}
	})

	t.Run("wrapped domain errors unwrap", func(t *testing.T) {
		c, w := newTestContext()
		wrapped := errors.Join(errors.New("context"), shared.ErrNotFound)

		h.HandleError(c, wrapped)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown errors become a generic 500", func(t *testing.T) {
		c, w := newTestContext()

		h.HandleError(c, errors.New("pq: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeBody(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
		// Raw driver errors must not leak to clients
		assert.NotContains(t, resp.Error.Message, "pq:")
	})
}
