package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"charitylottery/internal/epoch"
	"charitylottery/internal/models"
	"charitylottery/internal/seed"
	"charitylottery/internal/services"
	"charitylottery/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *epoch.ManualClock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStore()
	clock := epoch.NewManualClock(0)
	lottery := services.NewLotteryService(store, seed.Fixed{1, 2, 6, 7, 8, 10}, clock)
	require.NoError(t, lottery.Bootstrap(context.Background()))
	h := NewHTTPHandler(lottery, services.NewCharityService(store))

	r := gin.New()
	h.RegisterPublicRoutes(r)
	ownerRoutes := r.Group("/")
	ownerRoutes.Use(h.OwnerMiddleware())
	h.RegisterOwnerRoutes(ownerRoutes)
	return r, clock
}

func do(r *gin.Engine, method, path, owner, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHTTPHandler_DrawAndSettle(t *testing.T) {
	r, clock := newTestRouter(t)

	w := do(r, http.MethodPost, "/draw/advance", "", "")
	assert.Equal(t, http.StatusTooEarly, w.Code)

	clock.Tick()
	w = do(r, http.MethodPost, "/draw/advance", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/draw/numbers", "", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(r, http.MethodPost, "/draw/numbers", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/draw/1/numbers", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var winning models.WinningNumbers
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &winning))
	assert.Equal(t, [5]uint8{1, 2, 6, 7, 8}, winning.CommonNumbers)

	w = do(r, http.MethodPost, "/tickets", "alice", `{"commonNumbers":[1,2,3,4,5],"specialNumber":10}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ticket models.Ticket
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ticket))
	assert.Equal(t, uint64(1), ticket.DrawNumber)

	// The pool holds one contribution, less than the 32 unit prize.
	w = do(r, http.MethodPost, "/tickets/1/check", "alice", "")
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/tickets/1", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ticket))
	assert.False(t, ticket.IsChecked)

	w = do(r, http.MethodPost, "/tickets", "bob", `{"commonNumbers":[9,10,11,12,13],"specialNumber":1}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = do(r, http.MethodPost, "/tickets/1/check", "bob", "")
	require.Equal(t, http.StatusOK, w.Code)
	var outcome models.Outcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.False(t, outcome.Won())

	w = do(r, http.MethodPost, "/tickets/1/check", "bob", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), services.ErrAlreadyChecked.Error())

	w = do(r, http.MethodGet, "/pool", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var pool models.PrizePool
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pool))
	assert.Equal(t, 2*models.TicketContribution, pool.TotalPrize)
}

func TestHTTPHandler_Validation(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/tickets", "", `{"commonNumbers":[1,2,3,4,5],"specialNumber":1}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/tickets", "alice", `{"commonNumbers":[1,2,3,4,4],"specialNumber":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), services.ErrInvalidCommonNumber2.Error())

	w = do(r, http.MethodPost, "/tickets", "alice", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/tickets/abc", "alice", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/draw/7/numbers", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTPHandler_BuyTicketNumberCount(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, body := range []string{
		`{"commonNumbers":[1,2,3,4],"specialNumber":1}`,
		`{"commonNumbers":[1,2,3,4,5,6],"specialNumber":1}`,
		`{"commonNumbers":[1,2,3,4,5,6,7],"specialNumber":1}`,
		`{"specialNumber":1}`,
	} {
		w := do(r, http.MethodPost, "/tickets", "alice", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w := do(r, http.MethodGet, "/tickets/0", "alice", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/tickets", "alice", `{"commonNumbers":[1,2,3,4,5],"specialNumber":1}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ticket models.Ticket
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ticket))
	assert.Equal(t, [5]uint8{1, 2, 3, 4, 5}, ticket.CommonNumbers)
}

func TestHTTPHandler_CharityProjects(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/projects", "carol", `{"name":"wells","description":"Clean water"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(r, http.MethodPost, "/projects", "carol", `{"name":"wells","description":"Clean water"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/projects/carol/wells", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/projects/carol/wells/support", "alice", `{"amount":1}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/tickets", "alice", `{"commonNumbers":[1,2,3,4,5],"specialNumber":1}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = do(r, http.MethodPost, "/projects/carol/wells/support", "alice", `{"amount":1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/balances/carol", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var bal struct {
		CharityTokens uint64 `json:"charityTokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bal))
	assert.Equal(t, uint64(1_000_000), bal.CharityTokens)
}

func TestHTTPHandler_Health(t *testing.T) {
	r, _ := newTestRouter(t)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/metrics", "", "").Code)
}
