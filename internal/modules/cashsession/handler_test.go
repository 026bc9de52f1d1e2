package cashsession

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chandab/vansales-backend/internal/modules/auth"
	"github.com/chandab/vansales-backend/internal/modules/user"
)

var handlerTestSecret = []byte("handler-test-secret")

func newTestRouter(t *testing.T) (*chi.Mux, string) {
	t.Helper()
	store := NewMemoryStore()
	users := user.NewMemoryRepository()

	agent := &user.User{
		ID:        uuid.New(),
		Email:     "agent@example.com",
		FirstName: "Grace",
		LastName:  "Mwale",
		Role:      user.RoleAgent,
	}
	require.NoError(t, users.CreateUser(context.Background(), agent))

	svc := NewService(store, store, store.Deposits(), users)
	managerOnly := []func(http.Handler) http.Handler{
		auth.Middleware(handlerTestSecret),
		auth.RequireRole(user.RoleManager),
	}

	router := chi.NewRouter()
	NewHandler(svc, "ZMW", managerOnly...).RegisterRoutes(router)
	return router, agent.ID.String()
}

func managerToken(t *testing.T, managerID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		Role:           user.RoleManager,
		StandardClaims: jwt.StandardClaims{Subject: managerID},
	})
	signed, err := token.SignedString(handlerTestSecret)
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, router *chi.Mux, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	router, agentID := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/cash-sessions", "", map[string]interface{}{
		"agent_id":      agentID,
		"opening_float": "500",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		RequiresApproval bool   `json:"requires_approval"`
		VarianceBand     string `json:"variance_band"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "open", created.Status)
	assert.Equal(t, "ok", created.VarianceBand)

	base := "/api/v1/cash-sessions/" + created.ID
	rec = doJSON(t, router, http.MethodPost, base+"/collections", "", map[string]interface{}{
		"order_id":       "ORD-1",
		"amount":         "300",
		"payment_method": "cash",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPut, base+"/close", "", map[string]interface{}{
		"actual_cash": "700",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var closed struct {
		Status             string `json:"status"`
		ExpectedCash       string `json:"expected_cash"`
		Variance           string `json:"variance"`
		VariancePercentage string `json:"variance_percentage"`
		RequiresApproval   bool   `json:"requires_approval"`
		VarianceBand       string `json:"variance_band"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &closed))
	assert.Equal(t, "closed", closed.Status)
	assert.Equal(t, "800", closed.ExpectedCash)
	assert.Equal(t, "-100", closed.Variance)
	assert.Equal(t, "-12.5", closed.VariancePercentage)
	assert.True(t, closed.RequiresApproval)
	assert.Equal(t, "critical", closed.VarianceBand)

	// Approval requires a manager token.
	rec = doJSON(t, router, http.MethodPost, base+"/approve", "", map[string]interface{}{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	managerID := uuid.NewString()
	rec = doJSON(t, router, http.MethodPost, base+"/approve", managerToken(t, managerID), map[string]interface{}{
		"notes": "verified against order slips",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var approved struct {
		Status     string `json:"status"`
		ApprovedBy string `json:"approved_by"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &approved))
	assert.Equal(t, "approved", approved.Status)
	assert.Equal(t, managerID, approved.ApprovedBy)
}

func TestErrorStatusMapping(t *testing.T) {
	router, agentID := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/cash-sessions/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/cash-sessions", "", map[string]interface{}{
		"agent_id":      agentID,
		"opening_float": "-10",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/cash-sessions", "", map[string]interface{}{
		"agent_id":      agentID,
		"opening_float": "100",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	base := "/api/v1/cash-sessions/" + created.ID

	rec = doJSON(t, router, http.MethodPut, base+"/close", "", map[string]interface{}{"actual_cash": "100"})
	require.Equal(t, http.StatusOK, rec.Code)

	// Closed sessions reject further collections with 422.
	rec = doJSON(t, router, http.MethodPost, base+"/collections", "", map[string]interface{}{
		"order_id": "ORD-1", "amount": "5", "payment_method": "cash",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestReportSummaryEndpoint(t *testing.T) {
	router, agentID := newTestRouter(t)

	open := func() string {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/cash-sessions", "", map[string]interface{}{
			"agent_id":      agentID,
			"opening_float": "1000",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		var created struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		return created.ID
	}
	closeWith := func(id, actual string) {
		rec := doJSON(t, router, http.MethodPut,
			fmt.Sprintf("/api/v1/cash-sessions/%s/close", id), "",
			map[string]interface{}{"actual_cash": actual})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	first := open()
	closeWith(first, "980")
	closeWith(open(), "800")

	rec := doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/v1/cash-sessions/%s/deposits", first), "",
		map[string]interface{}{
			"amount":           "900",
			"bank_name":        "Zanaco",
			"reference_number": "DEP-100",
		})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/v1/cash-reports/summary", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report struct {
		Currency string `json:"currency"`
		Summary  struct {
			TotalSessions int    `json:"total_sessions"`
			TotalVariance string `json:"total_variance"`
			ShortageCount int    `json:"shortage_count"`
			AccuracyRate  string `json:"accuracy_rate"`
		} `json:"summary"`
		Deposits struct {
			PendingCount int    `json:"pending_count"`
			PendingTotal string `json:"pending_total"`
		} `json:"deposits"`
		TopVariances []struct {
			Variance string `json:"variance"`
		} `json:"top_variances"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	assert.Equal(t, "ZMW", report.Currency)
	assert.Equal(t, 2, report.Summary.TotalSessions)
	assert.Equal(t, "-220", report.Summary.TotalVariance)
	assert.Equal(t, 2, report.Summary.ShortageCount)
	assert.Equal(t, "89", report.Summary.AccuracyRate)
	assert.Equal(t, 1, report.Deposits.PendingCount)
	assert.Equal(t, "900", report.Deposits.PendingTotal)
	require.Len(t, report.TopVariances, 2)
	assert.Equal(t, "-200", report.TopVariances[0].Variance)
	assert.Equal(t, "-20", report.TopVariances[1].Variance)
}
