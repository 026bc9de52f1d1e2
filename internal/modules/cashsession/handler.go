package cashsession

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chandab/vansales-backend/internal/modules/auth"
)

// Handler exposes cash-session HTTP endpoints. Approval routes are wrapped
// with the manager guard handed in from main.
type Handler struct {
	service     Service
	currency    string
	managerOnly []func(http.Handler) http.Handler
}

// NewHandler creates a cash-session handler. currency is the tenant's
// display currency code, echoed on reports; the core never formats amounts.
func NewHandler(service Service, currency string, managerOnly ...func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, currency: currency, managerOnly: managerOnly}
}

func (h *Handler) RegisterRoutes(router *chi.Mux) {
	router.Route("/api/v1/cash-sessions", func(r chi.Router) {
		r.Post("/", h.startSession)                       // POST   /api/v1/cash-sessions
		r.Get("/", h.listSessions)                        // GET    /api/v1/cash-sessions?status=&agent_id=&start_date=&end_date=
		r.Get("/{id}", h.getSession)                      // GET    /api/v1/cash-sessions/{id}
		r.Post("/{id}/collections", h.recordCollection)   // POST   /api/v1/cash-sessions/{id}/collections
		r.Get("/{id}/collections", h.listCollections)     // GET    /api/v1/cash-sessions/{id}/collections
		r.Put("/{id}/close", h.closeSession)              // PUT    /api/v1/cash-sessions/{id}/close
		r.Post("/{id}/deposits", h.recordDeposit)         // POST   /api/v1/cash-sessions/{id}/deposits
		r.Get("/{id}/deposits", h.listDeposits)           // GET    /api/v1/cash-sessions/{id}/deposits
		r.With(h.managerOnly...).Post("/{id}/approve", h.approve) // POST /api/v1/cash-sessions/{id}/approve
		r.With(h.managerOnly...).Post("/{id}/reject", h.reject)   // POST /api/v1/cash-sessions/{id}/reject
	})
	router.With(h.managerOnly...).Put("/api/v1/deposits/{id}/status", h.updateDepositStatus)
	router.Get("/api/v1/cash-reports/summary", h.reportSummary)
}

// sessionView decorates a session with the approval-policy fields the
// variance pages sort and badge by.
type sessionView struct {
	*CashSession
	RequiresApproval bool         `json:"requires_approval"`
	VarianceBand     VarianceBand `json:"variance_band"`
}

func viewOf(s *CashSession) sessionView {
	return sessionView{CashSession: s, RequiresApproval: RequiresApproval(s), VarianceBand: BandFor(s)}
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	session, err := h.service.StartSession(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, viewOf(session))
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, struct {
		*SessionDetail
		RequiresApproval bool         `json:"requires_approval"`
		VarianceBand     VarianceBand `json:"variance_band"`
	}{detail, RequiresApproval(detail.CashSession), BandFor(detail.CashSession)})
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sessions, err := h.service.ListSessions(r.Context(), f)
	if err != nil {
		respondError(w, err)
		return
	}
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, viewOf(s))
	}
	respond(w, http.StatusOK, map[string]interface{}{"data": views})
}

func (h *Handler) recordCollection(w http.ResponseWriter, r *http.Request) {
	var req RecordCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	collection, err := h.service.RecordCollection(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, collection)
}

func (h *Handler) listCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.service.ListCollections(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"data": collections})
}

func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	var req CloseSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	session, err := h.service.CloseSession(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, viewOf(session))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.ApproveVariance)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.RejectVariance)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, sessionID, approverID, notes string) (*CashSession, error)) {
	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	approver := req.ApprovedBy
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		approver = claims.Subject
	}
	if approver == "" {
		respond(w, http.StatusBadRequest, map[string]string{"error": "approver is required"})
		return
	}

	session, err := op(r.Context(), chi.URLParam(r, "id"), approver, req.Notes)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, viewOf(session))
}

func (h *Handler) recordDeposit(w http.ResponseWriter, r *http.Request) {
	var req RecordDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	deposit, err := h.service.RecordDeposit(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, deposit)
}

func (h *Handler) listDeposits(w http.ResponseWriter, r *http.Request) {
	deposits, err := h.service.ListDeposits(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"data": deposits})
}

func (h *Handler) updateDepositStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateDepositStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	deposit, err := h.service.UpdateDepositStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, deposit)
}

func (h *Handler) reportSummary(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sessions, err := h.service.ListSessions(r.Context(), f)
	if err != nil {
		respondError(w, err)
		return
	}

	deposits, err := h.service.ListDepositsInRange(r.Context(), f.From, f.To)
	if err != nil {
		respondError(w, err)
		return
	}

	top := make([]sessionView, 0)
	for _, s := range TopVariances(sessions, 10) {
		top = append(top, viewOf(s))
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"currency":      h.currency,
		"summary":       Summarize(sessions),
		"deposits":      SummarizeDeposits(deposits),
		"top_variances": top,
	})
}

func filterFromQuery(r *http.Request) (SessionFilter, error) {
	f := SessionFilter{
		Status:  SessionStatus(r.URL.Query().Get("status")),
		AgentID: r.URL.Query().Get("agent_id"),
	}
	if v := r.URL.Query().Get("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, err
		}
		f.From = t
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, err
		}
		f.To = t
	}
	return f, nil
}

func respondError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	msg := err.Error()
	switch {
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrInvalidAmount):
		code = http.StatusBadRequest
	case errors.Is(err, ErrInvalidSessionState):
		code = http.StatusUnprocessableEntity
	case strings.Contains(msg, "required") || strings.Contains(msg, "invalid"):
		code = http.StatusBadRequest
	}
	respond(w, code, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
