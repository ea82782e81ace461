package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Handler serves the dashboard API.
type Handler struct {
	connections driving.ConnectionService
	mux         *http.ServeMux
}

// NewHandler creates the API handler.
func NewHandler(connections driving.ConnectionService) *Handler {
	h := &Handler{connections: connections, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /healthz", h.health)
	h.mux.HandleFunc("GET /integrations", h.list)
	h.mux.HandleFunc("GET /integrations/{p}", h.get)
	h.mux.HandleFunc("PUT /integrations/{p}/enabled", h.setEnabled)
	h.mux.HandleFunc("PATCH /integrations/{p}/settings", h.updateSettings)
	h.mux.HandleFunc("POST /integrations/{p}/connect", h.connect)
	h.mux.HandleFunc("POST /integrations/{p}/cancel", h.cancel)
	h.mux.HandleFunc("POST /integrations/{p}/disconnect", h.disconnect)
	h.mux.HandleFunc("POST /integrations/{p}/actions/{name}", h.action)

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger.Debug("httpapi: %s %s", r.Method, r.URL.Path)
	h.mux.ServeHTTP(w, r)
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

type settingsRequest struct {
	Settings domain.Settings `json:"settings"`
}

type connectRequest struct {
	Token string `json:"token"`
}

type warningsResponse struct {
	Integration *driving.ProviderView `json:"integration,omitempty"`
	Warnings    []string              `json:"warnings,omitempty"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    domain.ErrorKind `json:"kind,omitempty"`
	Message string           `json:"message"`
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) list(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"integrations": h.connections.List()})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	view, err := h.connections.Get(providerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) setEnabled(w http.ResponseWriter, r *http.Request) {
	var req enabledRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Enabled == nil {
		writeError(w, errors.Join(domain.ErrInvalidInput, errors.New("enabled is required")))
		return
	}
	id := providerID(r)
	warnings, err := h.connections.SetEnabled(r.Context(), id, *req.Enabled)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeView(w, id, warnings)
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := providerID(r)
	warnings, err := h.connections.UpdateSettings(r.Context(), id, req.Settings)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeView(w, id, warnings)
}

func (h *Handler) connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.connections.Connect(r.Context(), providerID(r), req.Token)
	if err != nil && result == nil {
		writeError(w, err)
		return
	}
	if err != nil {
		// Timed-out popups report a phase alongside the error.
		writeJSON(w, statusFor(err), map[string]any{
			"result": result,
			"error":  errorDetail{Kind: domain.KindOf(err), Message: err.Error()},
		})
		return
	}
	status := http.StatusOK
	if result.Phase == domain.PhaseAwaitingCallback {
		status = http.StatusAccepted
	}
	writeJSON(w, status, result)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.connections.CancelPopup(providerID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) disconnect(w http.ResponseWriter, r *http.Request) {
	result, err := h.connections.Disconnect(r.Context(), providerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) action(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{}
	if err := decode(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.connections.InvokeAction(r.Context(), providerID(r), r.PathValue("name"), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeView(w http.ResponseWriter, id domain.ProviderID, warnings []string) {
	view, err := h.connections.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, warningsResponse{Integration: view, Warnings: warnings})
}

func providerID(r *http.Request) domain.ProviderID {
	return domain.ProviderID(r.PathValue("p"))
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(domain.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("httpapi: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: errorDetail{
		Kind:    domain.KindOf(err),
		Message: err.Error(),
	}})
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindUnknownProvider:
		return http.StatusNotFound
	case domain.KindValidationFailed, domain.KindCSRFMismatch, domain.KindUnsupportedFlow:
		return http.StatusBadRequest
	case domain.KindFlowInProgress, domain.KindNotAvailable:
		return http.StatusConflict
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	case domain.KindExchangeFailed, domain.KindIdentityFetchFailed, domain.KindPersistenceUnavailable:
		return http.StatusBadGateway
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnknownProvider):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotImplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
