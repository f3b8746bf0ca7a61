package accessapi

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"datagate/cmd/internal/access/credential"
	"datagate/cmd/internal/access/grant"
	"datagate/cmd/internal/contributor"

	"github.com/google/uuid"
)

// Handler wires contributor HTTP endpoints to the grant and credential
// services. Caller identity arrives in the X-Contributor-Id header; the
// account stack in front of this service is responsible for having
// authenticated it.
type Handler struct {
	log     *slog.Logger
	cfg     Config
	grants  *grant.Service
	rotator *credential.Rotator
}

// NewHandler constructs a contributor API handler.
func NewHandler(log *slog.Logger, cfg Config, grants *grant.Service, rotator *credential.Rotator) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if grants == nil || rotator == nil {
		return nil, errors.New("accessapi: nil service")
	}
	return &Handler{log: log, cfg: cfg.withDefaults(), grants: grants, rotator: rotator}, nil
}

// Register wires contributor routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /contributor/sessions", h.handleSessionCreate)
	mux.HandleFunc("GET /contributor/sessions", h.handleSessionList)
	mux.HandleFunc("DELETE /contributor/sessions", h.handleSessionDeleteAll)
	mux.HandleFunc("GET /contributor/sessions/{id}", h.handleSessionGet)
	mux.HandleFunc("DELETE /contributor/sessions/{id}", h.handleSessionDelete)
	mux.HandleFunc("POST /contributor/sessions/{id}/extend", h.handleSessionExtend)
	mux.HandleFunc("POST /contributor/secret", h.handleSecretRotate)
	mux.HandleFunc("GET /contributor/info", h.handleInfo)
}

// ---- handlers ----

func (h *Handler) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := contributorID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_contributor", "valid X-Contributor-Id header required")
		return
	}

	now := time.Now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)
	ua := strings.TrimSpace(r.UserAgent())

	var ipStr string
	if ip != nil {
		ipStr = ip.String()
	}

	g, creds, err := h.grants.Create(r.Context(), now, userID, ipStr, ua)
	if err != nil {
		h.writeGrantError(w, err)
		return
	}

	h.log.Info("access.session.created", "user_id", userID, "session_id", g.ID)
	writeJSON(w, http.StatusCreated, sessionCreatedResponse{
		Session: toSessionResponse(g, now),
		Endpoint: endpointResponse{
			Username: creds.Username,
			Password: creds.Password,
		},
	})
}

func (h *Handler) handleSessionList(w http.ResponseWriter, r *http.Request) {
	userID, ok := contributorID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_contributor", "valid X-Contributor-Id header required")
		return
	}

	now := time.Now().UTC()
	grants, err := h.grants.ListActive(r.Context(), now, userID)
	if err != nil {
		h.writeGrantError(w, err)
		return
	}

	resp := sessionListResponse{Sessions: make([]sessionResponse, 0, len(grants))}
	for _, g := range grants {
		resp.Sessions = append(resp.Sessions, toSessionResponse(g, now))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := contributorID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_contributor", "valid X-Contributor-Id header required")
		return
	}

	now := time.Now().UTC()
	g, err := h.grants.Get(r.Context(), now, r.PathValue("id"), userID)
	if err != nil {
		h.writeGrantError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(g, now))
}

func (h *Handler) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := contributorID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_contributor", "valid X-Contributor-Id header required")
		return
	}

	now := time.Now().UTC()
	id := r.PathValue("id")
	if err := h.grants.Delete(r.Context(), now, id, userID); err != nil {
		h.writeGrantError(w, err)
		return
	}

	h.log.Info("access.session.revoked", "user_id", userID, "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSessionDeleteAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := contributorID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_contributor", "valid X-Contributor-Id header required")
		return
	}

	now := time.Now().UTC()
	n, err := h.grants.DeleteAll(r.Context(), now, userID)
	if err != nil {
		h.writeGrantError(w, err)
		return
	}

	h.log.Info("access.session.revoked_all", "user_id", userID, "count", n)
	writeJSON(w, http.StatusOK, sessionsRevokedResponse{Revoked: n})
}

func (h *Handler) handleSessionExtend(w http.ResponseWriter, r *http.Request) {
	userID, ok := contributorID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_contributor", "valid X-Contributor-Id header required")
		return
	}

	var req extendRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	now := time.Now().UTC()
	id := r.PathValue("id")
	g, creds, err := h.grants.Extend(r.Context(), now, id, userID, req.AdditionalHours)
	if err != nil {
		h.writeGrantError(w, err)
		return
	}

	h.log.Info("access.session.extended", "user_id", userID, "session_id", id, "hours", req.AdditionalHours)
	writeJSON(w, http.StatusOK, sessionCreatedResponse{
		Session: toSessionResponse(g, now),
		Endpoint: endpointResponse{
			Username: creds.Username,
			Password: creds.Password,
		},
	})
}

func (h *Handler) handleSecretRotate(w http.ResponseWriter, r *http.Request) {
	userID, ok := contributorID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_contributor", "valid X-Contributor-Id header required")
		return
	}

	now := time.Now().UTC()
	issued, err := h.rotator.Rotate(r.Context(), now, userID)
	if err != nil {
		h.writeCredentialError(w, err)
		return
	}

	h.log.Info("access.secret.rotated", "user_id", userID, "client_id", issued.ClientID)
	writeJSON(w, http.StatusOK, toSecretResponse(issued))
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	userID, ok := contributorID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_contributor", "valid X-Contributor-Id header required")
		return
	}

	info, err := h.rotator.Info(r.Context(), userID)
	if err != nil {
		if errors.Is(err, contributor.ErrNotFound) {
			writeError(w, http.StatusNotFound, "contributor_not_found", "no contribution application on file")
			return
		}
		h.log.Error("access.info.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toContributorInfoResponse(info))
}

// ---- error mapping ----

func (h *Handler) writeGrantError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, grant.ErrForbidden):
		writeError(w, http.StatusForbidden, "not_contributor", "an accepted contribution application is required")
	case errors.Is(err, grant.ErrNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", "no active session with that id")
	case errors.Is(err, grant.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, "session_limit_exceeded", "concurrent session limit reached")
	case errors.Is(err, grant.ErrExtensionDenied):
		writeError(w, http.StatusBadRequest, "extension_denied", "requested extension is out of range")
	default:
		h.log.Error("access.grant.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func (h *Handler) writeCredentialError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, credential.ErrForbidden):
		writeError(w, http.StatusForbidden, "not_contributor", "an accepted contribution application is required")
	case errors.Is(err, credential.ErrSecretNotExpired):
		writeError(w, http.StatusBadRequest, "secret_not_expired", "current secret is still valid")
	default:
		h.log.Error("access.credential.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

// ---- helpers ----

// contributorID extracts the authenticated principal from X-Contributor-Id.
// The value must be a UUID; the canonical form is used for all lookups.
func contributorID(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("X-Contributor-Id"))
	if raw == "" {
		return "", false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	for _, p := range strings.Split(raw, ",") {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}
