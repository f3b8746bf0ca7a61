package accessapi

import (
	"time"

	"datagate/cmd/internal/access/credential"
	"datagate/cmd/internal/access/grant"
)

type extendRequest struct {
	AdditionalHours int `json:"additional_hours"`
}

type endpointResponse struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	SessionID      string    `json:"session_id"`
	ClientID       string    `json:"client_id"`
	State          string    `json:"state"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	Permissions    []string  `json:"permissions"`
}

type sessionCreatedResponse struct {
	Session  sessionResponse  `json:"session"`
	Endpoint endpointResponse `json:"endpoint"`
}

type sessionListResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type sessionsRevokedResponse struct {
	Revoked int `json:"revoked"`
}

type secretResponse struct {
	ClientID  string    `json:"client_id"`
	Secret    string    `json:"secret"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type secretWindowResponse struct {
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type contributorInfoResponse struct {
	UserID   string                `json:"user_id"`
	ClientID string                `json:"client_id"`
	Status   string                `json:"status"`
	Secret   *secretWindowResponse `json:"secret,omitempty"`
}

func toSessionResponse(g grant.Grant, now time.Time) sessionResponse {
	return sessionResponse{
		SessionID:      g.ID,
		ClientID:       g.ClientID,
		State:          string(g.StateAt(now)),
		CreatedAt:      g.CreatedAt,
		ExpiresAt:      g.ExpiresAt,
		LastAccessedAt: g.LastAccessedAt,
		Permissions:    g.Permissions,
	}
}

func toSecretResponse(issued credential.Issued) secretResponse {
	return secretResponse{
		ClientID:  issued.ClientID,
		Secret:    issued.Secret,
		CreatedAt: issued.CreatedAt,
		ExpiresAt: issued.ExpiresAt,
	}
}

func toContributorInfoResponse(info credential.Info) contributorInfoResponse {
	resp := contributorInfoResponse{
		UserID:   info.UserID,
		ClientID: info.ClientID,
		Status:   string(info.Status),
	}
	if info.Secret != nil {
		resp.Secret = &secretWindowResponse{
			CreatedAt: info.Secret.CreatedAt,
			ExpiresAt: info.Secret.ExpiresAt,
		}
	}
	return resp
}
