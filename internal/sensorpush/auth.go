package sensorpush

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"herptrack-backend/internal/model"
	"herptrack-backend/internal/store"
)

// ErrNoToken signals that no usable access token exists and the user must
// reconnect their SensorPush account. It is a precondition, not a failure.
var ErrNoToken = errors.New("no valid sensorpush token")

// AuthError is a fatal authentication failure during the credential exchange.
type AuthError struct {
	Step   string
	Status int
	Reason string
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("sensorpush %s failed: %s (status %d)", e.Step, e.Reason, e.Status)
	}
	return fmt.Sprintf("sensorpush %s failed: %s", e.Step, e.Reason)
}

// Upstream token lifetimes and the horizons we actually trust. The margins
// guarantee the local expiry check fires before the upstream invalidates the
// credential, so no request is ever issued with a token about to expire
// server-side.
const (
	accessTokenLifetime  = 30 * time.Minute
	accessTokenHorizon   = 25 * time.Minute
	refreshTokenLifetime = 60 * time.Minute
	refreshTokenHorizon  = 55 * time.Minute
)

// AuthManager owns the three-step SensorPush credential exchange and the
// refresh-on-expiry path.
type AuthManager struct {
	store  store.Store
	client *Client
	gate   *CallGate
	now    func() time.Time
}

// NewAuthManager wires the auth flow to the token store, API client and the
// shared call gate.
func NewAuthManager(s store.Store, client *Client, gate *CallGate) *AuthManager {
	return &AuthManager{store: s, client: client, gate: gate, now: time.Now}
}

// Authenticate runs credentials -> authorization -> access/refresh tokens and
// persists all obtained token kinds. Any persistence failure fails the whole
// call; tokens already obtained are discarded and the exchange restarts from
// scratch on retry.
func (a *AuthManager) Authenticate(ctx context.Context, ownerID uuid.UUID, email, password string) error {
	resp, err := a.client.Do(ctx, http.MethodPost, "/oauth/authorize", "", authorizeRequest{Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("authorize request: %w", err)
	}
	if !resp.OK() {
		return &AuthError{Step: "authorize", Status: resp.StatusCode, Reason: "credentials rejected"}
	}
	var auth authorizeResponse
	if err := resp.Decode(&auth); err != nil {
		return err
	}
	if auth.Authorization == "" {
		return &AuthError{Step: "authorize", Reason: "response carried no authorization value"}
	}

	if err := a.gate.Wait(ctx); err != nil {
		return err
	}

	resp, err = a.client.Do(ctx, http.MethodPost, "/oauth/accesstoken", "", accessTokenRequest{Authorization: auth.Authorization})
	if err != nil {
		return fmt.Errorf("access token request: %w", err)
	}
	if !resp.OK() {
		return &AuthError{Step: "access token exchange", Status: resp.StatusCode, Reason: "authorization rejected"}
	}
	var tokens tokenResponse
	if err := resp.Decode(&tokens); err != nil {
		return err
	}
	if tokens.AccessToken == "" {
		return &AuthError{Step: "access token exchange", Reason: "response carried no access token"}
	}
	if tokens.RefreshToken == "" {
		log.Printf("sensorpush: access token response carried no refresh token; refresh will be unavailable")
	}

	now := a.now()
	if err := a.store.UpsertToken(ctx, ownerID, model.ServiceSensorPushAuthorization, auth.Authorization, now.Add(refreshTokenHorizon)); err != nil {
		return fmt.Errorf("persisting authorization token: %w", err)
	}
	if err := a.store.UpsertToken(ctx, ownerID, model.ServiceSensorPushAccess, tokens.AccessToken, now.Add(accessTokenHorizon)); err != nil {
		return fmt.Errorf("persisting access token: %w", err)
	}
	if tokens.RefreshToken != "" {
		if err := a.store.UpsertToken(ctx, ownerID, model.ServiceSensorPushRefresh, tokens.RefreshToken, now.Add(refreshTokenHorizon)); err != nil {
			return fmt.Errorf("persisting refresh token: %w", err)
		}
	}
	return nil
}

// GetValidToken returns a usable access token, refreshing it when the trusted
// horizon has passed. Every failure on the refresh path collapses to
// ErrNoToken; the caller falls back to prompting re-authentication.
func (a *AuthManager) GetValidToken(ctx context.Context, ownerID uuid.UUID) (string, error) {
	access, err := a.store.GetToken(ctx, ownerID, model.ServiceSensorPushAccess)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNoToken
		}
		return "", err
	}

	now := a.now()
	if access.ExpiresAt.After(now) {
		return access.TokenValue, nil
	}

	refresh, err := a.store.GetToken(ctx, ownerID, model.ServiceSensorPushRefresh)
	if err != nil || !refresh.ExpiresAt.After(now) {
		return "", ErrNoToken
	}

	if err := a.gate.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := a.client.Do(ctx, http.MethodPost, "/oauth/refreshtoken", "", refreshTokenRequest{RefreshToken: refresh.TokenValue})
	if err != nil {
		log.Printf("sensorpush: token refresh failed: %v", err)
		return "", ErrNoToken
	}
	if !resp.OK() {
		log.Printf("sensorpush: token refresh rejected with status %d", resp.StatusCode)
		return "", ErrNoToken
	}
	var tokens tokenResponse
	if err := resp.Decode(&tokens); err != nil || tokens.AccessToken == "" {
		log.Printf("sensorpush: token refresh returned no access token")
		return "", ErrNoToken
	}

	now = a.now()
	if err := a.store.UpsertToken(ctx, ownerID, model.ServiceSensorPushAccess, tokens.AccessToken, now.Add(accessTokenHorizon)); err != nil {
		log.Printf("sensorpush: failed to persist refreshed access token: %v", err)
		return "", ErrNoToken
	}
	if tokens.RefreshToken != "" {
		if err := a.store.UpsertToken(ctx, ownerID, model.ServiceSensorPushRefresh, tokens.RefreshToken, now.Add(refreshTokenHorizon)); err != nil {
			log.Printf("sensorpush: failed to persist rotated refresh token: %v", err)
			return "", ErrNoToken
		}
	}
	return tokens.AccessToken, nil
}

// Connected reports whether the owner holds any SensorPush token state.
func (a *AuthManager) Connected(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	_, err := a.store.GetToken(ctx, ownerID, model.ServiceSensorPushAccess)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Disconnect removes all stored SensorPush credentials for the owner.
func (a *AuthManager) Disconnect(ctx context.Context, ownerID uuid.UUID) error {
	return a.store.DeleteTokens(ctx, ownerID,
		model.ServiceSensorPushAuthorization,
		model.ServiceSensorPushAccess,
		model.ServiceSensorPushRefresh,
	)
}
