// Package credentials owns per-user LinkedIn tokens and refreshes them on
// demand before use.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/postcycle/postcycle/internal/linkedin"
	"github.com/postcycle/postcycle/internal/models"
)

// ErrUnavailable means no usable access token exists for the user right now:
// no credential stored, the token expired without a refresh token, or the
// refresh call failed. Callers skip the user's work and try again on a later
// sweep; this is never fatal.
var ErrUnavailable = errors.New("linkedin credential unavailable")

// TokenRefresher is the slice of the LinkedIn client the manager needs.
type TokenRefresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*linkedin.TokenResponse, error)
}

// Store is the storage surface the manager needs.
type Store interface {
	// Credential returns the user's credential, or nil when none exists.
	Credential(ctx context.Context, userID uint) (*models.LinkedInCredential, error)
	// SaveCredential overwrites the user's stored credential.
	SaveCredential(ctx context.Context, cred *models.LinkedInCredential) error
}

// Manager hands out valid access tokens, transparently refreshing expired
// ones.
type Manager struct {
	store     Store
	refresher TokenRefresher
	logger    *slog.Logger
	now       func() time.Time
}

// NewManager creates a Manager.
func NewManager(store Store, refresher TokenRefresher, logger *slog.Logger) *Manager {
	return &Manager{
		store:     store,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
}

// EnsureValid returns a usable access token for the user. An unexpired stored
// token is returned as is. An expired token with a refresh token is refreshed
// first and the new credential persisted. Everything else yields
// ErrUnavailable.
func (m *Manager) EnsureValid(ctx context.Context, userID uint) (string, error) {
	cred, err := m.store.Credential(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	if cred == nil || cred.AccessToken == "" {
		return "", ErrUnavailable
	}

	nowMillis := m.now().UnixMilli()
	if !cred.Expired(nowMillis) {
		return cred.AccessToken, nil
	}

	if cred.RefreshToken == "" {
		m.logger.Info("Access token expired and no refresh token available",
			"user_id", userID,
		)
		return "", ErrUnavailable
	}

	tokens, err := m.refresher.RefreshAccessToken(ctx, cred.RefreshToken)
	if err != nil {
		m.logger.Warn("Token refresh failed",
			"user_id", userID,
			"error", err.Error(),
		)
		return "", ErrUnavailable
	}

	cred.AccessToken = tokens.AccessToken
	cred.RefreshToken = tokens.RefreshToken
	cred.ExpiresAt = nowMillis + tokens.ExpiresIn*1000
	// Saving seals the tokens in place via the model's BeforeSave hook, so
	// hold on to the plaintext before the struct is handed to the store.
	accessToken := tokens.AccessToken
	if err := m.store.SaveCredential(ctx, cred); err != nil {
		return "", fmt.Errorf("failed to persist refreshed credential: %w", err)
	}

	m.logger.Info("Refreshed LinkedIn access token",
		"user_id", userID,
		"expires_at", cred.ExpiresAt,
	)
	return accessToken, nil
}

// Connect stores freshly issued tokens for a user, creating the credential
// row on first connect. Used by the hosting application after the OAuth code
// exchange.
func (m *Manager) Connect(ctx context.Context, userID uint, tokens *linkedin.TokenResponse, profileID string) error {
	cred, err := m.store.Credential(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load credential: %w", err)
	}
	if cred == nil {
		cred = &models.LinkedInCredential{UserID: userID}
	}

	cred.AccessToken = tokens.AccessToken
	cred.RefreshToken = tokens.RefreshToken
	cred.ExpiresAt = m.now().UnixMilli() + tokens.ExpiresIn*1000
	if profileID != "" {
		cred.ProfileID = profileID
	}
	return m.store.SaveCredential(ctx, cred)
}
