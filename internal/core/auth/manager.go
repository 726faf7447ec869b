package auth

import (
	"context"
	"errors"
	"fmt"

	"auto-cart/internal/pkg/common"

	"go.uber.org/zap"
)

// TokenExchanger performs authorization-code exchange and refresh rotation.
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code string) (access, refresh string, err error)
	Refresh(ctx context.Context, refreshToken string) (access, refresh string, err error)
}

// ProfileProber is the lightweight validity probe: a cheap authenticated
// call whose 401/403 means the token was rejected.
type ProfileProber interface {
	Profile(ctx context.Context, token string) (string, error)
}

// Manager owns the credential lifecycle: acquisition, validity probing and
// silent refresh. Nothing else mutates stored credentials.
type Manager struct {
	store     CredentialStore
	exchanger TokenExchanger
	prober    ProfileProber
}

// NewManager creates a token lifecycle manager.
func NewManager(store CredentialStore, exchanger TokenExchanger, prober ProfileProber) *Manager {
	return &Manager{
		store:     store,
		exchanger: exchanger,
		prober:    prober,
	}
}

// EnsureValidToken returns a usable access token for the account, probing
// the stored token and silently refreshing it once if the external service
// explicitly rejected it. Transient probe failures (timeouts, 5xx) do not
// discard a credential. After a failed refresh all three credential fields
// are cleared together and the caller must restart the authorization-code
// flow.
func (m *Manager) EnsureValidToken(ctx context.Context, accountID string) (string, error) {
	cred, err := m.store.Get(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("credential lookup: %w", err)
	}
	if cred.Empty() {
		return "", common.ErrCredentialMissing
	}

	_, probeErr := m.prober.Profile(ctx, cred.AccessToken)
	if probeErr == nil {
		return cred.AccessToken, nil
	}
	if !errors.Is(probeErr, common.ErrCredentialRejected) {
		// Token may still be valid; the probe itself failed.
		return "", probeErr
	}

	common.LogTokenEvent("access token rejected, attempting refresh", accountID)
	return m.refresh(ctx, accountID, cred)
}

// refresh performs the single silent refresh attempt. The rotated pair must
// be persisted before any other use: the old refresh token is dead the
// moment the rotation succeeds.
func (m *Manager) refresh(ctx context.Context, accountID string, cred *Credential) (string, error) {
	if cred.RefreshToken == "" {
		// Known-empty refresh token: no point hitting the network.
		if err := m.store.Clear(ctx, accountID); err != nil {
			common.LogError("failed to clear credentials", zap.Error(err))
		}
		return "", common.ErrCredentialRejected
	}

	access, refreshToken, err := m.exchanger.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		common.LogTokenEvent("refresh failed, clearing credentials", accountID)
		if clearErr := m.store.Clear(ctx, accountID); clearErr != nil {
			common.LogError("failed to clear credentials", zap.Error(clearErr))
		}
		return "", common.ErrCredentialRejected
	}

	rotated := &Credential{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ProfileID:    cred.ProfileID,
	}
	if err := m.store.Save(ctx, accountID, rotated); err != nil {
		return "", fmt.Errorf("persist rotated credential: %w", err)
	}

	common.LogTokenEvent("refresh succeeded", accountID)
	return access, nil
}

// HandleCallback completes the authorization-code flow: exchanges the code,
// fetches the profile id and persists the credential triple as a unit.
func (m *Manager) HandleCallback(ctx context.Context, accountID, code string) error {
	access, refreshToken, err := m.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("code exchange: %w", err)
	}

	profileID, err := m.prober.Profile(ctx, access)
	if err != nil {
		// The pair is valid even if the profile fetch hiccups; store it
		// without the profile id rather than stranding the user.
		common.LogWarn("profile fetch after code exchange failed", zap.Error(err))
		profileID = ""
	}

	cred := &Credential{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ProfileID:    profileID,
	}
	if err := m.store.Save(ctx, accountID, cred); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}

	common.LogTokenEvent("account linked", accountID)
	return nil
}

// Unlink drops the account's credential triple.
func (m *Manager) Unlink(ctx context.Context, accountID string) error {
	return m.store.Clear(ctx, accountID)
}
