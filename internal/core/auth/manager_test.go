package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"auto-cart/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExchanger struct {
	access       string
	refresh      string
	err          error
	refreshCalls int
	lastRefresh  string
}

func (f *fakeExchanger) ExchangeCode(_ context.Context, _ string) (string, string, error) {
	return f.access, f.refresh, f.err
}

func (f *fakeExchanger) Refresh(_ context.Context, refreshToken string) (string, string, error) {
	f.refreshCalls++
	f.lastRefresh = refreshToken
	return f.access, f.refresh, f.err
}

type fakeProber struct {
	profileID string
	err       error
	calls     int
}

func (f *fakeProber) Profile(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.profileID, f.err
}

func seedStore(t *testing.T, cred *Credential) CredentialStore {
	t.Helper()
	store := NewMemoryCredentialStore()
	require.NoError(t, store.Save(context.Background(), "acct", cred))
	return store
}

func TestEnsureValidToken(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token passes the probe untouched", func(t *testing.T) {
		store := seedStore(t, &Credential{AccessToken: "access-1", RefreshToken: "refresh-1"})
		exchanger := &fakeExchanger{}
		manager := NewManager(store, exchanger, &fakeProber{profileID: "p1"})

		token, err := manager.EnsureValidToken(ctx, "acct")
		require.NoError(t, err)
		assert.Equal(t, "access-1", token)
		assert.Zero(t, exchanger.refreshCalls)
	})

	t.Run("missing credential never touches the network", func(t *testing.T) {
		prober := &fakeProber{}
		manager := NewManager(NewMemoryCredentialStore(), &fakeExchanger{}, prober)

		_, err := manager.EnsureValidToken(ctx, "acct")
		assert.ErrorIs(t, err, common.ErrCredentialMissing)
		assert.Zero(t, prober.calls)
	})

	t.Run("rejected token triggers one silent refresh", func(t *testing.T) {
		store := seedStore(t, &Credential{AccessToken: "stale", RefreshToken: "refresh-1", ProfileID: "p1"})
		exchanger := &fakeExchanger{access: "fresh", refresh: "refresh-2"}
		prober := &fakeProber{err: fmt.Errorf("%w: probe returned status 401", common.ErrCredentialRejected)}
		manager := NewManager(store, exchanger, prober)

		token, err := manager.EnsureValidToken(ctx, "acct")
		require.NoError(t, err)
		assert.Equal(t, "fresh", token)
		assert.Equal(t, 1, exchanger.refreshCalls)
		assert.Equal(t, "refresh-1", exchanger.lastRefresh)

		// The rotated pair must be persisted; the old refresh token is dead.
		cred, err := store.Get(ctx, "acct")
		require.NoError(t, err)
		assert.Equal(t, "fresh", cred.AccessToken)
		assert.Equal(t, "refresh-2", cred.RefreshToken)
		assert.Equal(t, "p1", cred.ProfileID)
	})

	t.Run("transient probe failure keeps the credential", func(t *testing.T) {
		store := seedStore(t, &Credential{AccessToken: "access-1", RefreshToken: "refresh-1"})
		exchanger := &fakeExchanger{}
		probeErr := fmt.Errorf("%w: probe returned status 503", common.ErrCatalogUnavailable)
		manager := NewManager(store, exchanger, &fakeProber{err: probeErr})

		_, err := manager.EnsureValidToken(ctx, "acct")
		assert.ErrorIs(t, err, common.ErrCatalogUnavailable)
		assert.Zero(t, exchanger.refreshCalls)

		cred, getErr := store.Get(ctx, "acct")
		require.NoError(t, getErr)
		assert.Equal(t, "access-1", cred.AccessToken)
	})

	t.Run("failed refresh clears the whole triple", func(t *testing.T) {
		store := seedStore(t, &Credential{AccessToken: "stale", RefreshToken: "dead", ProfileID: "p1"})
		exchanger := &fakeExchanger{err: errors.New("invalid_grant")}
		prober := &fakeProber{err: fmt.Errorf("%w: probe returned status 401", common.ErrCredentialRejected)}
		manager := NewManager(store, exchanger, prober)

		_, err := manager.EnsureValidToken(ctx, "acct")
		assert.ErrorIs(t, err, common.ErrCredentialRejected)

		cred, getErr := store.Get(ctx, "acct")
		require.NoError(t, getErr)
		assert.True(t, cred.Empty())

		// The next call finds nothing on file and stops before the network.
		probesBefore, refreshesBefore := prober.calls, exchanger.refreshCalls
		_, err = manager.EnsureValidToken(ctx, "acct")
		assert.ErrorIs(t, err, common.ErrCredentialMissing)
		assert.Equal(t, probesBefore, prober.calls)
		assert.Equal(t, refreshesBefore, exchanger.refreshCalls)
	})

	t.Run("empty refresh token clears without a network call", func(t *testing.T) {
		store := seedStore(t, &Credential{AccessToken: "stale"})
		exchanger := &fakeExchanger{}
		prober := &fakeProber{err: fmt.Errorf("%w: probe returned status 401", common.ErrCredentialRejected)}
		manager := NewManager(store, exchanger, prober)

		_, err := manager.EnsureValidToken(ctx, "acct")
		assert.ErrorIs(t, err, common.ErrCredentialRejected)
		assert.Zero(t, exchanger.refreshCalls)

		cred, getErr := store.Get(ctx, "acct")
		require.NoError(t, getErr)
		assert.True(t, cred.Empty())
	})
}

func TestHandleCallback(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the credential triple", func(t *testing.T) {
		store := NewMemoryCredentialStore()
		exchanger := &fakeExchanger{access: "access-1", refresh: "refresh-1"}
		manager := NewManager(store, exchanger, &fakeProber{profileID: "p1"})

		require.NoError(t, manager.HandleCallback(ctx, "acct", "auth-code"))

		cred, err := store.Get(ctx, "acct")
		require.NoError(t, err)
		assert.Equal(t, &Credential{AccessToken: "access-1", RefreshToken: "refresh-1", ProfileID: "p1"}, cred)
	})

	t.Run("profile fetch failure does not block linking", func(t *testing.T) {
		store := NewMemoryCredentialStore()
		exchanger := &fakeExchanger{access: "access-1", refresh: "refresh-1"}
		manager := NewManager(store, exchanger, &fakeProber{err: errors.New("profile down")})

		require.NoError(t, manager.HandleCallback(ctx, "acct", "auth-code"))

		cred, err := store.Get(ctx, "acct")
		require.NoError(t, err)
		assert.Equal(t, "access-1", cred.AccessToken)
		assert.Empty(t, cred.ProfileID)
	})

	t.Run("exchange failure stores nothing", func(t *testing.T) {
		store := NewMemoryCredentialStore()
		exchanger := &fakeExchanger{err: errors.New("bad code")}
		manager := NewManager(store, exchanger, &fakeProber{})

		require.Error(t, manager.HandleCallback(ctx, "acct", "bad-code"))

		cred, err := store.Get(ctx, "acct")
		require.NoError(t, err)
		assert.True(t, cred.Empty())
	})
}

func TestUnlink(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, &Credential{AccessToken: "access-1", RefreshToken: "refresh-1"})
	manager := NewManager(store, &fakeExchanger{}, &fakeProber{})

	require.NoError(t, manager.Unlink(ctx, "acct"))

	cred, err := store.Get(ctx, "acct")
	require.NoError(t, err)
	assert.True(t, cred.Empty())
}
