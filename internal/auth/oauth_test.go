package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/seatrack/seatrack/backend/go-services/internal/apperr"
	"github.com/seatrack/seatrack/backend/go-services/internal/models"
	"github.com/seatrack/seatrack/backend/go-services/internal/users"
	"github.com/stretchr/testify/require"
)

// vanishingStore reports a duplicate on insert but the other record is gone
// by the time it is read back.
type vanishingStore struct {
	*users.MemoryStore
}

func (vanishingStore) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	return nil, users.ErrDuplicateEmail
}

func TestFindOrCreateFromOAuth_CreatesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := OAuthProfile{Name: "Cy", Email: "Cy@x.com", Avatar: "https://img/cy.png", Provider: "google", ProviderID: "g-42"}

	u, err := f.svc.FindOrCreateFromOAuth(ctx, p)
	require.NoError(t, err)
	require.Equal(t, "cy@x.com", u.Email)
	require.Equal(t, models.RoleUser, u.Role)
	require.Equal(t, "google", u.Provider)
	require.Equal(t, "g-42", u.ProviderID)
	require.False(t, u.HasPassword())

	again, err := f.svc.FindOrCreateFromOAuth(ctx, p)
	require.NoError(t, err)
	require.Equal(t, u.ID, again.ID)

	all, _ := f.store.List(ctx)
	require.Len(t, all, 1)
}

func TestFindOrCreateFromOAuth_LinksExistingPasswordAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.register(t, "Ana", "ana@x.com")

	u, err := f.svc.FindOrCreateFromOAuth(ctx, OAuthProfile{Name: "Ana G", Email: "ana@x.com", Avatar: "https://img/a.png", Provider: "facebook", ProviderID: "fb-1"})
	require.NoError(t, err)
	require.Equal(t, ana.User.ID, u.ID)
	require.Equal(t, "facebook", u.Provider)
	require.Equal(t, "https://img/a.png", u.Avatar)
	require.Equal(t, "Ana", u.Name, "name is not overwritten")

	_, err = f.svc.Login(ctx, "ana@x.com", "secret1")
	require.NoError(t, err, "password still works after linking")

	// a second provider with the same email resolves to the same record
	g, err := f.svc.FindOrCreateFromOAuth(ctx, OAuthProfile{Email: "ana@x.com", Provider: "google", ProviderID: "g-9"})
	require.NoError(t, err)
	require.Equal(t, ana.User.ID, g.ID)
	require.Equal(t, "facebook", g.Provider)
}

func TestFindOrCreateFromOAuth_ProviderIdentityWinsOverEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.svc.FindOrCreateFromOAuth(ctx, OAuthProfile{Email: "old@x.com", Provider: "google", ProviderID: "g-1"})
	require.NoError(t, err)
	require.Equal(t, first.Email, first.Name, "name falls back to email")

	u, err := f.svc.FindOrCreateFromOAuth(ctx, OAuthProfile{Email: "new@x.com", Provider: "google", ProviderID: "g-1"})
	require.NoError(t, err)
	require.Equal(t, first.ID, u.ID)
}

func TestFindOrCreateFromOAuth_NoEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.FindOrCreateFromOAuth(context.Background(), OAuthProfile{Provider: "facebook", ProviderID: "fb-2"})
	require.ErrorIs(t, err, apperr.ProviderError)
}

func TestFindOrCreateFromOAuth_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	ids := make([]int64, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := f.svc.FindOrCreateFromOAuth(ctx, OAuthProfile{Email: "race@x.com", Provider: "google", ProviderID: "g-r"})
			require.NoError(t, err)
			ids[i] = u.ID
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}
}

func TestSignInWithOAuth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.SignInWithOAuth(ctx, OAuthProfile{Name: "Cy", Email: "cy@x.com", Provider: "google", ProviderID: "g-3"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	claims, err := f.svc.Verify(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, claims.UserID)

	_, err = f.svc.ChangeStatus(ctx, models.RoleAdmin, res.User.ID, "inactive")
	require.NoError(t, err)
	_, err = f.svc.SignInWithOAuth(ctx, OAuthProfile{Email: "cy@x.com", Provider: "google", ProviderID: "g-3"})
	require.ErrorIs(t, err, apperr.AccountInactive)
}

func TestFindOrCreateFromOAuth_RaceWinnerDeleted(t *testing.T) {
	f := newFixture(t)
	svc := NewService(vanishingStore{users.NewMemoryStore()}, nil, f.tokens)
	ctx := context.Background()

	u, err := svc.FindOrCreateFromOAuth(ctx, OAuthProfile{Email: "gone@x.com", Provider: "google", ProviderID: "g-9"})
	require.ErrorIs(t, err, apperr.ProviderError)
	require.Nil(t, u)

	require.NotPanics(t, func() {
		_, err = svc.SignInWithOAuth(ctx, OAuthProfile{Email: "gone@x.com", Provider: "google", ProviderID: "g-9"})
	})
	require.ErrorIs(t, err, apperr.ProviderError)
}
