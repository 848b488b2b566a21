package token

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(revoker Revoker) *Manager {
	return NewManager(Options{
		Secret:     []byte("0123456789abcdef0123456789abcdef"),
		Issuer:     "storytelling-test",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}, revoker)
}

func TestIssueAndParsePair(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	pair, err := m.IssuePair(42)
	require.NoError(t, err)

	claims, err := m.ParseAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	_, err = m.ParseRefresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	pair, err := m.IssuePair(1)
	require.NoError(t, err)

	_, err = m.ParseAccess(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = m.ParseRefresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRejectsForeignSignatureAndExpiry(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	other := NewManager(Options{Secret: []byte("another-secret-another-secret-xx"), Issuer: "storytelling-test", AccessTTL: time.Minute}, nil)
	foreign, err := other.IssuePair(1)
	require.NoError(t, err)
	_, err = m.ParseAccess(ctx, foreign.AccessToken)
	assert.ErrorIs(t, err, ErrInvalid)

	pair, err := m.IssuePair(1)
	require.NoError(t, err)
	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = m.ParseAccess(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRevokeWithMemoryRevoker(t *testing.T) {
	m := newTestManager(NewMemoryRevoker())
	ctx := context.Background()

	pair, err := m.IssuePair(7)
	require.NoError(t, err)
	claims, err := m.ParseAccess(ctx, pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, claims))

	_, err = m.ParseAccess(ctx, pair.AccessToken)
	assert.True(t, errors.Is(err, ErrRevoked))

	// a second revocation of the same token loses
	assert.ErrorIs(t, m.Revoke(ctx, claims), ErrRevoked)
}

func TestRedisRevoker(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	revoker := NewRedisRevoker(client)
	ctx := context.Background()
	require.NoError(t, revoker.Ping(ctx))

	m := newTestManager(revoker)
	pair, err := m.IssuePair(9)
	require.NoError(t, err)
	claims, err := m.ParseAccess(ctx, pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, claims))
	_, err = m.ParseAccess(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrRevoked)
	assert.ErrorIs(t, m.Revoke(ctx, claims), ErrRevoked)

	// the revocation key expires with the token
	srv.FastForward(2 * time.Minute)
	revoked, err := revoker.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryRevokerExpires(t *testing.T) {
	r := NewMemoryRevoker()
	ctx := context.Background()
	now := time.Now()
	r.now = func() time.Time { return now }

	ok, err := r.Revoke(ctx, "jti", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	revoked, _ := r.IsRevoked(ctx, "jti")
	assert.True(t, revoked)

	now = now.Add(2 * time.Second)
	revoked, _ = r.IsRevoked(ctx, "jti")
	assert.False(t, revoked)

	ok, err = r.Revoke(ctx, "expired", 0)
	require.NoError(t, err)
	assert.False(t, ok)
	revoked, _ = r.IsRevoked(ctx, "expired")
	assert.False(t, revoked)
}

// revokeConcurrently revokes one jti from many goroutines and counts the winners
func revokeConcurrently(t *testing.T, r Revoker) int {
	t.Helper()
	const workers = 20
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
		ctx  = context.Background()
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := r.Revoke(ctx, "shared", time.Minute)
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	return int(wins.Load())
}

func TestRevokeHasSingleWinner(t *testing.T) {
	assert.Equal(t, 1, revokeConcurrently(t, NewMemoryRevoker()))

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	assert.Equal(t, 1, revokeConcurrently(t, NewRedisRevoker(client)))
}
