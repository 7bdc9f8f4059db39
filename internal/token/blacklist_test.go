package token

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlacklist(t *testing.T) (*Blacklist, *Codec) {
	t.Helper()
	codec, err := NewCodec("test-secret", "HS256")
	require.NoError(t, err)
	return NewBlacklist(codec, 30*time.Minute), codec
}

func TestBlacklist_Revoke(t *testing.T) {
	t.Run("revoked token is reported revoked", func(t *testing.T) {
		blacklist, codec := newTestBlacklist(t)

		tokenString, err := codec.Issue("alice", 30*time.Minute)
		require.NoError(t, err)

		assert.False(t, blacklist.IsRevoked(tokenString))
		blacklist.Revoke(tokenString)
		assert.True(t, blacklist.IsRevoked(tokenString))
	})

	t.Run("revocation is independent of decode validity", func(t *testing.T) {
		blacklist, codec := newTestBlacklist(t)

		tokenString, err := codec.Issue("alice", 30*time.Minute)
		require.NoError(t, err)

		blacklist.Revoke(tokenString)

		// The token still decodes fine; revocation is a separate check.
		claims, err := codec.Decode(tokenString)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
		assert.True(t, blacklist.IsRevoked(tokenString))
	})

	t.Run("unparseable token is blacklisted with the default TTL", func(t *testing.T) {
		blacklist, _ := newTestBlacklist(t)

		blacklist.Revoke("definitely-not-a-jwt")

		assert.True(t, blacklist.IsRevoked("definitely-not-a-jwt"))

		// The fallback expiry is in the future, so a sweep keeps it.
		blacklist.Sweep()
		assert.True(t, blacklist.IsRevoked("definitely-not-a-jwt"))
	})

	t.Run("empty token is ignored", func(t *testing.T) {
		blacklist, _ := newTestBlacklist(t)

		blacklist.Revoke("")
		assert.Equal(t, 0, blacklist.Len())
	})
}

func TestBlacklist_Sweep(t *testing.T) {
	blacklist, codec := newTestBlacklist(t)

	expired, err := codec.Issue("alice", -time.Minute)
	require.NoError(t, err)
	live, err := codec.Issue("alice", 30*time.Minute)
	require.NoError(t, err)

	blacklist.Revoke(expired)
	blacklist.Revoke(live)
	require.Equal(t, 2, blacklist.Len())

	// Only the entry whose expiry is already in the past is removed; the
	// live entry survives any number of sweeps.
	for i := 0; i < 5; i++ {
		blacklist.Sweep()
		assert.False(t, blacklist.IsRevoked(expired))
		assert.True(t, blacklist.IsRevoked(live))
	}
	assert.Equal(t, 1, blacklist.Len())
}

func TestBlacklist_ConcurrentRevokeAndSweep(t *testing.T) {
	blacklist, codec := newTestBlacklist(t)

	const workers = 16
	const tokensPerWorker = 20

	tokens := make([]string, 0, workers*tokensPerWorker)
	for i := 0; i < workers*tokensPerWorker; i++ {
		tokenString, err := codec.Issue(fmt.Sprintf("user-%d", i), 30*time.Minute)
		require.NoError(t, err)
		tokens = append(tokens, tokenString)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := 0; i < tokensPerWorker; i++ {
				blacklist.Revoke(tokens[offset+i])
				blacklist.Sweep()
				blacklist.IsRevoked(tokens[offset+i])
			}
		}(w * tokensPerWorker)
	}
	wg.Wait()

	// No revoke may be lost to a racing sweep: every non-expired revoked
	// token must still be reported revoked.
	for _, tokenString := range tokens {
		assert.True(t, blacklist.IsRevoked(tokenString))
	}
}
