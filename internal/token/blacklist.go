package token

import (
	"sync"
	"time"
)

// Blacklist is the revocation registry: raw token strings invalidated before
// their natural expiry. It is the only process-wide shared mutable state in
// the server, so every operation holds the mutex. An entry never needs to
// outlive its token's own expiry; Sweep enforces that.
type Blacklist struct {
	codec      *Codec
	defaultTTL time.Duration

	mu      sync.Mutex
	entries map[string]time.Time
}

func NewBlacklist(codec *Codec, defaultTTL time.Duration) *Blacklist {
	return &Blacklist{
		codec:      codec,
		defaultTTL: defaultTTL,
		entries:    map[string]time.Time{},
	}
}

// Revoke records the token as invalid until its embedded expiry. The expiry
// is recovered without signature verification; if the token cannot be parsed
// at all it is blacklisted for the default TTL instead of being rejected, so
// logout is effective even against tampered or malformed tokens.
func (b *Blacklist) Revoke(tokenString string) {
	if tokenString == "" {
		return
	}

	expiresAt, err := b.codec.ExpiryUnverified(tokenString)
	if err != nil {
		expiresAt = time.Now().UTC().Add(b.defaultTTL)
	}

	b.mu.Lock()
	b.entries[tokenString] = expiresAt
	b.mu.Unlock()
}

// IsRevoked reports pure membership. Expiry of the token itself is the
// codec's concern; an entry that has not been swept yet still counts.
func (b *Blacklist) IsRevoked(tokenString string) bool {
	b.mu.Lock()
	_, revoked := b.entries[tokenString]
	b.mu.Unlock()
	return revoked
}

// Sweep drops entries whose recorded expiry is strictly in the past. An
// expired token is rejected by the expiry check alone and need not be
// remembered. Called opportunistically before identity resolution rather
// than from a background timer, which keeps the registry bounded relative to
// the volume of live tokens.
func (b *Blacklist) Sweep() {
	now := time.Now().UTC()

	b.mu.Lock()
	for entry, expiresAt := range b.entries {
		if expiresAt.Before(now) {
			delete(b.entries, entry)
		}
	}
	b.mu.Unlock()
}

func (b *Blacklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
