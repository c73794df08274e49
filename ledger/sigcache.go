package ledger

import (
	"sync"

	"github.com/TualatinX/ledger-go/wallet"
)

// SignatureVerifier checks that signature is valid over message for the
// owner committed to by address.  Implementations must be safe for
// concurrent use and free of side effects.
type SignatureVerifier interface {
	Verify(address, message, signature []byte) bool
}

// DefaultVerifier checks pay-to-public-key-hash witnesses produced by
// wallet.Wallet.
var DefaultVerifier SignatureVerifier = wallet.P2PKHVerifier{}

// sigCacheKey identifies one verification by its exact inputs, so a hit
// means the same verification was already performed.
type sigCacheKey struct {
	address   string
	message   string
	signature string
}

// sigCache remembers successful verifications only.  Entries are evicted at
// random once the cache is full.
type sigCache struct {
	sync.RWMutex
	valid      map[sigCacheKey]struct{}
	maxEntries uint
}

func newSigCache(maxEntries uint) *sigCache {
	return &sigCache{
		valid:      make(map[sigCacheKey]struct{}, maxEntries),
		maxEntries: maxEntries,
	}
}

func (c *sigCache) exists(key sigCacheKey) bool {
	c.RLock()
	_, ok := c.valid[key]
	c.RUnlock()
	return ok
}

func (c *sigCache) add(key sigCacheKey) {
	c.Lock()
	defer c.Unlock()

	if c.maxEntries == 0 {
		return
	}

	if uint(len(c.valid)+1) > c.maxEntries {
		// Map iteration order is random, which makes this a random
		// eviction.
		for k := range c.valid {
			delete(c.valid, k)
			break
		}
	}
	c.valid[key] = struct{}{}
}

// cachingVerifier wraps a verifier with a sigCache.
type cachingVerifier struct {
	verifier SignatureVerifier
	cache    *sigCache
}

func (v *cachingVerifier) Verify(address, message, signature []byte) bool {
	key := sigCacheKey{
		address:   string(address),
		message:   string(message),
		signature: string(signature),
	}
	if v.cache.exists(key) {
		return true
	}
	if !v.verifier.Verify(address, message, signature) {
		return false
	}
	v.cache.add(key)
	return true
}
