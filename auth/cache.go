package auth

import "sync"

// KeyFunc maps a realm to the key its credentials are cached under
type KeyFunc func(r Realm) string

// RealmOnly keys credentials by realm name alone.
// Hosts announcing the same realm name share credentials.
func RealmOnly(r Realm) string {
	return r.Name
}

// RealmAndHost keys credentials by realm name and the host that issued the challenge
func RealmAndHost(r Realm) string {
	return r.Host + "\x00" + r.Name
}

// RealmCache holds credentials which were confirmed by a successful response, per realm.
// It is safe for concurrent use; concurrent writers to the same realm are last-writer-wins.
type RealmCache struct {
	key     KeyFunc
	mu      sync.RWMutex
	entries map[string]Credentials
}

// DefaultCache is the process-wide realm cache.
// It lives for the lifetime of the process and is cleared only by Reset.
var DefaultCache = NewRealmCache(RealmOnly)

// NewRealmCache creates an empty cache; a nil key defaults to RealmOnly
func NewRealmCache(key KeyFunc) *RealmCache {
	if key == nil {
		key = RealmOnly
	}
	return &RealmCache{
		key:     key,
		entries: make(map[string]Credentials),
	}
}

// Get returns the cached credentials for the realm
func (c *RealmCache) Get(r Realm) (Credentials, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	creds, ok := c.entries[c.key(r)]
	return creds, ok
}

// Put stores the credentials for the realm, replacing any existing entry
func (c *RealmCache) Put(r Realm, creds Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(r)] = creds
}

// Reset removes every entry
func (c *RealmCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Credentials)
}

// Len returns the number of cached realms
func (c *RealmCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Same reports whether both realms map to the same cache entry
func (c *RealmCache) Same(a, b Realm) bool {
	return c.key(a) == c.key(b)
}
