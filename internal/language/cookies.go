package language

import "sync"

// CookieJar abstracts the cookie storage location of the language
// preference. Real deployments adapt it onto HTTP responses; sessions
// and tests use the in-memory jar.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(name, value, path string, maxAge int)
}

// MemoryCookieJar is a CookieJar backed by a map.
type MemoryCookieJar struct {
	mu      sync.RWMutex
	cookies map[string]string
}

// NewMemoryCookieJar creates an empty jar.
func NewMemoryCookieJar() *MemoryCookieJar {
	return &MemoryCookieJar{cookies: make(map[string]string)}
}

// Get returns the cookie value, if set.
func (j *MemoryCookieJar) Get(name string) (string, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	value, ok := j.cookies[name]
	return value, ok
}

// Set stores the cookie. Path and max-age are kept for interface
// compatibility; the in-memory jar does not expire entries.
func (j *MemoryCookieJar) Set(name, value, _ string, _ int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies[name] = value
}
