package dashboard

import "sync"

// keyedGuard admits one in-flight call per key and rejects overlaps
type keyedGuard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func newKeyedGuard() *keyedGuard {
	return &keyedGuard{busy: make(map[string]struct{})}
}

// acquire returns false if key is already held
func (g *keyedGuard) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.busy[key]; held {
		return false
	}
	g.busy[key] = struct{}{}
	return true
}

func (g *keyedGuard) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, key)
}
