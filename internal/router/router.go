// Package router selects, for a given voice and optional explicit
// backend, the ordered chain of adapters the pipeline should try, with
// voice-affinity and health-based demotion.
package router

import (
	"sort"
	"sync"

	"github.com/book-expert/unified-tts/internal/core"
	"github.com/book-expert/unified-tts/internal/health"
)

// VoiceClaimer reports whether a backend kind supports a given voice
// name. Adapters implement this; the router only needs the claim, not
// the adapter itself.
type VoiceClaimer interface {
	Kind() string
	SupportsVoice(voice string) bool
}

// PreferenceLookup resolves a voice's preferred backend, if any.
type PreferenceLookup interface {
	PreferredBackend(voice string) (string, bool)
}

// Router implements the backend selection algorithm.
type Router struct {
	adapters []VoiceClaimer
	health   *health.Tracker
	prefs    PreferenceLookup

	mu             sync.RWMutex
	defaultBackend string
}

// New builds a Router over adapters in configuration order.
func New(adapters []VoiceClaimer, tracker *health.Tracker, prefs PreferenceLookup, defaultBackend string) *Router {
	return &Router{
		adapters:       adapters,
		health:         tracker,
		prefs:          prefs,
		defaultBackend: defaultBackend,
	}
}

// SetDefault updates the default backend kind used by rule 4 of Chain's
// selection order, letting POST /v1/backends/switch take effect without
// rebuilding the router.
func (r *Router) SetDefault(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.defaultBackend = kind
}

func (r *Router) getDefault() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.defaultBackend
}

// Chain returns the ordered list of backend kinds to try for voice,
// honoring an optional explicit backend override.
//
// Selection order:
//  1. explicitBackend, if it claims the voice: used alone, no fallback.
//  2. Voice Preferences entry, if any: placed first.
//  3. The single backend claiming the voice, if exactly one does.
//  4. defaultBackend, placed first.
//  5. Every other healthy-or-unknown adapter claiming the voice, in a
//     stable deterministic (lexicographic) order, forming the fallback
//     chain. Down adapters are demoted to the tail, never removed.
func (r *Router) Chain(voice, explicitBackend string) ([]string, error) {
	if explicitBackend != "" {
		a := r.find(explicitBackend)
		if a != nil && a.SupportsVoice(voice) {
			return []string{explicitBackend}, nil
		}

		return nil, core.NewError(core.KindVoiceUnknown, "explicit backend does not support voice "+voice, nil)
	}

	claimants := r.claimants(voice)
	if len(claimants) == 0 {
		return nil, core.NewError(core.KindVoiceUnknown, "no backend claims voice "+voice, nil)
	}

	head := r.head(voice, claimants)

	chain := []string{head}
	seen := map[string]bool{head: true}

	tail := make([]string, 0, len(claimants))

	for _, kind := range claimants {
		if !seen[kind] {
			tail = append(tail, kind)
		}
	}

	sort.Strings(tail)

	up, down := splitByHealth(tail, r.health)
	chain = append(chain, up...)
	chain = append(chain, down...)

	return chain, nil
}

func (r *Router) head(voice string, claimants []string) string {
	if r.prefs != nil {
		if backend, ok := r.prefs.PreferredBackend(voice); ok && contains(claimants, backend) {
			return backend
		}
	}

	if len(claimants) == 1 {
		return claimants[0]
	}

	if defaultBackend := r.getDefault(); contains(claimants, defaultBackend) {
		return defaultBackend
	}

	sorted := append([]string(nil), claimants...)
	sort.Strings(sorted)

	return sorted[0]
}

func (r *Router) claimants(voice string) []string {
	out := make([]string, 0, len(r.adapters))

	for _, a := range r.adapters {
		if a.SupportsVoice(voice) {
			out = append(out, a.Kind())
		}
	}

	return out
}

func (r *Router) find(kind string) VoiceClaimer {
	for _, a := range r.adapters {
		if a.Kind() == kind {
			return a
		}
	}

	return nil
}

func splitByHealth(kinds []string, tracker *health.Tracker) (up, down []string) {
	if tracker == nil {
		return kinds, nil
	}

	for _, k := range kinds {
		if tracker.IsDown(k) {
			down = append(down, k)
		} else {
			up = append(up, k)
		}
	}

	return up, down
}

func contains(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}

	return false
}
