// Package voices discovers voice clones from a directory structure and
// merges them with backend-reported voices and voice preferences. Ported
// from the reference implementation's voices.py VoiceManager.
//
//	voice_dir/
//	    rick/
//	        reference.wav (or .mp3, .flac)
//	        transcript.txt
package voices

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/book-expert/logger"

	"github.com/book-expert/unified-tts/internal/core"
	"github.com/book-expert/unified-tts/internal/voiceprefs"
)

var referenceExtensions = []string{".wav", ".mp3", ".flac"}

// BackendVoiceSource reports one backend adapter's native preset voice
// catalog, so the registry can merge it alongside clone entries.
type BackendVoiceSource interface {
	Kind() string
	VoiceNames() []string
}

// Registry discovers voice clones from disk and merges them with every
// configured backend's reported preset voice catalog. Merge precedence
// on a name collision: clone entries win over backend-reported presets
// (a caller who registered a clone under a preset's name clearly means
// to shadow it), and a recorded voice preference wins over both when a
// caller asks what backend should serve that name.
type Registry struct {
	mu          sync.RWMutex
	dir         string
	voices      map[string]core.Voice
	backends    []BackendVoiceSource
	prefs       *voiceprefs.Store
	log         *logger.Logger
	transcriber *Transcriber
}

// New builds a registry rooted at dir and performs an initial scan. prefs
// may be nil if preference shadowing is not needed. If OPENAI_API_KEY is
// set, voice directories missing transcript.txt have their reference
// audio auto-transcribed via Whisper during the scan.
func New(dir string, prefs *voiceprefs.Store, log *logger.Logger) *Registry {
	r := &Registry{
		dir:    dir,
		voices: make(map[string]core.Voice),
		prefs:  prefs,
		log:    log,
	}

	if t, ok := NewTranscriber(); ok {
		r.transcriber = t
	}

	r.Reload()

	return r
}

// SetBackendSources registers the backend adapters whose preset voice
// catalogs should be merged into the registry, then reloads to pick
// them up immediately. Adapters are built after the registry (they
// depend on it as a VoiceLookup for clone-type backends), so this is a
// second wiring step rather than a New argument.
func (r *Registry) SetBackendSources(sources []BackendVoiceSource) {
	r.mu.Lock()
	r.backends = sources
	r.mu.Unlock()

	r.Reload()
}

// Reload rescans the voice directory and every registered backend's
// voice catalog from scratch, and reports how many voice clones were
// discovered on disk (backend-reported presets are not counted, since
// they track a catalog rather than a directory scan). A missing voice
// directory is not an error.
func (r *Registry) Reload() int {
	discovered := make(map[string]core.Voice)

	r.mu.RLock()
	backends := r.backends
	r.mu.RUnlock()

	for _, src := range backends {
		kind := src.Kind()

		for _, name := range src.VoiceNames() {
			discovered[strings.ToLower(name)] = core.Voice{
				Name:     strings.ToLower(name),
				Category: "preset",
				Backend:  kind,
			}
		}
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if r.log != nil {
			r.log.Warn("voices: voice directory not found: %s", r.dir)
		}

		r.mu.Lock()
		r.voices = discovered
		r.mu.Unlock()

		return 0
	}

	cloneCount := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		voicePath := filepath.Join(r.dir, entry.Name())

		refPath := findReferenceAudio(voicePath)
		if refPath == "" {
			if r.log != nil {
				r.log.Warn("voices: skipping %q: no reference audio found", entry.Name())
			}

			continue
		}

		name := entry.Name()

		transcript := r.resolveTranscript(name, voicePath, refPath)

		discovered[strings.ToLower(name)] = core.Voice{
			Name:                name,
			Category:            "clone",
			ReferencePath:       refPath,
			ReferenceTranscript: transcript,
			IsClone:             true,
		}
		cloneCount++
	}

	r.mu.Lock()
	r.voices = discovered
	r.mu.Unlock()

	if r.log != nil {
		r.log.Info("voices: discovered %d voice clones (%d total with backend presets) in %s",
			cloneCount, len(discovered), r.dir)
	}

	return cloneCount
}

// resolveTranscript reads transcript.txt for a voice clone. If it's
// absent and a Transcriber is configured (OPENAI_API_KEY set), it
// auto-transcribes the reference audio and writes the result back to
// transcript.txt so future scans skip the API call. Returns "" when
// neither path produces a transcript; the clone is registered without
// one.
func (r *Registry) resolveTranscript(name, voicePath, refPath string) string {
	transcriptPath := filepath.Join(voicePath, "transcript.txt")

	if data, err := os.ReadFile(transcriptPath); err == nil {
		return strings.TrimSpace(string(data))
	}

	if r.transcriber == nil {
		return ""
	}

	text, err := r.transcriber.Transcribe(refPath)
	if err != nil {
		if r.log != nil {
			r.log.Warn("voices: auto-transcription failed for %q: %v", name, err)
		}

		return ""
	}

	text = strings.TrimSpace(text)

	if err := os.WriteFile(transcriptPath, []byte(text), 0o644); err != nil && r.log != nil {
		r.log.Warn("voices: failed to persist auto-transcript for %q: %v", name, err)
	}

	return text
}

func findReferenceAudio(voicePath string) string {
	for _, ext := range referenceExtensions {
		candidate := filepath.Join(voicePath, "reference"+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// Get returns the voice registered under name, clone or backend preset,
// if any.
func (r *Registry) Get(name string) (core.Voice, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.voices[strings.ToLower(name)]

	return v, ok
}

// PreferredBackend returns the backend preference recorded for a voice
// name, if one exists.
func (r *Registry) PreferredBackend(name string) (string, bool) {
	if r.prefs == nil {
		return "", false
	}

	return r.prefs.Get(name)
}

// List returns all known voice names, clones and backend presets,
// sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.voices))
	for name := range r.voices {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ListDetailed returns every known voice, clones and backend presets,
// sorted by name.
func (r *Registry) ListDetailed() []core.Voice {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Voice, 0, len(r.voices))
	for _, v := range r.voices {
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}
