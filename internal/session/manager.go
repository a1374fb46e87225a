package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/forPelevin/beepsub/internal/types"
)

const casAttempts = 3

// Manager serializes all operations on one video hash and owns the artifact
// files named after it.
type Manager struct {
	Store Store
	Paths Paths
	// Defaults is the forbidden-word list used on create and on reset.
	Defaults []string
	Logf     func(format string, args ...any)

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewManager(store Store, workDir string, defaults []string) *Manager {
	return &Manager{
		Store:    store,
		Paths:    Paths{Dir: workDir},
		Defaults: append([]string(nil), defaults...),
	}
}

func (m *Manager) logf(format string, args ...any) {
	if m.Logf != nil {
		m.Logf(format, args...)
	}
}

func (m *Manager) lock(hash string) func() {
	m.mu.Lock()
	if m.locks == nil {
		m.locks = map[string]*keyLock{}
	}
	l := m.locks[hash]
	if l == nil {
		l = &keyLock{}
		m.locks[hash] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, hash)
		}
		m.mu.Unlock()
	}
}

// Held is a session whose lock the caller holds. It is only valid inside
// the Hold callback.
//
// The lock only covers this process. Once Session has been read, Delete
// removes the record only if no other writer has touched it since.
type Held struct {
	m       *Manager
	hash    string
	read    bool
	version int64
}

func (h *Held) Hash() string { return h.hash }

func (h *Held) Session(ctx context.Context) (types.Session, error) {
	rec, err := h.m.Store.Get(ctx, h.hash)
	if err != nil {
		return types.Session{}, err
	}
	h.read, h.version = true, rec.Version
	return rec.Session, nil
}

// Delete drops the session like Manager.Delete. It fails with
// types.ErrConflict, leaving record and files alone, when the record changed
// after Session read it.
func (h *Held) Delete(ctx context.Context, keepFinalVideo bool) error {
	if !h.read {
		return h.m.delete(ctx, h.hash, keepFinalVideo)
	}
	if err := h.m.Store.DeleteIfVersion(ctx, h.hash, h.version); err != nil {
		return err
	}
	return h.m.clean(h.hash, keepFinalVideo)
}

// Hold runs fn with the lock for hash held.
func (m *Manager) Hold(hash string, fn func(*Held) error) error {
	if err := checkHash(hash); err != nil {
		return err
	}
	unlock := m.lock(hash)
	defer unlock()
	return fn(&Held{m: m, hash: hash})
}

// Create writes s, replacing any session with the same hash. An empty
// forbidden-word list takes the defaults.
func (m *Manager) Create(ctx context.Context, s types.Session) error {
	if err := checkHash(s.VideoHash); err != nil {
		return err
	}
	if err := ValidateSubtitles(s.Subtitles); err != nil {
		return err
	}
	s.ForbiddenWords = ResolveForbiddenWords(s.ForbiddenWords, m.Defaults)
	if s.BeepIntervals == nil {
		s.BeepIntervals = []types.Interval{}
	}
	if s.Subtitles == nil {
		s.Subtitles = []types.Subtitle{}
	}

	unlock := m.lock(s.VideoHash)
	defer unlock()
	if _, err := m.Store.Put(ctx, s); err != nil {
		return err
	}
	m.logf("session %s: created with %d subtitles", s.VideoHash, len(s.Subtitles))
	return nil
}

func (m *Manager) Get(ctx context.Context, hash string) (types.Session, error) {
	if err := checkHash(hash); err != nil {
		return types.Session{}, err
	}
	unlock := m.lock(hash)
	defer unlock()
	return m.get(ctx, hash)
}

func (m *Manager) get(ctx context.Context, hash string) (types.Session, error) {
	rec, err := m.Store.Get(ctx, hash)
	if err != nil {
		return types.Session{}, err
	}
	return rec.Session, nil
}

// Update applies p to the stored session and returns the result. Writes
// from another process between read and write are retried.
func (m *Manager) Update(ctx context.Context, hash string, p types.Patch) (types.Session, error) {
	if err := checkHash(hash); err != nil {
		return types.Session{}, err
	}
	unlock := m.lock(hash)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < casAttempts; attempt++ {
		rec, err := m.Store.Get(ctx, hash)
		if err != nil {
			return types.Session{}, err
		}
		next, err := ApplyPatch(rec.Session, p, m.Defaults)
		if err != nil {
			return types.Session{}, err
		}
		_, err = m.Store.CompareAndSwap(ctx, next, rec.Version)
		if err == nil {
			m.logf("session %s: updated", hash)
			return next, nil
		}
		if !errors.Is(err, types.ErrConflict) {
			return types.Session{}, err
		}
		lastErr = err
		m.logf("session %s: concurrent write, retrying", hash)
	}
	return types.Session{}, fmt.Errorf("update session %s: %w", hash, lastErr)
}

// Delete drops the record, the temp audio and render intermediates. The final
// video is removed too unless keepFinalVideo is set.
func (m *Manager) Delete(ctx context.Context, hash string, keepFinalVideo bool) error {
	if err := checkHash(hash); err != nil {
		return err
	}
	unlock := m.lock(hash)
	defer unlock()
	return m.delete(ctx, hash, keepFinalVideo)
}

func (m *Manager) delete(ctx context.Context, hash string, keepFinalVideo bool) error {
	if err := m.Store.Delete(ctx, hash); err != nil {
		return err
	}
	return m.clean(hash, keepFinalVideo)
}

func (m *Manager) clean(hash string, keepFinalVideo bool) error {
	files := append([]string{m.Paths.TempAudio(hash)}, m.Paths.intermediates(hash)...)
	if !keepFinalVideo {
		files = append(files, m.Paths.FinalVideo(hash))
	}
	var errs []error
	for _, f := range files {
		if _, err := removeFile(f); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("clean session %s: %w", hash, err)
	}
	m.logf("session %s: deleted (keep final video: %v)", hash, keepFinalVideo)
	return nil
}
