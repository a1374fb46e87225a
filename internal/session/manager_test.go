package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/forPelevin/beepsub/internal/types"
)

var defaults = []string{"merda", "porra", "abelha"}

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	return NewManager(NewMemStore(nil), dir, defaults), dir
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestManager_CreateRejectsBadHash(t *testing.T) {
	m, _ := newTestManager(t)
	for _, h := range []string{"", "ABCDEF0123", "0123", "0123456789a", "zzzzzzzzzz"} {
		err := m.Create(context.Background(), types.Session{VideoHash: h})
		if !errors.Is(err, types.ErrValidation) {
			t.Fatalf("hash %q: expected ErrValidation, got %v", h, err)
		}
	}
}

func TestManager_CreateFillsDefaults(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	if err := m.Create(ctx, types.Session{VideoHash: "0123456789"}); err != nil {
		t.Fatal(err)
	}
	s, err := m.Get(ctx, "0123456789")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s.ForbiddenWords, defaults) {
		t.Fatalf("words = %q, want defaults", s.ForbiddenWords)
	}
	if s.BeepIntervals == nil || s.Subtitles == nil {
		t.Fatalf("lists must be non-nil so the record has [] not null")
	}
}

func TestManager_GetUnknown(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.Get(context.Background(), "ffffffffff"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestManager_UpdateEmptyWordsResetsToDefault(t *testing.T) {
	tests := []struct {
		name  string
		words []string
	}{
		{"empty", []string{}},
		{"blank", []string{"  ", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager(t)
			ctx := context.Background()
			if err := m.Create(ctx, sampleSession("0123456789")); err != nil {
				t.Fatal(err)
			}
			got, err := m.Update(ctx, "0123456789", types.Patch{ForbiddenWords: tt.words})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if !reflect.DeepEqual(got.ForbiddenWords, defaults) {
				t.Fatalf("words = %q, want defaults %q", got.ForbiddenWords, defaults)
			}
			stored, _ := m.Get(ctx, "0123456789")
			if !reflect.DeepEqual(stored.ForbiddenWords, defaults) {
				t.Fatalf("stored words = %q", stored.ForbiddenWords)
			}
		})
	}
}

func TestManager_UpdateReplacesFields(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	orig := sampleSession("0123456789")
	if err := m.Create(ctx, orig); err != nil {
		t.Fatal(err)
	}

	beeps := []types.Interval{{Start: 2, End: 2.5}}
	got, err := m.Update(ctx, "0123456789", types.Patch{
		ForbiddenWords: []string{" caralho ", "Caralho"},
		BeepIntervals:  beeps,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.ForbiddenWords, []string{"caralho"}) {
		t.Fatalf("words = %q", got.ForbiddenWords)
	}
	if !reflect.DeepEqual(got.BeepIntervals, beeps) {
		t.Fatalf("beeps must be replaced, got %+v", got.BeepIntervals)
	}
	if !reflect.DeepEqual(got.Subtitles, orig.Subtitles) {
		t.Fatalf("subtitles must be untouched when not supplied")
	}

	got, err = m.Update(ctx, "0123456789", types.Patch{BeepIntervals: []types.Interval{}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.BeepIntervals) != 0 {
		t.Fatalf("empty beep list must clear, got %+v", got.BeepIntervals)
	}
}

func TestManager_UpdateValidation(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	if err := m.Create(ctx, sampleSession("0123456789")); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name  string
		patch types.Patch
	}{
		{"empty patch", types.Patch{}},
		{"inverted subtitle", types.Patch{Subtitles: []types.Subtitle{{Start: 2, End: 1}}}},
		{"negative start", types.Patch{Subtitles: []types.Subtitle{{Start: -1, End: 1}}}},
		{"confidence", types.Patch{Subtitles: []types.Subtitle{{Start: 0, End: 1, Confidence: 1.5}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Update(ctx, "0123456789", tt.patch)
			if !errors.Is(err, types.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestManager_UpdateUnknown(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Update(context.Background(), "ffffffffff", types.Patch{ForbiddenWords: []string{"x"}})
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// conflictOnce fails the first CompareAndSwap as if another process wrote.
type conflictOnce struct {
	Store
	mu    sync.Mutex
	fired bool
}

func (c *conflictOnce) CompareAndSwap(ctx context.Context, s types.Session, v int64) (int64, error) {
	c.mu.Lock()
	fire := !c.fired
	c.fired = true
	c.mu.Unlock()
	if fire {
		return 0, types.ErrConflict
	}
	return c.Store.CompareAndSwap(ctx, s, v)
}

func TestManager_UpdateRetriesConflict(t *testing.T) {
	ctx := context.Background()
	st := &conflictOnce{Store: NewMemStore(nil)}
	m := NewManager(st, t.TempDir(), defaults)
	if err := m.Create(ctx, sampleSession("0123456789")); err != nil {
		t.Fatal(err)
	}
	got, err := m.Update(ctx, "0123456789", types.Patch{ForbiddenWords: []string{"porra"}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !reflect.DeepEqual(got.ForbiddenWords, []string{"porra"}) {
		t.Fatalf("words = %q", got.ForbiddenWords)
	}
}

func TestManager_ConcurrentUpdatesSerialize(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	if err := m.Create(ctx, sampleSession("0123456789")); err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Update(ctx, "0123456789", types.Patch{BeepIntervals: []types.Interval{{Start: float64(i), End: float64(i) + 1}}})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent update failed: %v", err)
		}
	}
	if n := len(m.locks); n != 0 {
		t.Fatalf("lock table should be empty after all callers finished, has %d", n)
	}
}

func TestManager_Delete(t *testing.T) {
	for _, keep := range []bool{false, true} {
		m, _ := newTestManager(t)
		ctx := context.Background()
		h := "0123456789"
		if err := m.Create(ctx, sampleSession(h)); err != nil {
			t.Fatal(err)
		}
		p := m.Paths
		for _, f := range []string{p.TempAudio(h), p.MixedAudio(h), p.Subtitles(h), p.FinalVideo(h)} {
			touch(t, f)
		}

		if err := m.Delete(ctx, h, keep); err != nil {
			t.Fatalf("Delete(keep=%v): %v", keep, err)
		}
		if _, err := m.Get(ctx, h); !errors.Is(err, types.ErrNotFound) {
			t.Fatalf("session must be gone, got %v", err)
		}
		if exists(p.TempAudio(h)) || exists(p.MixedAudio(h)) || exists(p.Subtitles(h)) {
			t.Fatalf("temp artifacts must be removed")
		}
		if exists(p.FinalVideo(h)) != keep {
			t.Fatalf("keep=%v but final video exists=%v", keep, exists(p.FinalVideo(h)))
		}
	}
}

func TestManager_DeleteWithoutArtifacts(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.Delete(context.Background(), "0123456789", false); err != nil {
		t.Fatalf("Delete of an absent session must succeed: %v", err)
	}
}

func TestManager_HoldDeleteDoesNotDeadlock(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	if err := m.Create(ctx, sampleSession("0123456789")); err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() {
		done <- m.Hold("0123456789", func(h *Held) error {
			if _, err := h.Session(ctx); err != nil {
				return err
			}
			return h.Delete(ctx, true)
		})
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Hold callback deadlocked")
	}
}

func TestManager_HeldDeleteKeepsEditFromOtherProcess(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sessions.sqlite")
	open := func() *Manager {
		st, err := OpenSQLite(dbPath)
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		t.Cleanup(func() { st.Close() })
		return NewManager(st, dir, defaults)
	}
	renderer, editor := open(), open()

	const h = "abcdef0123"
	if err := renderer.Create(ctx, sampleSession(h)); err != nil {
		t.Fatal(err)
	}
	touch(t, renderer.Paths.FinalVideo(h))

	err := renderer.Hold(h, func(held *Held) error {
		if _, err := held.Session(ctx); err != nil {
			return err
		}
		if _, err := editor.Update(ctx, h, types.Patch{ForbiddenWords: []string{"porra"}}); err != nil {
			t.Fatalf("edit while held: %v", err)
		}
		return held.Delete(ctx, false)
	})
	if !errors.Is(err, types.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := editor.Get(ctx, h)
	if err != nil {
		t.Fatalf("edited session must survive: %v", err)
	}
	if !reflect.DeepEqual(got.ForbiddenWords, []string{"porra"}) {
		t.Fatalf("words = %q", got.ForbiddenWords)
	}
	if !exists(renderer.Paths.FinalVideo(h)) {
		t.Fatalf("artifacts must be left alone on conflict")
	}

	err = renderer.Hold(h, func(held *Held) error {
		if _, err := held.Session(ctx); err != nil {
			return err
		}
		return held.Delete(ctx, false)
	})
	if err != nil {
		t.Fatalf("delete at current version: %v", err)
	}
	if _, err := editor.Get(ctx, h); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	st := NewMemStore(func() time.Time { return clock })
	dir := t.TempDir()
	m := NewManager(st, dir, defaults)

	if err := m.Create(ctx, sampleSession("0123456789")); err != nil {
		t.Fatal(err)
	}
	clock = clock.Add(48 * time.Hour)
	if err := m.Create(ctx, sampleSession("abcdefabcd")); err != nil {
		t.Fatal(err)
	}

	old := clock.Add(-30 * time.Hour)
	files := map[string]bool{
		"temp_audio_0123456789.wav":  true,
		"final_0123456789.mp4":       true,
		"mixed_audio_0123456789.wav": true,
		"final_abcdefabcd.mp4":       false,
		"notes.txt":                  false,
	}
	for name, isOld := range files {
		p := filepath.Join(dir, name)
		touch(t, p)
		mt := clock
		if isOld || name == "notes.txt" {
			mt = old
		}
		if err := os.Chtimes(p, mt, mt); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := m.Sweep(ctx, 24*time.Hour, clock)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	want := SweepStats{Sessions: 1, TempAudio: 1, Intermediates: 1, FinalVideos: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
	if _, err := m.Get(ctx, "0123456789"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("old session must be swept")
	}
	if _, err := m.Get(ctx, "abcdefabcd"); err != nil {
		t.Fatalf("fresh session must survive: %v", err)
	}
	if !exists(filepath.Join(dir, "final_abcdefabcd.mp4")) || !exists(filepath.Join(dir, "notes.txt")) {
		t.Fatalf("fresh and unrelated files must survive")
	}
}

func TestResolveForbiddenWords(t *testing.T) {
	tests := []struct {
		name     string
		supplied []string
		want     []string
	}{
		{"nil resets", nil, defaults},
		{"blank resets", []string{" ", "\t"}, defaults},
		{"trimmed and deduped", []string{" Merda", "merda ", "porra"}, []string{"Merda", "porra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveForbiddenWords(tt.supplied, defaults); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
