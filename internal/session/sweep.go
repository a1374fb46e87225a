package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SweepStats counts what a sweep removed.
type SweepStats struct {
	Sessions      int `json:"sessions"`
	TempAudio     int `json:"temp_audio"`
	Intermediates int `json:"intermediates"`
	FinalVideos   int `json:"final_videos"`
	Errors        int `json:"errors"`
}

// Sweep removes sessions not written within maxAge and artifact files in the
// work dir whose mtime is older than maxAge. Failures are counted and
// logged; the sweep continues past them.
func (m *Manager) Sweep(ctx context.Context, maxAge time.Duration, now time.Time) (SweepStats, error) {
	var st SweepStats
	cutoff := now.Add(-maxAge)

	hashes, err := m.Store.Stale(ctx, cutoff)
	if err != nil {
		return st, err
	}
	for _, h := range hashes {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		unlock := m.lock(h)
		err := m.Store.Delete(ctx, h)
		unlock()
		if err != nil {
			st.Errors++
			m.logf("sweep: session %s: %v", h, err)
			continue
		}
		st.Sessions++
	}

	entries, err := os.ReadDir(m.Paths.Dir)
	if os.IsNotExist(err) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		counter := st.counterFor(e.Name())
		if counter == nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			st.Errors++
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		p := filepath.Join(m.Paths.Dir, e.Name())
		removed, err := removeFile(p)
		if err != nil {
			st.Errors++
			m.logf("sweep: %s: %v", p, err)
			continue
		}
		if removed {
			*counter++
		}
	}
	m.logf("sweep: removed %d sessions, %d temp audio, %d intermediates, %d final videos (%d errors)",
		st.Sessions, st.TempAudio, st.Intermediates, st.FinalVideos, st.Errors)
	return st, nil
}

func (st *SweepStats) counterFor(name string) *int {
	switch {
	case strings.HasPrefix(name, "temp_audio_") && strings.HasSuffix(name, ".wav"):
		return &st.TempAudio
	case strings.HasPrefix(name, "final_") && strings.HasSuffix(name, ".mp4"):
		return &st.FinalVideos
	case strings.HasPrefix(name, "source_audio_") && strings.HasSuffix(name, ".wav"),
		strings.HasPrefix(name, "mixed_audio_") && strings.HasSuffix(name, ".wav"),
		strings.HasPrefix(name, "subtitles_") && strings.HasSuffix(name, ".ass"):
		return &st.Intermediates
	}
	return nil
}
