//go:build integration

package itest

import (
	"encoding/json"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forPelevin/beepsub/internal/types"
)

// makeFixture builds a 1280x720 mp4 whose audio is synthesized speech.
func makeFixture(t *testing.T, dir, text string) string {
	t.Helper()
	wav := filepath.Join(dir, "speech.wav")
	cmd := exec.Command("espeak-ng", "-v", "pt", "-w", wav, text)
	if b, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("espeak-ng failed: %v\n%s", err, string(b))
	}
	in := filepath.Join(dir, "input.mp4")
	ff := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", "color=c=black:s=1280x720:d=15",
		"-i", wav,
		"-shortest",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		in,
	)
	if b, err := ff.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
	return in
}

func TestE2E_PreviewEditRender(t *testing.T) {
	repoRoot := mustRepoRoot(t)
	tmp := t.TempDir()
	in := makeFixture(t, tmp, "A abelha chegou aqui. O texto continua limpo depois disso.")
	work := filepath.Join(tmp, "work")
	env := map[string]string{
		"BEEPSUB_WHISPER_BIN":   filepath.Join(repoRoot, ".cache", "bin", "whisper.cpp"),
		"BEEPSUB_WHISPER_MODEL": filepath.Join(repoRoot, ".cache", "models", "ggml-base.bin"),
	}
	base := []string{"--workdir", work, "-q"}

	res := runCLI(t, repoRoot, append([]string{"preview", in, "--words", "abelha"}, base...), env)
	if res.exitCode != 0 {
		t.Fatalf("preview failed:\n%s", res.output)
	}
	hash := lastLine(res.output)
	if len(hash) != 10 {
		t.Fatalf("expected a 10 char hash, got %q", hash)
	}

	res = runCLI(t, repoRoot, append([]string{"show", hash, "--json"}, base...), env)
	if res.exitCode != 0 {
		t.Fatalf("show failed:\n%s", res.output)
	}
	var s types.Session
	if err := json.Unmarshal([]byte(res.output[strings.Index(res.output, "{"):]), &s); err != nil {
		t.Fatalf("decode session: %v\n%s", err, res.output)
	}
	if s.VideoHash != hash || len(s.Subtitles) == 0 {
		t.Fatalf("unexpected session %+v", s)
	}

	res = runCLI(t, repoRoot, append([]string{"edit", hash, "--reset-words"}, base...), env)
	if res.exitCode != 0 {
		t.Fatalf("edit failed:\n%s", res.output)
	}

	out := filepath.Join(tmp, "final.mp4")
	res = runCLI(t, repoRoot, append([]string{"render", hash, "--out", out}, base...), env)
	if res.exitCode != 0 {
		t.Fatalf("render failed:\n%s", res.output)
	}
	got, err := probeMedia(out)
	if err != nil {
		t.Fatal(err)
	}
	src, err := probeMedia(in)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got.Duration-src.Duration) > 0.5 {
		t.Fatalf("output duration %.2fs, input %.2fs", got.Duration, src.Duration)
	}
	if !got.HasAudio {
		t.Fatalf("rendered video lost its beeped audio track")
	}
	if got.Width != 1280 || got.Height != 720 {
		t.Fatalf("output size %dx%d, want 1280x720", got.Width, got.Height)
	}

	res = runCLI(t, repoRoot, append([]string{"show", hash}, base...), env)
	if res.exitCode != 2 || !strings.Contains(res.output, "session not found") {
		t.Fatalf("session must be gone after render (exit %d):\n%s", res.exitCode, res.output)
	}
	if _, err := os.Stat(filepath.Join(work, "temp_audio_"+hash+".wav")); !os.IsNotExist(err) {
		t.Fatalf("temp audio must be removed")
	}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
