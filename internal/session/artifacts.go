package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/forPelevin/beepsub/internal/types"
)

var hashRe = regexp.MustCompile(`^[0-9a-f]{10}$`)

// ValidHash reports whether h looks like a video hash: 10 lowercase hex chars.
func ValidHash(h string) bool { return hashRe.MatchString(h) }

func checkHash(h string) error {
	if !ValidHash(h) {
		return fmt.Errorf("%w: video hash %q must be 10 lowercase hex characters", types.ErrValidation, h)
	}
	return nil
}

// Paths names the on-disk artifacts of a session inside Dir.
type Paths struct {
	Dir string
}

// TempAudio is the speech-recognition input extracted during preview.
func (p Paths) TempAudio(hash string) string {
	return filepath.Join(p.Dir, "temp_audio_"+hash+".wav")
}

// SourceAudio is the full-quality track extracted for the render.
func (p Paths) SourceAudio(hash string) string {
	return filepath.Join(p.Dir, "source_audio_"+hash+".wav")
}

// MixedAudio is the synthesized track muxed into the final video.
func (p Paths) MixedAudio(hash string) string {
	return filepath.Join(p.Dir, "mixed_audio_"+hash+".wav")
}

func (p Paths) Subtitles(hash string) string {
	return filepath.Join(p.Dir, "subtitles_"+hash+".ass")
}

func (p Paths) FinalVideo(hash string) string {
	return filepath.Join(p.Dir, "final_"+hash+".mp4")
}

// Export is the plain-text subtitle export.
func (p Paths) Export(hash string) string {
	return filepath.Join(p.Dir, "subtitles_"+hash+".str")
}

// ASRCache holds transcriber output for one preview.
func (p Paths) ASRCache(hash string) string {
	return filepath.Join(p.Dir, "asr_"+hash)
}

func (p Paths) intermediates(hash string) []string {
	return []string{p.SourceAudio(hash), p.MixedAudio(hash), p.Subtitles(hash)}
}

// removeFile treats a missing file as already removed.
func removeFile(path string) (bool, error) {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
