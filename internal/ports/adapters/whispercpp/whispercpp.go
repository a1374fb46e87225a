package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forPelevin/beepsub/internal/types"
)

type Adapter struct {
	bin      string
	model    string
	language string
}

func New(binPath, modelPath, language string) *Adapter {
	if language == "" {
		language = "auto"
	}
	return &Adapter{bin: binPath, model: modelPath, language: language}
}

func (a *Adapter) Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error) {
	outPrefix := filepath.Join(cacheDir, "whisper")
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-l", a.language,
		"-ojf",
		"-of", outPrefix,
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.Transcript{}, err
	}
	defer os.Remove(outPrefix + ".json")
	return parseOutput(jb)
}

// output is the subset of whisper.cpp's full JSON (-ojf) that we read.
type output struct {
	Transcription []struct {
		Offsets offsets `json:"offsets"`
		Text    string  `json:"text"`
		Tokens  []struct {
			Text    string  `json:"text"`
			Offsets offsets `json:"offsets"`
			P       float64 `json:"p"`
		} `json:"tokens"`
	} `json:"transcription"`
}

// offsets are milliseconds.
type offsets struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

func parseOutput(jb []byte) (types.Transcript, error) {
	var out output
	if err := json.Unmarshal(jb, &out); err != nil {
		return types.Transcript{}, fmt.Errorf("parse whisper.cpp json: %w", err)
	}

	var tr types.Transcript
	for _, e := range out.Transcription {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		seg := types.Segment{Start: sec(e.Offsets.From), End: sec(e.Offsets.To), Text: text}

		// Tokens are sub-word pieces; a leading space starts a new word.
		var probSum float64
		var probN int
		for _, tok := range e.Tokens {
			if special(tok.Text) || strings.TrimSpace(tok.Text) == "" {
				continue
			}
			probSum += tok.P
			probN++
			if strings.HasPrefix(tok.Text, " ") || len(seg.Words) == 0 {
				seg.Words = append(seg.Words, types.Word{
					Start: sec(tok.Offsets.From),
					End:   sec(tok.Offsets.To),
					Word:  strings.TrimSpace(tok.Text),
				})
				continue
			}
			last := &seg.Words[len(seg.Words)-1]
			last.Word += tok.Text
			last.End = sec(tok.Offsets.To)
		}
		if probN > 0 {
			c := probSum / float64(probN)
			seg.Confidence = &c
		}
		tr.Segments = append(tr.Segments, seg)
		if seg.End > tr.Duration {
			tr.Duration = seg.End
		}
	}
	return tr, nil
}

func special(tok string) bool {
	return strings.HasPrefix(tok, "[_") || strings.HasPrefix(tok, "<|")
}

func sec(ms int64) float64 { return float64(ms) / 1000 }
