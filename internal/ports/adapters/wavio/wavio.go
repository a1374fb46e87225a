// Package wavio reads and writes PCM WAV files as beep tracks.
package wavio

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/forPelevin/beepsub/internal/domain/beep"
)

// Output bit depth of written files.
const bitDepth = 16

type Codec struct{}

func New() Codec { return Codec{} }

func (Codec) ReadWAV(path string) (beep.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return beep.Track{}, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return beep.Track{}, fmt.Errorf("wav %s: not a valid PCM file", path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return beep.Track{}, fmt.Errorf("decode wav %s: %w", path, err)
	}
	depth := int(d.BitDepth)
	if depth != 16 && depth != 24 && depth != 32 {
		return beep.Track{}, fmt.Errorf("wav %s: unsupported bit depth %d", path, depth)
	}
	scale := math.Exp2(float64(depth - 1))

	tr := beep.Track{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		Samples:    make([]float64, len(buf.Data)),
	}
	for i, v := range buf.Data {
		tr.Samples[i] = float64(v) / scale
	}
	return tr, nil
}

func (Codec) WriteWAV(path string, tr beep.Track) error {
	if tr.Channels <= 0 || tr.SampleRate <= 0 {
		return fmt.Errorf("wav %s: invalid format %d ch @ %d Hz", path, tr.Channels, tr.SampleRate)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	peak := math.Exp2(bitDepth-1) - 1
	data := make([]int, len(tr.Samples))
	for i, v := range tr.Samples {
		data[i] = int(math.Round(clamp(v, -1, 1) * peak))
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: tr.Channels, SampleRate: tr.SampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	enc := wav.NewEncoder(f, tr.SampleRate, bitDepth, tr.Channels, 1)
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encode wav %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize wav %s: %w", path, err)
	}
	return f.Close()
}

func clamp(x, a, b float64) float64 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}
