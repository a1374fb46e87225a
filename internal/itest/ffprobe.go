//go:build integration

package itest

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type mediaInfo struct {
	Duration float64
	Width    int
	Height   int
	HasAudio bool
}

// probeMedia reads the container duration, the first video stream's size
// and whether any audio stream survived the mux.
func probeMedia(path string) (mediaInfo, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "stream=codec_type,width,height:format=duration",
		"-of", "json",
		path,
	)
	b, err := cmd.Output()
	if err != nil {
		return mediaInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	var out struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return mediaInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var info mediaInfo
	for _, s := range out.Streams {
		switch s.CodecType {
		case "audio":
			info.HasAudio = true
		case "video":
			if info.Width == 0 {
				info.Width, info.Height = s.Width, s.Height
			}
		}
	}
	d := strings.TrimSpace(out.Format.Duration)
	info.Duration, err = strconv.ParseFloat(d, 64)
	if err != nil {
		return mediaInfo{}, fmt.Errorf("parse duration %q: %w", d, err)
	}
	return info, nil
}
