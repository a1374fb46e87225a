package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/forPelevin/beepsub/internal/config"
	"github.com/forPelevin/beepsub/internal/domain/subtitles"
	"github.com/forPelevin/beepsub/internal/ports"
	"github.com/forPelevin/beepsub/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/beepsub/internal/ports/adapters/rabbitmq"
	"github.com/forPelevin/beepsub/internal/ports/adapters/wavio"
	"github.com/forPelevin/beepsub/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/beepsub/internal/session"
	"github.com/forPelevin/beepsub/internal/types"
	"github.com/forPelevin/beepsub/internal/usecase"
)

// App is the usecase wired to the configured adapters.
type App struct {
	Cfg      config.Config
	Usecase  usecase.Usecase
	Sessions *session.Manager

	logf    func(format string, args ...any)
	closers []io.Closer
}

// Open wires adapters from cfg. logf may be nil.
func Open(cfg config.Config, logf func(format string, args ...any)) (*App, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.RabbitMQURL != "" {
		if err := rabbitmq.ValidateURL(cfg.RabbitMQURL); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	store, err := session.OpenSQLite(cfg.Database())
	if err != nil {
		return nil, err
	}
	app := &App{Cfg: cfg, logf: logf, closers: []io.Closer{store}}

	sessions := session.NewManager(store, cfg.WorkDir, cfg.ForbiddenWords)
	sessions.Logf = logf
	app.Sessions = sessions

	var notifier ports.Notifier = ports.NopNotifier{}
	if cfg.RabbitMQURL != "" {
		pub, err := rabbitmq.New(cfg.RabbitMQURL, cfg.EventQueue)
		if err != nil {
			logf("warn: events disabled (%s): %v", rabbitmq.Redact(cfg.RabbitMQURL), err)
		} else {
			notifier = pub
			app.closers = append(app.closers, pub)
			logf("publishing events to %s", rabbitmq.Redact(cfg.RabbitMQURL))
		}
	}

	style := subtitles.DefaultStyle()
	if cfg.FontName != "" {
		style.FontName = cfg.FontName
	}

	app.Usecase = usecase.New(usecase.Deps{
		Video:    ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath),
		ASR:      whispercpp.New(cfg.WhisperBin, cfg.WhisperModel, cfg.WhisperLanguage),
		Audio:    wavio.New(),
		Sessions: sessions,
		Notifier: notifier,
		Logf:     logf,
	}, usecase.Settings{
		BeepFrequency: cfg.BeepFrequency,
		BeepVolume:    cfg.BeepVolume,
		Ducking:       cfg.Ducking(),
		Style:         style,
		FontsDir:      cfg.FontsDir(),
	})
	return app, nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}

// Preview hashes the video and runs the preview stage.
func (a *App) Preview(ctx context.Context, videoPath string, words []string) (types.Session, error) {
	if strings.TrimSpace(videoPath) == "" {
		return types.Session{}, fmt.Errorf("%w: input is empty", types.ErrValidation)
	}
	if a.Cfg.WhisperModel == "" {
		return types.Session{}, fmt.Errorf("%w: whisper model path is required", types.ErrValidation)
	}
	h, err := HashFile(videoPath)
	if err != nil {
		return types.Session{}, fmt.Errorf("%w: hash input: %w", types.ErrMediaIO, err)
	}
	a.logf("video hash: %s", h)
	return a.Usecase.Preview(ctx, usecase.PreviewInput{VideoPath: videoPath, Hash: h, Words: words})
}

type RunInput struct {
	InputMP4 string
	OutDir   string
	Words    []string
}

type RunResult struct {
	RunDir    string
	Video     string
	Subtitles string
	Session   string
}

// Run previews and immediately renders with recomputed beeps. The run dir
// gets the final video, the subtitle export and the session record.
func (a *App) Run(ctx context.Context, in RunInput) (RunResult, error) {
	s, err := a.Preview(ctx, in.InputMP4, in.Words)
	if err != nil {
		return RunResult{}, err
	}

	outDir := in.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runDir := buildRunOutDir(outDir, in.InputMP4, time.Now().UTC())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return RunResult{}, err
	}
	a.logf("output run dir: %s", runDir)

	res := RunResult{
		RunDir:    runDir,
		Video:     filepath.Join(runDir, "final.mp4"),
		Subtitles: filepath.Join(runDir, "subtitles.str"),
		Session:   filepath.Join(runDir, "session.json"),
	}

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return res, fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(res.Session, b, 0o644); err != nil {
		return res, err
	}
	if err := os.WriteFile(res.Subtitles, []byte(subtitles.FormatExport(s.Subtitles)), 0o644); err != nil {
		return res, err
	}
	a.logf("subtitles written (%d lines): %s", len(s.Subtitles), res.Subtitles)

	if _, err := a.Usecase.Render(ctx, usecase.RenderInput{Hash: s.VideoHash, Out: res.Video}); err != nil {
		return res, err
	}
	return res, nil
}

// Sweep removes sessions and artifacts older than maxAge (the configured
// session max age when zero).
func (a *App) Sweep(ctx context.Context, maxAge time.Duration) (session.SweepStats, error) {
	if maxAge <= 0 {
		maxAge = a.Cfg.SessionMaxAge
	}
	return a.Sessions.Sweep(ctx, maxAge, time.Now())
}

// HashFile is the video hash: the first 10 hex chars of the content sha256.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil))[:10], nil
}

func buildRunOutDir(outRoot, inputMP4 string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(inputMP4), filepath.Ext(inputMP4))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", inputMP4, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.ASR = (*whispercpp.Adapter)(nil)
var _ ports.AudioCodec = wavio.Codec{}
var _ ports.Notifier = (*rabbitmq.Publisher)(nil)
