package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/beepsub/internal/config"
	"github.com/forPelevin/beepsub/internal/pipeline"
	"github.com/forPelevin/beepsub/internal/types"
	"github.com/forPelevin/beepsub/internal/usecase"
)

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <video>",
		Short: "Transcribe and censor a video into an editable session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, p, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx, cancel := commandContext(cmd)
			defer cancel()

			in, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			s, err := app.Preview(ctx, in, wordsFlag(cmd))
			if err != nil {
				return err
			}
			p.ok("session %s: %d subtitles, %d beeps", s.VideoHash, len(s.Subtitles), len(s.BeepIntervals))
			fmt.Fprintln(cmd.OutOrStdout(), s.VideoHash)
			return nil
		},
	}
	cmd.Flags().String("words", "", "Comma separated forbidden words (default: configured list)")
	return cmd
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <hash>",
		Short: "Print a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			s, err := app.Sessions.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd, s)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSession(s))
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the session record as JSON")
	return cmd
}

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <hash>",
		Short: "Replace a session's subtitles, forbidden words or beeps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := patchFromFlags(cmd)
			if err != nil {
				return err
			}
			app, p, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			s, err := app.Usecase.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			p.ok("session %s updated: %d subtitles, words [%s], %d beeps",
				s.VideoHash, len(s.Subtitles), strings.Join(s.ForbiddenWords, ", "), len(s.BeepIntervals))
			return nil
		},
	}
	f := cmd.Flags()
	f.String("subtitles", "", "JSON file with the full subtitle list")
	f.String("words", "", "Comma separated forbidden words (blank resets to the default list)")
	f.Bool("reset-words", false, "Reset forbidden words to the default list")
	f.String("beeps", "", "JSON file with beep intervals [[start, end], ...]")
	cmd.MarkFlagsMutuallyExclusive("words", "reset-words")
	return cmd
}

func patchFromFlags(cmd *cobra.Command) (types.Patch, error) {
	var patch types.Patch
	if path, _ := cmd.Flags().GetString("subtitles"); path != "" {
		subs, err := readSubtitlesFile(path)
		if err != nil {
			return patch, err
		}
		patch.Subtitles = subs
	}
	if reset, _ := cmd.Flags().GetBool("reset-words"); reset {
		patch.ForbiddenWords = []string{}
	} else if cmd.Flags().Changed("words") {
		patch.ForbiddenWords = wordsFlag(cmd)
		if patch.ForbiddenWords == nil {
			patch.ForbiddenWords = []string{}
		}
	}
	if path, _ := cmd.Flags().GetString("beeps"); path != "" {
		beeps, err := readBeepsFile(path)
		if err != nil {
			return patch, err
		}
		patch.BeepIntervals = beeps
	}
	if patch.Empty() {
		return patch, usageErr("nothing to edit: pass --subtitles, --words, --reset-words or --beeps")
	}
	return patch, nil
}

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <hash>",
		Short: "Render the final video and drop the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := usecase.RenderInput{Hash: args[0], Words: wordsFlag(cmd)}
			if path, _ := cmd.Flags().GetString("beeps"); path != "" {
				beeps, err := readBeepsFile(path)
				if err != nil {
					return err
				}
				in.BeepIntervals = beeps
			}
			in.UseSessionBeeps, _ = cmd.Flags().GetBool("session-beeps")
			if out, _ := cmd.Flags().GetString("out"); out != "" {
				abs, err := filepath.Abs(out)
				if err != nil {
					return err
				}
				in.Out = abs
			}

			app, p, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx, cancel := commandContext(cmd)
			defer cancel()

			res, err := app.Usecase.Render(ctx, in)
			if err != nil {
				return err
			}
			how := "recomputed"
			if !res.Recomputed {
				how = "supplied"
			}
			p.ok("rendered %dx%d with %d %s beeps", res.Meta.Width, res.Meta.Height, len(res.Beeps), how)
			fmt.Fprintln(cmd.OutOrStdout(), res.Output)
			return nil
		},
	}
	f := cmd.Flags()
	f.String("words", "", "Comma separated forbidden words for recomputation (default: session list)")
	f.String("beeps", "", "JSON file with beep intervals used verbatim")
	f.Bool("session-beeps", false, "Use the session's stored beep intervals verbatim")
	f.String("out", "", "Output video path (default: <workdir>/final_<hash>.mp4)")
	cmd.MarkFlagsMutuallyExclusive("beeps", "session-beeps")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <hash>",
		Short: "Write a session's subtitles as timed plain text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, p, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				return app.Usecase.Export(cmd.Context(), args[0], cmd.OutOrStdout())
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := app.Usecase.Export(cmd.Context(), args[0], f); err != nil {
				f.Close()
				os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			p.ok("subtitles written: %s", out)
			return nil
		},
	}
	cmd.Flags().String("out", "", "Output file (default: stdout)")
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <video>",
		Short: "Preview and render in one go with recomputed beeps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, p, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx, cancel := commandContext(cmd)
			defer cancel()

			in, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			outDir, _ := cmd.Flags().GetString("out")
			res, err := app.Run(ctx, pipeline.RunInput{InputMP4: in, OutDir: outDir, Words: wordsFlag(cmd)})
			if err != nil {
				return err
			}
			p.ok("video: %s", res.Video)
			p.ok("subtitles: %s", res.Subtitles)
			fmt.Fprintln(cmd.OutOrStdout(), res.RunDir)
			return nil
		},
	}
	cmd.Flags().String("out", getenvDefault("BEEPSUB_OUT_DIR", "out"), "Output directory")
	cmd.Flags().String("words", "", "Comma separated forbidden words (default: configured list)")
	return cmd
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete sessions and artifacts older than the max age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, p, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			maxAge, _ := cmd.Flags().GetDuration("max-age")
			st, err := app.Sweep(cmd.Context(), maxAge)
			if err != nil {
				return err
			}
			if st.Errors > 0 {
				p.warn("%d artifacts could not be removed", st.Errors)
			}
			return writeJSON(cmd, st)
		},
	}
	cmd.Flags().Duration("max-age", 0, fmt.Sprintf("Age limit (default: configured, %s)", config.Default().SessionMaxAge))
	return cmd
}

// wordsFlag returns nil when --words is blank or absent.
func wordsFlag(cmd *cobra.Command) []string {
	raw, _ := cmd.Flags().GetString("words")
	return config.ParseWordList(raw)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func fmtSec(s float64) string {
	return (time.Duration(s * float64(time.Second))).Truncate(time.Millisecond).String()
}
