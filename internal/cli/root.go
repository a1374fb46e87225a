package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forPelevin/beepsub/internal/config"
	"github.com/forPelevin/beepsub/internal/pipeline"
)

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "beepsub",
		Short:         "Beep forbidden words out of a video and burn masked subtitles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.String("config", "", "YAML config file (default $BEEPSUB_CONFIG)")
	pf.String("workdir", "", "Work directory for sessions and renders")
	pf.String("db", "", "Session database path")
	pf.BoolP("quiet", "q", false, "Only print results")

	root.AddCommand(
		newPreviewCmd(),
		newShowCmd(),
		newEditCmd(),
		newRenderCmd(),
		newExportCmd(),
		newRunCmd(),
		newSweepCmd(),
	)
	return root
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("BEEPSUB_CONFIG")
	}
	if path != "" {
		var err error
		if cfg, err = cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}

	cfg, err := cfg.ApplyEnv(os.Getenv)
	if err != nil {
		return cfg, err
	}

	if v, _ := cmd.Flags().GetString("workdir"); strings.TrimSpace(v) != "" {
		cfg.WorkDir = v
	}
	if v, _ := cmd.Flags().GetString("db"); strings.TrimSpace(v) != "" {
		cfg.DBPath = v
	}
	return cfg, nil
}

// openApp loads the config and wires the pipeline. The caller closes the app.
func openApp(cmd *cobra.Command) (*pipeline.App, printer, error) {
	p := newPrinter(cmd.ErrOrStderr())
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, p, err
	}
	var logf func(string, ...any)
	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		logf = p.Logf
	}
	app, err := pipeline.Open(cfg, logf)
	if err != nil {
		return nil, p, err
	}
	return app, p, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt)
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
