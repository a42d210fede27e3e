package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/recera/vuec/cmd/vuec/internal/ui"
	"github.com/recera/vuec/pkg/compiler/diag"
)

func newWatchCommand(g *globals) *cobra.Command {
	var useTUI bool
	f := &compileFlags{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompile components as they change",
		Long: `Compiles the source directory, then watches it and recompiles every
component that is written, created or removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, g, f, useTUI)
		},
	}

	cmd.Flags().BoolVar(&useTUI, "tui", false, "Show an interactive dashboard")
	cmd.Flags().StringVarP(&f.outDir, "out-dir", "o", "", "Output directory (defaults to outDir from vuec.yaml)")
	cmd.Flags().BoolVar(&f.prod, "prod", false, "Compile for production (inline render functions)")
	cmd.Flags().BoolVar(&f.sourceMap, "source-map", false, "Write source maps")

	return cmd
}

// reporter receives the outcome of each watch rebuild.
type reporter interface {
	started(files []string)
	finished(units []unit, outputs map[string]string, elapsed time.Duration)
	removed(files []string)
}

func runWatch(cmd *cobra.Command, g *globals, f *compileFlags, useTUI bool) error {
	cfg, log, err := g.load(cmd)
	if err != nil {
		return err
	}
	b, cleanup := newBuilder(g, cfg, log)
	defer cleanup()
	if err := f.apply(cmd, b); err != nil {
		return err
	}

	w, err := newWatcher(b.srcDir, log)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", b.srcDir, err)
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !useTUI {
		r := &consoleReporter{out: cmd.OutOrStdout()}
		fmt.Fprintf(r.out, "👀 Watching %s for changes...\n", b.srcDir)
		return watchLoop(ctx, b, w, r)
	}

	// The dashboard owns the terminal, so logs are silenced.
	b.log = b.log.Level(zerolog.Disabled)
	b.opts.Logger = b.log
	p := tea.NewProgram(ui.NewModel(b.srcDir), tea.WithAltScreen(), tea.WithContext(ctx))
	go func() {
		if err := watchLoop(ctx, b, w, &tuiReporter{p: p}); err != nil {
			p.Send(ui.LogMsg("watch stopped: " + err.Error()))
		}
	}()
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// watchLoop builds the whole source tree, then rebuilds on every change
// set until ctx is done.
func watchLoop(ctx context.Context, b *builder, w *watcher, r reporter) error {
	files, err := discover([]string{b.srcDir})
	if err != nil {
		return err
	}
	if err := rebuild(ctx, b, files, r); err != nil {
		return err
	}

	w.run(ctx, func(set changeSet) {
		if len(set.Removed) > 0 {
			for _, path := range set.Removed {
				if b.cache != nil {
					b.cache.InvalidateByDependency(path)
				}
				out := b.outputPath(path)
				os.Remove(out)
				os.Remove(out + ".map")
			}
			r.removed(set.Removed)
		}
		if len(set.Changed) > 0 {
			if err := rebuild(ctx, b, set.Changed, r); err != nil {
				b.log.Error().Err(err).Msg("rebuild failed")
			}
		}
	})
	return nil
}

func rebuild(ctx context.Context, b *builder, files []string, r reporter) error {
	r.started(files)
	start := time.Now()
	units, err := b.build(ctx, files)
	if err != nil {
		return err
	}
	outputs := map[string]string{}
	for _, u := range units {
		if u.Failed() {
			continue
		}
		out, err := b.write(u)
		if err != nil {
			return err
		}
		outputs[u.Path] = out
	}
	r.finished(units, outputs, time.Since(start))
	return nil
}

type consoleReporter struct {
	out io.Writer
}

func (r *consoleReporter) started(files []string) {
	fmt.Fprintf(r.out, "🔨 Compiling %d component(s)...\n", len(files))
}

func (r *consoleReporter) finished(units []unit, outputs map[string]string, elapsed time.Duration) {
	for _, u := range units {
		if out, ok := outputs[u.Path]; ok {
			fmt.Fprintf(r.out, "  ✓ %s → %s\n", u.Path, out)
		}
	}
	printDiagnostics(r.out, units)
	fmt.Fprintf(r.out, "✅ Done in %v\n", elapsed.Round(time.Millisecond))
}

func (r *consoleReporter) removed(files []string) {
	for _, path := range files {
		fmt.Fprintf(r.out, "🗑️  %s removed\n", path)
	}
}

type tuiReporter struct {
	p *tea.Program
}

func (r *tuiReporter) started(files []string) {
	r.p.Send(ui.BuildStartedMsg{Files: files})
}

func (r *tuiReporter) finished(units []unit, outputs map[string]string, elapsed time.Duration) {
	results := make([]ui.FileResult, len(units))
	for i, u := range units {
		results[i] = fileResult(u, outputs[u.Path])
	}
	r.p.Send(ui.BuildFinishedMsg{Results: results, Elapsed: elapsed})
}

func (r *tuiReporter) removed(files []string) {
	r.p.Send(ui.RemovedMsg{Files: files})
}

// fileResult converts a unit into a dashboard row.
func fileResult(u unit, output string) ui.FileResult {
	res := ui.FileResult{Path: u.Path, Output: output, Cached: u.Cached, Status: ui.StatusOK}
	if u.Result == nil {
		res.Status = ui.StatusFailed
		if u.Err != nil {
			res.Messages = []string{u.Err.Error()}
		}
		return res
	}
	if u.Err != nil {
		res.Status = ui.StatusFailed
	}
	for _, d := range u.Result.Errors {
		res.Messages = append(res.Messages, d.Error())
		switch {
		case d.Severity != diag.Warning:
			res.Status = ui.StatusFailed
		case res.Status == ui.StatusOK:
			res.Status = ui.StatusWarning
		}
	}
	return res
}
