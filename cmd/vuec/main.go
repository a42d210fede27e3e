package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/recera/vuec/cmd/vuec/internal/config"
	"github.com/recera/vuec/internal/cache"
	"github.com/recera/vuec/pkg/compiler"
)

var (
	version = compiler.Version
	commit  = "dev"
	date    = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globals holds the persistent flags shared by every command.
type globals struct {
	project   string
	logLevel  string
	logFormat string
}

func newRootCommand() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:   "vuec",
		Short: "vuec - a Vue single file component compiler",
		Long: `vuec compiles Vue single file components into JavaScript render
function modules. It can build a project once, watch it for changes, or
serve the compiled modules with hot module replacement.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.project, "project", "C", ".", "Project directory containing vuec.yaml")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format (console, json)")

	rootCmd.AddCommand(newCompileCommand(g))
	rootCmd.AddCommand(newWatchCommand(g))
	rootCmd.AddCommand(newServeCommand(g))
	rootCmd.AddCommand(newInitCommand(g))

	return rootCmd
}

// load reads the project configuration and builds the logger. Flags take
// precedence over vuec.yaml.
func (g *globals) load(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(g.project)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}

	log, err := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log.With().Str("cmd", cmd.Name()).Logger(), nil
}

// resolve makes a configured path relative to the project directory.
func (g *globals) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(g.project, path)
}

func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	switch format {
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("log format must be \"console\" or \"json\", got %q", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// newBuilder wires the compiler options and, when enabled, the artifact
// cache. The returned cleanup closes the cache.
func newBuilder(g *globals, cfg *config.Config, log zerolog.Logger) (*builder, func()) {
	b := &builder{
		srcDir: g.resolve(cfg.SrcDir),
		outDir: g.resolve(cfg.OutDir),
		opts:   cfg.CompilerOptions(),
		jobs:   cfg.Compiler.Jobs,
		log:    log,
	}
	b.opts.Logger = log

	cleanup := func() {}
	if cfg.Cache.Enabled {
		cc := cfg.CacheConfig()
		if cfg.Cache.Dir != "" {
			cc.Dir = g.resolve(cfg.Cache.Dir)
		}
		cc.Logger = log
		c, err := cache.New(cc)
		if err != nil {
			log.Warn().Err(err).Msg("cache disabled")
		} else {
			b.cache = c
			cleanup = func() {
				if err := c.Close(); err != nil {
					log.Warn().Err(err).Msg("cache close failed")
				}
			}
		}
	}
	return b, cleanup
}
