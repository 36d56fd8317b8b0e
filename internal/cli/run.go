// Package cli implements the whalectl command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hupe1980/whale"
	"github.com/hupe1980/whale/blobstore"

	flag "github.com/spf13/pflag"
)

// Env is the resolved environment a command runs in.
type Env struct {
	Config     Config
	ConfigPath string
	Settings   Settings
	WorkDir    string
	Logger     *whale.Logger
	// Vars holds the process environment.
	Vars map[string]string

	store blobstore.Store
}

// Store opens the configured store once.
func (e *Env) Store(ctx context.Context) (blobstore.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	s, err := OpenStore(ctx, e.Settings.Store, e.WorkDir, e.Vars)
	if err != nil {
		return nil, err
	}
	e.store = s
	return s, nil
}

type globalFlags struct {
	workDir     string
	configPath  string
	store       string
	compression string
	timeout     string
	logLevel    string
}

func newGlobalFlagSet(g *globalFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("whalectl", flag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(&strings.Builder{})
	fs.StringVarP(&g.workDir, "cwd", "C", "", "Run as if started in `dir`")
	fs.StringVarP(&g.configPath, "config", "c", "", "Use specified config `file`")
	fs.StringVar(&g.store, "store", "", "Snapshot store `url` (mem://, file://, s3://, minio://)")
	fs.StringVar(&g.compression, "compression", "", "Snapshot compression (none, lz4, zstd)")
	fs.StringVar(&g.timeout, "timeout", "", "Command timeout, e.g. 30s")
	fs.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	return fs
}

func commands(env *Env) []*Command {
	return []*Command{
		SplitCmd(env),
		OwnerCmd(env),
		SaveCmd(env),
		ShowCmd(env),
		LsCmd(env),
		ConfigCmd(env),
	}
}

// Run is the main entry point. Returns exit code.
func Run(_ io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	var g globalFlags
	fs := newGlobalFlagSet(&g)

	if len(args) > 0 {
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(out, fs, commands(&Env{}))
			return 0
		}
		fprintln(errOut, "error:", err)
		return 1
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(out, fs, commands(&Env{}))
		return 0
	}

	workDir := g.workDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			fprintln(errOut, "error: cannot get working directory:", err)
			return 1
		}
		workDir = wd
	}

	cfg, cfgPath, err := LoadConfig(workDir, g.configPath, Config{
		Store:       g.store,
		Compression: g.compression,
		Timeout:     g.timeout,
		LogLevel:    g.logLevel,
	})
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	settings, err := cfg.Validate()
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}

	e := &Env{
		Config:     cfg,
		ConfigPath: cfgPath,
		Settings:   settings,
		WorkDir:    workDir,
		Logger:     whale.NewLogger(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: settings.LogLevel})),
		Vars:       env,
	}

	var cmd *Command
	for _, c := range commands(e) {
		if c.Name() == rest[0] {
			cmd = c
			break
		}
	}
	if cmd == nil {
		fprintln(errOut, "error: unknown command:", rest[0])
		printUsage(errOut, fs, commands(e))
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if settings.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, settings.Timeout)
		defer cancel()
	}
	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	return cmd.Run(ctx, NewIO(out, errOut), rest[1:])
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, fs *flag.FlagSet, cmds []*Command) {
	fprintln(w, `whalectl - distributed index layouts and snapshots

Usage: whalectl [options] <command> [args]

Options:`)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fs.SetOutput(&strings.Builder{})
	fprintln(w)
	fprintln(w, "Commands:")
	for _, c := range cmds {
		fprintln(w, c.HelpLine())
	}
}
