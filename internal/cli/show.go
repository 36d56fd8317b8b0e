package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/whale/comm"
	"github.com/hupe1980/whale/comm/local"
	"github.com/hupe1980/whale/snapshot"
	"github.com/hupe1980/whale/viewer"

	flag "github.com/spf13/pflag"
)

// ShowCmd returns the show command.
func ShowCmd(e *Env) *Command {
	var name string

	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.StringVar(&name, "name", "", "Snapshot name (default: CURRENT)")

	return &Command{
		Flags: fs,
		Usage: "show [--name X]",
		Short: "Print a snapshot",
		Long:  "Decode a snapshot and print it with the ASCII viewer.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			store, err := e.Store(ctx)
			if err != nil {
				return err
			}
			if name == "" {
				if name, err = snapshot.Current(ctx, store); err != nil {
					return err
				}
			}

			data, err := snapshot.Load(ctx, store, name, snapshot.WithLogger(e.Logger))
			if err != nil {
				return err
			}
			h, err := viewer.ReadHeader(data)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			o.Printf("Snapshot: %s (%s, %s, %d bytes)\n", name, h.Kind, h.Compression, len(data))

			v := viewer.NewASCII(o.Out())
			switch h.Kind {
			case viewer.KindLayout:
				_, ranges, err := viewer.DecodeLayoutRanges(data)
				if err != nil {
					return err
				}
				w, err := local.NewWorld(max(len(ranges)-1, 1))
				if err != nil {
					return err
				}
				c, err := w.Comm(0)
				if err != nil {
					return err
				}
				l, err := viewer.DecodeLayout(c, data)
				if err != nil {
					return err
				}
				return v.ViewLayout(l)
			case viewer.KindMapping:
				m, err := viewer.DecodeMapping(comm.Self(), data)
				if err != nil {
					return err
				}
				defer func() { _ = m.Destroy() }()
				return v.ViewMapping(m)
			case viewer.KindIS:
				s, err := viewer.DecodeIS(comm.Self(), data)
				if err != nil {
					return err
				}
				return v.ViewIS(s)
			default:
				return errors.New("unknown snapshot kind")
			}
		},
	}
}

// LsCmd returns the ls command.
func LsCmd(e *Env) *Command {
	var (
		prefix string
		long   bool
	)

	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.StringVar(&prefix, "prefix", "", "Only list snapshots with this prefix")
	fs.BoolVarP(&long, "long", "l", false, "Also print kind, compression and size from each header")

	return &Command{
		Flags: fs,
		Usage: "ls [--prefix P] [-l]",
		Short: "List snapshots, marking the committed one",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			store, err := e.Store(ctx)
			if err != nil {
				return err
			}
			current, err := snapshot.Current(ctx, store)
			if err != nil && !errors.Is(err, snapshot.ErrNoCurrent) {
				return err
			}
			names, err := store.List(ctx, prefix)
			if err != nil {
				return err
			}
			for _, n := range names {
				if n == snapshot.CurrentName {
					continue
				}
				mark := " "
				if n == current {
					mark = "*"
				}
				if !long {
					o.Printf("%s %s\n", mark, n)
					continue
				}
				info, err := snapshot.Stat(ctx, store, n)
				if err != nil {
					o.Printf("%s %s\t?\t%v\n", mark, n, err)
					continue
				}
				o.Printf("%s %s\t%s\t%s\t%d\n", mark, n, info.Kind, info.Compression, info.Size)
			}
			return nil
		},
	}
}

// ConfigCmd returns the config command.
func ConfigCmd(e *Env) *Command {
	return &Command{
		Flags: flag.NewFlagSet("config", flag.ContinueOnError),
		Usage: "config",
		Short: "Show resolved configuration",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			formatted, err := FormatConfig(e.Config)
			if err != nil {
				return err
			}
			o.Println(formatted)
			if e.ConfigPath != "" {
				o.Println("# source:", e.ConfigPath)
			} else {
				o.Println("# source: defaults")
			}
			return nil
		},
	}
}
