package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/whale"
	"github.com/hupe1980/whale/comm"
	"github.com/hupe1980/whale/comm/local"
	"github.com/hupe1980/whale/layout"
	"github.com/hupe1980/whale/viewer"

	flag "github.com/spf13/pflag"
)

var errNoLayout = errors.New("one of --size or --local-sizes is required")

// layoutFlags are the flags that describe a layout to build.
type layoutFlags struct {
	size       int
	procs      int
	blockSize  int
	localSizes []int
}

func (f *layoutFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&f.size, "size", whale.Decide, "Global size N")
	fs.IntVarP(&f.procs, "procs", "p", 0, "Number of processes (default: number of --local-sizes, or 1)")
	fs.IntVar(&f.blockSize, "block-size", 1, "Block size")
	fs.IntSliceVar(&f.localSizes, "local-sizes", nil, "Comma-separated local size of every process")
}

// build sets up the layout on every rank of an in-process world and
// returns the layouts by rank.
func (f *layoutFlags) build(ctx context.Context, e *Env) ([]*layout.Layout, error) {
	procs := f.procs
	switch {
	case len(f.localSizes) > 0 && procs == 0:
		procs = len(f.localSizes)
	case len(f.localSizes) > 0 && procs != len(f.localSizes):
		return nil, fmt.Errorf("--procs %d does not match %d local sizes", procs, len(f.localSizes))
	case len(f.localSizes) == 0 && f.size == whale.Decide:
		return nil, errNoLayout
	case procs == 0:
		procs = 1
	}

	w, err := local.NewWorld(procs, local.WithLogger(e.Logger))
	if err != nil {
		return nil, err
	}

	layouts := make([]*layout.Layout, procs)
	err = w.Run(ctx, func(ctx context.Context, c comm.Communicator) error {
		l, err := layout.New(c, layout.WithBlockSize(f.blockSize), layout.WithLogger(e.Logger))
		if err != nil {
			return err
		}
		if len(f.localSizes) > 0 {
			if err := l.SetLocalSize(f.localSizes[c.Rank()]); err != nil {
				return err
			}
		}
		if err := l.SetSize(f.size); err != nil {
			return err
		}
		if err := l.SetUp(ctx); err != nil {
			return err
		}
		layouts[c.Rank()] = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return layouts, nil
}

// SplitCmd returns the split command.
func SplitCmd(e *Env) *Command {
	var f layoutFlags

	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	f.register(fs)

	return &Command{
		Flags: fs,
		Usage: "split --size N --procs P [flags]",
		Short: "Print the ownership ranges of a layout",
		Long: "Set up a layout on P in-process ranks and print its ownership ranges.\n" +
			"Without --local-sizes the global size is split evenly.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			layouts, err := f.build(ctx, e)
			if err != nil {
				return err
			}
			return viewer.NewASCII(o.Out()).ViewLayout(layouts[0])
		},
	}
}
