package cli

import (
	"context"
	"fmt"

	"github.com/hupe1980/whale/resource"
	"github.com/hupe1980/whale/snapshot"

	flag "github.com/spf13/pflag"
)

// SaveCmd returns the save command.
func SaveCmd(e *Env) *Command {
	var (
		f           layoutFlags
		name        string
		mappingName string
		commit      bool
		exclusive   bool
		ioLimit     int64
		ghosts      []int
		rank        int
	)

	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	f.register(fs)
	fs.StringVar(&name, "name", "", "Snapshot name (default: next layout-NNNNNN.whl)")
	fs.BoolVar(&commit, "commit", false, "Point CURRENT at the saved layout")
	fs.BoolVar(&exclusive, "exclusive", false, "Fail if the snapshot already exists")
	fs.Int64Var(&ioLimit, "io-limit", 0, "Upload limit in bytes per second (0 = unlimited)")
	fs.IntSliceVar(&ghosts, "ghosts", nil, "Ghost indices of the mapping of --rank; saves a mapping snapshot")
	fs.IntVar(&rank, "rank", 0, "Rank whose local-to-global mapping is saved")
	fs.StringVar(&mappingName, "mapping-name", "", "Mapping snapshot name (default: next mapping-rR-NNNNNN.whl)")

	return &Command{
		Flags: fs,
		Usage: "save --local-sizes a,b,c [flags]",
		Short: "Save a layout snapshot",
		Long: "Set up a layout and save it to the snapshot store. With --ghosts, also\n" +
			"save the local-to-global mapping of --rank (owned range plus ghosts).",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			layouts, err := f.build(ctx, e)
			if err != nil {
				return err
			}
			if rank < 0 || rank >= len(layouts) {
				return fmt.Errorf("--rank %d out of range [0, %d)", rank, len(layouts))
			}

			store, err := e.Store(ctx)
			if err != nil {
				return err
			}

			opts := []snapshot.Option{
				snapshot.WithLogger(e.Logger),
				snapshot.WithCompression(e.Settings.Compression),
			}
			if exclusive {
				opts = append(opts, snapshot.WithExclusive())
			}
			if ioLimit > 0 {
				opts = append(opts, snapshot.WithResource(resource.NewController(resource.Config{
					IOLimitBytesPerSec: ioLimit,
				})))
			}

			if name == "" {
				if name, err = snapshot.Next(ctx, store, "layout"); err != nil {
					return err
				}
			}
			if err := snapshot.SaveLayout(ctx, store, name, layouts[0], opts...); err != nil {
				return err
			}
			o.Println("saved", name)

			if fs.Changed("ghosts") {
				m, err := layouts[rank].NewMapping(ghosts)
				if err != nil {
					return err
				}
				defer func() { _ = m.Destroy() }()

				if mappingName == "" {
					if mappingName, err = snapshot.Next(ctx, store, fmt.Sprintf("mapping-r%d", rank)); err != nil {
						return err
					}
				}
				if err := snapshot.SaveMapping(ctx, store, mappingName, m, opts...); err != nil {
					return err
				}
				o.Println("saved", mappingName)
			}

			if commit {
				if err := snapshot.Commit(ctx, store, name, opts...); err != nil {
					return err
				}
				o.Println("committed", name)
			}
			return nil
		},
	}
}
