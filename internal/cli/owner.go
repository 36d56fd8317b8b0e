package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	flag "github.com/spf13/pflag"
)

var errIndexRequired = errors.New("at least one global index is required")

// OwnerCmd returns the owner command.
func OwnerCmd(e *Env) *Command {
	var (
		f     layoutFlags
		bound bool
	)

	fs := flag.NewFlagSet("owner", flag.ContinueOnError)
	f.register(fs)
	fs.BoolVar(&bound, "exclusive-bound", false, "Treat each argument as an exclusive upper bound")

	return &Command{
		Flags: fs,
		Usage: "owner --local-sizes a,b,c <idx>...",
		Short: "Resolve the owner of global indices",
		Long: "Print the owning process of every global index and the index's offset\n" +
			"inside the owner's range. With --exclusive-bound, print the owner of the\n" +
			"last index below each bound instead.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errIndexRequired
			}
			indices := make([]int, len(args))
			for i, a := range args {
				v, err := strconv.Atoi(a)
				if err != nil {
					return fmt.Errorf("invalid index %q", a)
				}
				indices[i] = v
			}

			layouts, err := f.build(ctx, e)
			if err != nil {
				return err
			}
			l := layouts[0]

			for _, idx := range indices {
				if bound {
					owner, err := l.OwnerOfExclusiveBound(idx)
					if err != nil {
						return err
					}
					o.Printf("%d\towner %d\n", idx, owner)
					continue
				}
				owner, offset, err := l.FindOwnerIndex(idx)
				if err != nil {
					return err
				}
				o.Printf("%d\towner %d\toffset %d\n", idx, owner, offset)
			}
			return nil
		},
	}
}
