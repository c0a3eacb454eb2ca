package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lifter/pkg/layers"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

func newFindCmd() *cobra.Command {
	var (
		expr, name  string
		first, last bool
	)
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Print the ids of matching layers, bottom to top",
		Long: "--expr takes an expression over layer properties, for example\n" +
			"  lifter find --expr 'visible && opacity < 50'\n" +
			"--name takes a regular expression matched against layer names.",
		Args: cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, args []string, s *layers.Session) error {
			if (expr == "") == (name == "") {
				return fmt.Errorf("%w: find needs exactly one of --expr or --name", types.ErrInvalidArgument)
			}
			if first && last {
				return fmt.Errorf("%w: --first and --last are exclusive", types.ErrInvalidArgument)
			}

			ids, err := findIDs(s, expr, name, first, last)
			if err != nil {
				return err
			}
			switch {
			case len(ids) == 0:
			case first:
				ids = ids[:1]
			case last:
				ids = ids[len(ids)-1:]
			}
			return printIDs(cmd.OutOrStdout(), ids)
		}),
	}
	cmd.Flags().StringVar(&expr, "expr", "", "property expression")
	cmd.Flags().StringVar(&name, "name", "", "layer name pattern")
	cmd.Flags().BoolVar(&first, "first", false, "print only the bottom-most match")
	cmd.Flags().BoolVar(&last, "last", false, "print only the top-most match")
	return cmd
}

// findIDs runs a name or expression search. With first or last set, an
// expression search stops at the first hit from that end.
func findIDs(s *layers.Session, expr, name string, first, last bool) ([]int64, error) {
	if name != "" {
		return s.FindAllByName(name)
	}
	m, err := layers.MatchExpr(expr)
	if err != nil {
		return nil, err
	}
	if !first && !last {
		return s.FindAll(m)
	}
	find := s.FindFirst
	if last {
		find = s.FindLast
	}
	id, ok, err := find(m)
	if err != nil || !ok {
		return nil, err
	}
	return []int64{id}, nil
}
