package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lifter/pkg/layers"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

// layerRow is one line of "layers list".
type layerRow struct {
	Index   int             `json:"index"`
	ID      int64           `json:"id"`
	Type    types.LayerType `json:"type"`
	Name    string          `json:"name,omitempty"`
	Visible bool            `json:"visible"`
	Active  bool            `json:"active"`
	Depth   int             `json:"depth"`
}

func newLayersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layers",
		Short: "Inspect the layer stack of the active document",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List layers from the top of the stack down",
			Args:  cobra.NoArgs,
			RunE: withSession(func(cmd *cobra.Command, args []string, s *layers.Session) error {
				rows, err := stackRows(s)
				if err != nil {
					return err
				}
				if flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), rows)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "INDEX\tID\tTYPE\tVISIBLE\tNAME")
				for _, r := range rows {
					mark := " "
					if r.Active {
						mark = "*"
					}
					fmt.Fprintf(tw, "%d\t%d\t%s\t%t\t%s%s\n", r.Index, r.ID, r.Type, r.Visible, mark, r.Name)
				}
				return tw.Flush()
			}),
		},
		&cobra.Command{
			Use:   "tree",
			Short: "Show the layer stack indented by group",
			Args:  cobra.NoArgs,
			RunE: withSession(func(cmd *cobra.Command, args []string, s *layers.Session) error {
				rows, err := stackRows(s)
				if err != nil {
					return err
				}
				if flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), rows)
				}
				out := cmd.OutOrStdout()
				for _, r := range rows {
					if r.Type == types.LayerGroupEnd {
						continue
					}
					suffix := ""
					if r.Type == types.LayerGroupStart {
						suffix = "/"
					}
					fmt.Fprintf(out, "%s%s%s (%d)\n", strings.Repeat("  ", r.Depth), r.Name, suffix, r.ID)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "parents [layer]",
			Short: "Print the enclosing group ids, outermost first",
			Args:  cobra.MaximumNArgs(1),
			RunE: withSession(func(cmd *cobra.Command, args []string, s *layers.Session) error {
				ref, err := parseRef(firstArg(args))
				if err != nil {
					return err
				}
				ids, err := s.ParentGroupIDs(ref)
				if err != nil {
					return err
				}
				return printIDs(cmd.OutOrStdout(), ids)
			}),
		},
		&cobra.Command{
			Use:   "active",
			Short: "Print the active layer ids in selection order",
			Args:  cobra.NoArgs,
			RunE: withSession(func(cmd *cobra.Command, args []string, s *layers.Session) error {
				ids, err := s.ActiveLayerIDs()
				if err != nil {
					return err
				}
				return printIDs(cmd.OutOrStdout(), ids)
			}),
		},
		newSelectCmd(),
	)
	return cmd
}

func newSelectCmd() *cobra.Command {
	var (
		add, visible, none, all bool
	)
	cmd := &cobra.Command{
		Use:   "select [id...]",
		Short: "Make layers active",
		RunE: withSession(func(cmd *cobra.Command, args []string, s *layers.Session) error {
			switch {
			case none:
				return s.MakeNoneActive()
			case all:
				return s.MakeAllActive()
			}
			ids, err := parseIDs(strings.Join(args, ","))
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return fmt.Errorf("%w: select needs layer ids, --all or --none", types.ErrInvalidArgument)
			}
			return s.MakeActive(ids, layers.ActivateOptions{Additive: add, MakeVisible: visible})
		}),
	}
	cmd.Flags().BoolVar(&add, "add", false, "keep the current selection")
	cmd.Flags().BoolVar(&visible, "show", false, "make the layers visible")
	cmd.Flags().BoolVar(&none, "none", false, "deselect every layer")
	cmd.Flags().BoolVar(&all, "all", false, "select every layer")
	return cmd
}

// stackRows reads the stack from the top down. Depth counts enclosing
// groups; group end markers carry the depth of their group start.
func stackRows(s *layers.Session) ([]layerRow, error) {
	active, err := s.ActiveLayerIDs()
	if err != nil {
		return nil, err
	}
	isActive := make(map[int64]bool, len(active))
	for _, id := range active {
		isActive[id] = true
	}

	var rows []layerRow
	depth := 0
	err = s.ForEach(func(index int, id int64) error {
		ref := layers.ByID(id)
		typ, err := s.Get(ref, "type")
		if err != nil {
			return err
		}
		row := layerRow{Index: index, ID: id, Active: isActive[id]}
		row.Type, _ = typ.(types.LayerType)
		if row.Type == types.LayerGroupEnd {
			depth--
			row.Depth = depth
			rows = append(rows, row)
			return nil
		}
		row.Depth = depth
		if row.Type == types.LayerGroupStart {
			depth++
		}
		if row.Name, err = getString(s, ref, "name"); err != nil {
			return err
		}
		visible, err := s.Get(ref, "visible")
		if err != nil {
			return err
		}
		row.Visible, _ = visible.(bool)
		rows = append(rows, row)
		return nil
	}, true)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func getString(s *layers.Session, ref layers.LayerRef, name string) (string, error) {
	v, err := s.Get(ref, name)
	if errors.Is(err, types.ErrUnsupportedOnMarker) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	str, _ := v.(string)
	return str, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
