package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lifter/pkg/layers"
)

func newPropCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prop",
		Short: "Read and write layer properties",
		Long: "Layers are addressed by id, by @N for the Nth layer from the bottom,\n" +
			"or by \"current\" for the host's target layer.",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <layer> <property>",
			Short: "Print one property",
			Args:  cobra.ExactArgs(2),
			RunE: withSession(func(cmd *cobra.Command, args []string, s *layers.Session) error {
				ref, err := parseRef(args[0])
				if err != nil {
					return err
				}
				v, err := s.Get(ref, args[1])
				if err != nil {
					return err
				}
				if flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]any{args[1]: v})
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatValue(v))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "set <layer> <property> <value>",
			Short: "Write one property",
			Args:  cobra.ExactArgs(3),
			RunE: withSession(func(cmd *cobra.Command, args []string, s *layers.Session) error {
				ref, err := parseRef(args[0])
				if err != nil {
					return err
				}
				value, err := s.Registry().Parse(args[1], args[2])
				if err != nil {
					return err
				}
				return s.Set(ref, args[1], value)
			}),
		},
		&cobra.Command{
			Use:   "all [layer]",
			Short: "Print every readable property",
			Args:  cobra.MaximumNArgs(1),
			RunE: withSession(func(cmd *cobra.Command, args []string, s *layers.Session) error {
				ref, err := parseRef(firstArg(args))
				if err != nil {
					return err
				}
				snap, err := s.GetAll(ref)
				if err != nil {
					return err
				}
				if flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]any{"id": snap.LayerID, "properties": snap.Values})
				}
				return printValues(cmd.OutOrStdout(), snap.Values)
			}),
		},
		&cobra.Command{
			Use:   "names",
			Short: "List the registered property names",
			Args:  cobra.NoArgs,
			RunE: runE(func(cmd *cobra.Command, args []string) error {
				names := layers.DefaultRegistry().Names()
				if flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), names)
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}),
		},
	)
	return cmd
}
