package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lifter/pkg/layers"
)

func newMaskCmd() *cobra.Command {
	var vector, apply bool
	cmd := &cobra.Command{
		Use:   "mask",
		Short: "Add, remove and inspect layer masks",
	}
	cmd.PersistentFlags().BoolVar(&vector, "vector", false, "operate on the vector mask")

	remove := &cobra.Command{
		Use:   "remove [layer]",
		Short: "Remove a mask, optionally applying it first",
		Args:  cobra.MaximumNArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *layers.Session) error {
			ref, err := parseRef(firstArg(args))
			if err != nil {
				return err
			}
			if vector {
				return s.RemoveVectorMask(ref, apply)
			}
			return s.RemoveLayerMask(ref, apply)
		}),
	}
	remove.Flags().BoolVar(&apply, "apply", false, "apply the mask to the layer before removing it")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add [layer]",
			Short: "Add a layer mask revealing the pixel selection, or a vector mask",
			Args:  cobra.MaximumNArgs(1),
			RunE: withSession(func(cmd *cobra.Command, args []string, s *layers.Session) error {
				ref, err := parseRef(firstArg(args))
				if err != nil {
					return err
				}
				if vector {
					return s.AddVectorMask(ref)
				}
				return s.AddLayerMask(ref)
			}),
		},
		remove,
		&cobra.Command{
			Use:   "show [layer]",
			Short: "Report which masks the layer carries",
			Args:  cobra.MaximumNArgs(1),
			RunE: withSession(func(cmd *cobra.Command, args []string, s *layers.Session) error {
				ref, err := parseRef(firstArg(args))
				if err != nil {
					return err
				}
				state := make(map[string]any, 3)
				for name, has := range map[string]func(layers.LayerRef) (bool, error){
					"layer":  s.HasLayerMask,
					"vector": s.HasVectorMask,
					"filter": s.HasFilterMask,
				} {
					ok, err := has(ref)
					if err != nil {
						return err
					}
					state[name] = ok
				}
				if flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), state)
				}
				return printValues(cmd.OutOrStdout(), state)
			}),
		},
		&cobra.Command{
			Use:   "invert [layer]",
			Short: "Invert the layer mask",
			Args:  cobra.MaximumNArgs(1),
			RunE: withSession(func(cmd *cobra.Command, args []string, s *layers.Session) error {
				ref, err := parseRef(firstArg(args))
				if err != nil {
					return err
				}
				if vector {
					return fmt.Errorf("invert applies to layer masks only: %w", errUsage)
				}
				return s.InvertLayerMask(ref)
			}),
		},
	)
	return cmd
}
