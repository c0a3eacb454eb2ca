package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lifter/pkg/layers"
)

func newGroupCmd() *cobra.Command {
	var (
		name, members string
		selection     bool
	)
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Create and merge layer groups",
	}
	mk := &cobra.Command{
		Use:   "make",
		Short: "Create a group and print the id of its start marker",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, args []string, s *layers.Session) error {
			ids, err := parseIDs(members)
			if err != nil {
				return err
			}
			id, err := s.MakeGroup(layers.GroupOptions{Members: ids, FromSelection: selection, Name: name})
			if err != nil {
				return err
			}
			return printIDs(cmd.OutOrStdout(), []int64{id})
		}),
	}
	mk.Flags().StringVar(&name, "name", "", "group name")
	mk.Flags().StringVar(&members, "members", "", "comma-separated ids moved into the group")
	mk.Flags().BoolVar(&selection, "from-selection", false, "move the selected layers into the group")

	cmd.AddCommand(
		mk,
		&cobra.Command{
			Use:   "merge <group>",
			Short: "Merge a group into one layer",
			Args:  cobra.ExactArgs(1),
			RunE: withSession(func(cmd *cobra.Command, args []string, s *layers.Session) error {
				ref, err := parseRef(args[0])
				if err != nil {
					return err
				}
				if err := s.MergeGroup(ref); err != nil {
					return err
				}
				id, err := s.ActiveLayerID()
				if err != nil {
					return err
				}
				if flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]int64{"id": id})
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			}),
		},
	)
	return cmd
}
