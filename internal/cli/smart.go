package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lifter/pkg/layers"
)

func newSmartCmd() *cobra.Command {
	var (
		file string
		yes  bool
		comp int64
	)
	cmd := &cobra.Command{
		Use:   "smart",
		Short: "Work with smart objects",
	}

	cp := &cobra.Command{
		Use:   "copy <layer>",
		Short: "Duplicate a smart object; linked assets are copied to a new file",
		Long: "The new file name defaults to the next numbered name beside the\n" +
			"linked asset. Without --file or --yes the name is asked on stdin.",
		Args: cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *layers.Session) error {
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			id, err := s.MakeCopy(ref, layers.CopyOptions{File: file, SkipPrompt: yes})
			if err != nil {
				return err
			}
			return printIDs(cmd.OutOrStdout(), []int64{id})
		}),
	}
	cp.Flags().StringVar(&file, "file", "", "name or path of the copied asset")
	cp.Flags().BoolVarP(&yes, "yes", "y", false, "accept the suggested file name")

	setComp := &cobra.Command{
		Use:   "comp <layer>",
		Short: "Select the layer comp shown by a smart object",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *layers.Session) error {
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			return s.SetComp(ref, comp)
		}),
	}
	setComp.Flags().Int64Var(&comp, "id", -1, "comp id; negative restores the document default")

	cmd.AddCommand(cp, setComp)
	return cmd
}
