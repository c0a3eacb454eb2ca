package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lifter/internal/sqlite"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

func newJournalCmd() *cobra.Command {
	var filter types.JournalFilter
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the record of host calls",
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&filter.SessionID, "session", "", "only entries of this session")
	pf.StringVar(&filter.Command, "command", "", "only entries of this command")
	pf.StringVar(&filter.Kind, "kind", "", "only submit or query entries")
	pf.BoolVar(&filter.FailedOnly, "failed", false, "only failed calls")
	pf.IntVar(&filter.Limit, "limit", 0, "at most this many entries")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List journal entries in recording order",
			Args:  cobra.NoArgs,
			RunE: withJournal(func(cmd *cobra.Command, args []string, j *sqlite.Backend) error {
				entries, err := j.Entries(filter)
				if err != nil {
					return err
				}
				if flags.jsonMode {
					if entries == nil {
						entries = []types.JournalEntry{}
					}
					return printJSON(cmd.OutOrStdout(), entries)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SESSION\tSEQ\tKIND\tCOMMAND\tDURATION\tERROR")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
						shortID(e.SessionID), e.Seq, e.Kind, e.Command, e.Duration.Round(time.Microsecond), e.Error)
				}
				return tw.Flush()
			}),
		},
		&cobra.Command{
			Use:   "export <file>",
			Short: "Write journal entries to a JSONL file",
			Args:  cobra.ExactArgs(1),
			RunE: withJournal(func(cmd *cobra.Command, args []string, j *sqlite.Backend) error {
				n, err := j.ExportJSONL(args[0], filter)
				if err != nil {
					return err
				}
				return report(cmd, "exported", n)
			}),
		},
		&cobra.Command{
			Use:   "import <file>",
			Short: "Load entries from a JSONL file written by export",
			Args:  cobra.ExactArgs(1),
			RunE: withJournal(func(cmd *cobra.Command, args []string, j *sqlite.Backend) error {
				n, err := j.ImportJSONL(args[0])
				if err != nil {
					return err
				}
				return report(cmd, "imported", n)
			}),
		},
		&cobra.Command{
			Use:   "prune <session>",
			Short: "Delete every entry of a session",
			Args:  cobra.ExactArgs(1),
			RunE: withJournal(func(cmd *cobra.Command, args []string, j *sqlite.Backend) error {
				n, err := j.Prune(args[0])
				if err != nil {
					return err
				}
				return report(cmd, "pruned", int(n))
			}),
		},
	)
	return cmd
}

// withJournal runs fn against the attached journal. The attach itself
// starts an empty session, which is pruned again on the way out.
func withJournal(fn func(cmd *cobra.Command, args []string, j *sqlite.Backend) error) func(*cobra.Command, []string) error {
	return runE(func(cmd *cobra.Command, args []string) error {
		st, err := loadSettings()
		if err != nil {
			return err
		}
		if st.config.Backend != types.BackendSQLite {
			return fmt.Errorf("%w: journal is disabled (backend %q)", errUsage, st.config.Backend)
		}
		j := sqlite.NewBackend()
		if err := j.Attach(st.config); err != nil {
			return fmt.Errorf("attach journal: %w", err)
		}
		defer j.Detach()
		if err := fn(cmd, args, j); err != nil {
			return err
		}
		_, err = j.Prune(j.SessionID())
		return err
	})
}

func report(cmd *cobra.Command, verb string, n int) error {
	if flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), map[string]int{verb: n})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d entries\n", verb, n)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}
