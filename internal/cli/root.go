// Package cli implements the lifter command-line interface. Layer commands
// run against a YAML document fixture through the in-memory host, so the
// property and identity layer can be driven and inspected from a shell.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lifter/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// errUsage marks errors caused by the invocation rather than the system.
var errUsage = errors.New("usage")

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	fixture   string
	save      bool
	jsonMode  bool
	noJournal bool
	verbose   bool
}

var flags rootFlags

// NewRootCmd creates the top-level "lifter" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags = rootFlags{}
	root := &cobra.Command{
		Use:   "lifter",
		Short: "Read and edit layer properties of layered documents",
		Long: "Lifter addresses layers by stable id or stack position, reads and writes\n" +
			"their properties, and runs structural edits. Commands operate on a YAML\n" +
			"document fixture and record every host call in a SQLite journal.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: ./.lifter or the per-user config dir)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "journal directory (default: the per-user data dir)")
	pf.StringVarP(&flags.fixture, "fixture", "f", "", "document fixture to operate on (default: fixture from config.yaml)")
	pf.BoolVar(&flags.save, "save", false, "write the edited documents back to the fixture")
	pf.BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVar(&flags.noJournal, "no-journal", false, "do not record host calls")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log every host call to stderr")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newLayersCmd(),
		newPropCmd(),
		newFindCmd(),
		newMaskCmd(),
		newGroupCmd(),
		newSmartCmd(),
		newJournalCmd(),
	)
	return root
}

// Execute runs the command line and exits with the matching code.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Run executes args and returns the process exit code. Prompts read stdin;
// errors are printed to stderr.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "lifter:", err)
	return exitCode(err)
}

// userErrors are failures the caller can fix by changing the invocation.
var userErrors = []error{
	errUsage,
	types.ErrInvalidArgument,
	types.ErrEntityNotFound,
	types.ErrUnsupportedProperty,
	types.ErrReadOnlyProperty,
	types.ErrPreconditionNotMet,
	types.ErrKindMismatch,
	types.ErrUnsupportedOnMarker,
	types.ErrUnknownEnumerationValue,
	types.ErrSnapshotNotFound,
	types.ErrCancelled,
	types.ErrSameFile,
}

// runError carries a RunE failure so flag and argument errors raised by
// cobra itself can be told apart.
type runError struct{ err error }

func (e *runError) Error() string { return e.err.Error() }
func (e *runError) Unwrap() error { return e.err }

// exitCode maps err to an exit code. Errors from cobra's own parsing and
// the sentinels in userErrors are user errors; the rest are system errors.
func exitCode(err error) int {
	var re *runError
	if !errors.As(err, &re) {
		return exitUserError
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

// runE adapts a command body so its failures are classified by exitCode.
func runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &runError{err: err}
		}
		return nil
	}
}
