//go:build mage

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

// targetArgs holds the arguments after the mage target name. Mage passes
// only positional parameters, so init moves anything after the target out
// of os.Args and targets parse it with their own flag.FlagSet.
//
// "mage test:run --run TestFind" leaves os.Args as ["mage", "test:run"]
// and targetArgs as ["--run", "TestFind"].
var targetArgs []string

func init() {
	if len(os.Args) < 2 {
		return
	}

	// Mage flags come first and start with a dash; the target is the first
	// argument that does not.
	targetIdx := -1
	for i := 1; i < len(os.Args); i++ {
		if os.Args[i] == "--" {
			break
		}
		if len(os.Args[i]) > 0 && os.Args[i][0] != '-' {
			targetIdx = i
			break
		}
	}
	if targetIdx < 0 || targetIdx+1 >= len(os.Args) {
		return
	}

	targetArgs = os.Args[targetIdx+1:]
	os.Args = os.Args[:targetIdx+1]
}

// parseTargetFlags parses targetArgs into fs, exiting 0 on --help and 1 on
// any other parse error.
func parseTargetFlags(fs *flag.FlagSet) {
	err := fs.Parse(targetArgs)
	if err == nil {
		return
	}
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
