//go:build mage

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups the test targets.
type Test mg.Namespace

// All runs every test in the module.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "./...")
}

// Unit runs every package except the SQLite journal, whose tests exercise
// the pure-Go driver and are the slowest in the tree.
func (Test) Unit() error {
	pkgs, err := sh.Output(binGo, "list", "./...")
	if err != nil {
		return err
	}
	var unitPkgs []string
	for pkg := range strings.SplitSeq(pkgs, "\n") {
		if pkg == "" || strings.HasSuffix(pkg, "/internal/sqlite") || strings.HasSuffix(pkg, "/magefiles") {
			continue
		}
		unitPkgs = append(unitPkgs, pkg)
	}
	if len(unitPkgs) == 0 {
		fmt.Println("No unit test packages found.")
		return nil
	}
	args := append([]string{"test", "-v"}, unitPkgs...)
	return sh.RunV(binGo, args...)
}

// Run runs the tests matching --run, limited to --pkg when given.
//
//	mage test:run --run TestSession_Get --pkg ./pkg/layers
func (Test) Run() error {
	fs := flag.NewFlagSet("test:run", flag.ContinueOnError)
	pattern := fs.String("run", "", "test name pattern")
	pkg := fs.String("pkg", "./...", "package pattern")
	count := fs.Int("count", 1, "run each test this many times")
	parseTargetFlags(fs)

	if *pattern == "" {
		return errors.New("test:run needs --run")
	}
	return sh.RunV(binGo, "test", "-v", "-count", fmt.Sprint(*count), "-run", *pattern, *pkg)
}

// Cover writes a coverage profile to bin/cover.out and prints the
// per-function summary.
func (Test) Cover() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	profile := filepath.Join(binaryDir, "cover.out")
	if err := sh.RunV(binGo, "test", "-coverprofile", profile, "./pkg/...", "./internal/..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func", profile)
}
