//go:build mage

// Package main provides build targets for the lifter project using Mage.
//
// Usage:
//
//	mage build            Compile the lifter binary to bin/
//	mage test:all         Run every test
//	mage test:unit        Run the library and CLI packages, skipping the journal
//	mage test:run -run X  Run tests matching X, optionally in one package
//	mage test:cover       Write a coverage profile to bin/cover.out
//	mage lint             Run golangci-lint
//	mage clean            Remove build artifacts
//	mage install          Install lifter to GOPATH/bin
//	mage stats            Print Go LOC and documentation word counts
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "lifter"
	binaryDir  = "bin"
	cmdDir     = "./cmd/lifter"
	modulePath = "github.com/mesh-intelligence/lifter"
)

// versionFlag stamps the module version into the binary when VERSION is set.
func versionFlag() []string {
	v := os.Getenv("VERSION")
	if v == "" {
		return nil
	}
	return []string{"-ldflags", "-X " + modulePath + "/internal/cli.Version=" + v}
}

// Build compiles the lifter binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v"}
	args = append(args, versionFlag()...)
	args = append(args, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
	return sh.RunV(binGo, args...)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
