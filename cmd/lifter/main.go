// Command lifter reads and edits layer properties of layered documents.
package main

import "github.com/mesh-intelligence/lifter/internal/cli"

func main() {
	cli.Execute()
}
