// csync mirrors a directory tree into a confidential, structurally
// equivalent copy: same shape, encrypted names, encrypted and
// compressed contents.
package main

import (
	"csync/internal/cli"
)

const version = "v0.1.0"

func main() {
	cli.Execute(version)
}
