// Command bptree exercises the in-memory B+ tree: an interactive shell, a
// random workload driver and a Graphviz renderer.
package main

import (
	"fmt"
	"os"
)

func main() {
	root, a := newRootCmd()
	if err := runRoot(root, a); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
