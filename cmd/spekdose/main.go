// Command spekdose is the command line front end: spectrum demos, ESAK
// calculations, tube potential sweeps, reference beam benchmarks, the
// device catalog and the web calculator.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
