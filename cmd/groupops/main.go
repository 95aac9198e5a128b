package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Job failures already emitted their result envelope; everything else
		// is a usage or infrastructure error that still needs printing.
		if !errors.Is(err, errJobFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
