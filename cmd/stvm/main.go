// Command stvm compiles and runs IEC 61131-3 Structured Text programs
// against the container format and scan-based VM implemented by this
// module.
package main

import (
	"fmt"
	"os"

	"github.com/openplc-go/stvm/cmd/stvm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
