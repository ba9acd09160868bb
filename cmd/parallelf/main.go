// Command parallelf runs YAML and HCL task graphs concurrently.
package main

import (
	"os"

	"github.com/Iron-Ham/parallelf/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
