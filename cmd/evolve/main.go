// Command evolve inspects backend selection and serves widget trees to the
// embedded renderer.
package main

import (
	"os"

	"github.com/go-drift/evolve/cmd/evolve/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
