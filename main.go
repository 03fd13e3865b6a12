// main is the entry point for the actionstat CLI.
package main

import (
	"os"

	"github.com/huangsam/actionstat/cmd"
	"github.com/huangsam/actionstat/internal"
)

func main() {
	if err := cmd.Execute(); err != nil {
		internal.FatalError("Command failed", err)
	}
	if err := cmd.StopProfiling(); err != nil {
		internal.LogWarning("Failed to stop profiling: " + err.Error())
	}
	os.Exit(0)
}
