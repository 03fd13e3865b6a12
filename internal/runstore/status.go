package runstore

import (
	"fmt"

	"github.com/huangsam/actionstat/schema"
)

// PrintStoreStatus prints run store status information.
func PrintStoreStatus(status schema.StoreStatus) {
	fmt.Printf("Store Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Runs: %d\n", status.RunCount)
	fmt.Printf("Jobs: %d\n", status.JobCount)
	fmt.Printf("Steps: %d\n", status.StepCount)
	if len(status.Workflows) > 0 {
		fmt.Println("Workflows:")
		for _, wf := range status.Workflows {
			fmt.Printf("  %s\n", wf)
		}
	}
}
