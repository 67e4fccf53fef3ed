package main

import (
	"ScreenSync/cmd"
	"log"
)

func main() {
	cmd.Execute()
	// If Execute() had a problem, Cobra would have called os.Exit.
	// Reaching here means the command completed successfully (or the
	// long-running player node shut down cleanly).
	log.Println("Command execution finished.")
}
