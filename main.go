// Entry point delegating to the Cobra root command in cmd/.
package main

import (
	"github.com/nanospice/nanospice/cmd"
)

func main() {
	cmd.Execute()
}
