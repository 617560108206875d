// The ontimectl command is a terminal client for remote event timer
// servers.
package main

import (
	"github.com/AquamanRanda/OnTIme/internal/ontimectl/cmd"
)

func main() {
	cmd.Execute()
}
