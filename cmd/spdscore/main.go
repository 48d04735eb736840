// Command spdscore scores SPD cohorts offline, generates synthetic ones and
// load-tests a running server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
