// Command leadctl drives the lead form from a terminal: it validates and
// formats input exactly as the landing page does and can submit a lead to a
// running intake endpoint.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
