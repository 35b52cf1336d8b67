// Command putcall writes put/call volume and open interest ratios for every
// symbol's option chain to put-call-ratio.json.
package main

import (
	"os"

	"valuationcli/internal/app"
)

func main() {
	os.Exit(app.RunCLI(app.CommandPutCall, os.Args[1:], os.Stdout, os.Stderr))
}
