// Command benford scores financial statement workbooks against Benford's law
// and merges the profiles into stock-benford-law.json.
package main

import (
	"os"

	"valuationcli/internal/app"
)

func main() {
	os.Exit(app.RunCLI(app.CommandBenford, os.Args[1:], os.Stdout, os.Stderr))
}
