package cmd

import (
	"os"
)

// Execute converts the files named on the command line.
func Execute() error {
	return newConfig().execute(os.Args[1:])
}
