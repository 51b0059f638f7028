// userexport-admin manages operator accounts and runs exports from the shell.
//
// Usage:
//
//	# Create an operator who may export users
//	userexport-admin useradd --name Admin --password secret --group sysop
//
//	# Export the default fields to a file
//	userexport-admin export --out users.csv
//
//	# Export selected fields to stdout
//	userexport-admin export --fields user_id,user_name
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
