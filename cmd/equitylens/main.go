// equitylens is a thin command-line driver for the analytics core: it reads
// raw fact collections and scenario assumptions from files, runs the
// analysis pipeline, and prints the report as JSON.
//
// The core is an in-process library; this binary stands in for the UI/
// export layers that normally invoke it.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
