// Command wikimunge is the CLI entrypoint: ingest a MediaWiki dump into a
// page store, expand or parse individual pages against it, serve the
// debug HTTP preview, or print store/cache statistics.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
