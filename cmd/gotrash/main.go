package main

import (
	"fmt"
	"os"

	"github.com/babarot/gotrash/internal/cli"
)

const appName = "gotrash"

// These are injected at build time via ldflags.
var (
	version   = "develop"
	revision  = "HEAD"
	buildDate = "unknown"
)

func main() {
	if err := cli.Run(cli.Version{
		AppName:   appName,
		Version:   version,
		Revision:  revision,
		BuildDate: buildDate,
	}); err != nil {
		fmt.Fprintln(os.Stderr, appName+": "+err.Error())
		os.Exit(1)
	}
}
