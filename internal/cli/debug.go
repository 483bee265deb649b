package cli

import (
	"os"

	"github.com/babarot/gotrash/internal/utils/debug"
)

type DebugCommand struct {
	cli *CLI

	Live bool `long:"live" description:"Follow new log entries in real-time"`
}

func (c *DebugCommand) Execute(args []string) error {
	if err := c.cli.initConfig(); err != nil {
		return err
	}
	return debug.Logs(os.Stdout, c.cli.config.Core.Logging, c.Live)
}
