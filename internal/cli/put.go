package cli

import (
	"fmt"
	"log/slog"
	"os"
)

type PutCommand struct {
	cli *CLI

	FollowSymlinks bool `short:"L" long:"follow-symlinks" description:"Trash the target of a symlink instead of the link itself"`
	Force          bool `short:"f" long:"force" description:"Ignore nonexistent files"`

	Args struct {
		Files []string `positional-arg-name:"FILE" required:"1"`
	} `positional-args:"yes"`
}

func (c *PutCommand) Execute(args []string) error {
	slog.Debug("cli.put started")
	defer slog.Debug("cli.put finished")

	if err := c.cli.init(); err != nil {
		return err
	}

	follow := c.FollowSymlinks || c.cli.config.Core.FollowSymlinks

	// One failed file doesn't stop the batch; failures are collected and
	// reported together at the end.
	var errs []error
	for _, file := range c.Args.Files {
		if _, err := os.Lstat(file); os.IsNotExist(err) && c.Force {
			continue
		}

		if err := c.cli.trash.Put(file, follow); err != nil {
			errs = append(errs, fmt.Errorf("failed to process %s: %w", file, err))
			continue
		}

		if c.cli.config.Core.Verbose {
			fmt.Printf("trashed '%s'\n", file)
		}
	}

	return formatErrors(errs)
}
