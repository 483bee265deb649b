package cli

import (
	"fmt"
	"log/slog"
)

type RemoveCommand struct {
	cli *CLI

	Args struct {
		IDOrPath string `positional-arg-name:"ID_OR_PATH" required:"yes"`
	} `positional-args:"yes"`
}

func (c *RemoveCommand) Execute(args []string) error {
	slog.Debug("cli.remove started")
	defer slog.Debug("cli.remove finished")

	if err := c.cli.init(); err != nil {
		return err
	}

	removed, err := c.cli.trash.Remove(
		matchByIDOrPath(c.Args.IDOrPath),
		disambiguate(c.Args.IDOrPath),
	)
	if err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}

	fmt.Printf("Removed %s\n", removed)
	return nil
}
