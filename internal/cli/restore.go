package cli

import (
	"fmt"
	"log/slog"
)

type RestoreCommand struct {
	cli *CLI

	Args struct {
		IDOrPath string `positional-arg-name:"ID_OR_PATH" required:"yes"`
	} `positional-args:"yes"`
}

func (c *RestoreCommand) Execute(args []string) error {
	slog.Debug("cli.restore started")
	defer slog.Debug("cli.restore finished")

	if err := c.cli.init(); err != nil {
		return err
	}

	restored, err := c.cli.trash.Restore(
		matchByIDOrPath(c.Args.IDOrPath),
		disambiguate(c.Args.IDOrPath),
		confirmOverwrite,
	)
	if err != nil {
		return fmt.Errorf("failed to restore from trash: %w", err)
	}

	fmt.Printf("Restored %s\n", restored)
	return nil
}
