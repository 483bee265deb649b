package cli

import (
	"errors"
	"fmt"
	"log/slog"
)

var ErrInvalidPruneArgument = errors.New("prune requires an argument (e.g., orphans)")

type PruneCommand struct {
	cli *CLI

	Args struct {
		Targets []string `positional-arg-name:"TARGET" required:"1"`
	} `positional-args:"yes"`
}

func (c *PruneCommand) Execute(args []string) error {
	slog.Debug("pruning trash contents started")
	defer slog.Debug("pruning trash contents finished")

	if err := c.cli.init(); err != nil {
		return err
	}

	for _, target := range c.Args.Targets {
		switch target {
		case "orphans":
			if err := c.cli.trash.RemoveOrphaned(); err != nil {
				return fmt.Errorf("failed to remove orphaned trashinfo files: %w", err)
			}
			fmt.Println("Removed orphaned trashinfo files")
		case "":
			return ErrInvalidPruneArgument
		default:
			return fmt.Errorf("unknown prune argument: %s", target)
		}
	}

	return nil
}
