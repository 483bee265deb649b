package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/babarot/gotrash/internal/trash"
	"github.com/k1LoW/duration"
)

type EmptyCommand struct {
	cli *CLI

	OlderThan string `long:"older-than" description:"Only remove entries older than this (e.g. \"7 days\")"`
	Before    string `long:"before" description:"Only remove entries deleted before this date (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)"`
	DryRun    bool   `short:"n" long:"dry-run" description:"Only report what would be removed"`
}

func (c *EmptyCommand) Execute(args []string) error {
	slog.Debug("cli.empty started")
	defer slog.Debug("cli.empty finished")

	if err := c.cli.init(); err != nil {
		return err
	}

	threshold, err := c.threshold()
	if err != nil {
		return err
	}

	report := func(e *trash.Entry) {
		if c.DryRun {
			fmt.Printf("Would delete %s\n", e.OriginalPath)
			return
		}
		fmt.Printf("Removing %s\n", e.FilePath())
	}

	if err := c.cli.trash.Empty(threshold, c.DryRun, report); err != nil {
		return fmt.Errorf("failed to empty trash: %w", err)
	}

	if !c.DryRun {
		fmt.Println("Emptied trash!")
	}
	return nil
}

// threshold resolves the cutoff time: everything deleted strictly before
// it is removed. Defaults to now, i.e. the whole trash.
func (c *EmptyCommand) threshold() (time.Time, error) {
	switch {
	case c.OlderThan != "":
		d, err := duration.Parse(c.OlderThan)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --older-than value: %w", err)
		}
		return time.Now().Add(-d), nil

	case c.Before != "":
		for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.ParseInLocation(layout, c.Before, time.Local); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("invalid --before value: %s", c.Before)

	default:
		return time.Now(), nil
	}
}
