package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/babarot/gotrash/internal/config"
	"github.com/babarot/gotrash/internal/env"
	"github.com/babarot/gotrash/internal/trash"
	"github.com/charmbracelet/log"
	"github.com/jessevdk/go-flags"
	"github.com/rs/xid"
)

type Option struct {
	Config string `long:"config" description:"Path to config file" default:""`

	Put         PutCommand         `command:"put" description:"Put files into the trash"`
	List        ListCommand        `command:"list" description:"List trashed files"`
	ListTrashes ListTrashesCommand `command:"list-trashes" description:"List all trash locations"`
	Empty       EmptyCommand       `command:"empty" description:"Empty the trash"`
	Remove      RemoveCommand      `command:"remove" description:"Permanently delete a trashed file"`
	Restore     RestoreCommand     `command:"restore" description:"Restore a trashed file to its original location"`
	Prune       PruneCommand       `command:"prune" description:"Clean up trash metadata"`
	Debug       DebugCommand       `command:"debug" description:"View debug logs"`
	Version     VersionCommand     `command:"version" description:"Show version"`
}

type CLI struct {
	version Version
	option  *Option
	config  config.Config
	runID   string

	trash *trash.UnifiedTrash

	configOnce sync.Once
	configErr  error
	trashOnce  sync.Once
	trashErr   error
}

var runID = sync.OnceValue(func() string {
	return xid.New().String()
})

func Run(v Version) error {
	logDir := filepath.Dir(env.GOTRASH_LOG_PATH)
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return err
		}
	}

	var w io.Writer
	if file, err := os.OpenFile(env.GOTRASH_LOG_PATH, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		w = file
	} else {
		w = os.Stderr
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           log.DebugLevel,
	})
	logger.SetOutput(w)
	logger.With("run_id", runID())
	slog.SetDefault(slog.New(logger))

	defer slog.Debug("main function finished\n\n\n")
	slog.Debug("main function started", "version", v.Version, "revision", v.Revision, "buildDate", v.BuildDate)

	opt := Option{}
	cli := CLI{
		version: v,
		option:  &opt,
		runID:   runID(),
	}
	opt.Put.cli = &cli
	opt.List.cli = &cli
	opt.ListTrashes.cli = &cli
	opt.Empty.cli = &cli
	opt.Remove.cli = &cli
	opt.Restore.cli = &cli
	opt.Prune.cli = &cli
	opt.Debug.cli = &cli
	opt.Version.cli = &cli

	parser := flags.NewParser(&opt, flags.Default)
	parser.Name = v.AppName
	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			return nil
		}
		slog.Error("exit", "error", err)
		return err
	}
	return nil
}

// initConfig loads the config lazily, once, after flag parsing has filled
// in the --config option.
func (c *CLI) initConfig() error {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Parse(c.option.Config)
	})
	return c.configErr
}

// init prepares everything a trash-touching command needs: config plus
// the unified trash with all locations discovered.
func (c *CLI) init() error {
	if err := c.initConfig(); err != nil {
		return err
	}
	c.trashOnce.Do(func() {
		c.trash, c.trashErr = trash.New(trash.Config{
			HomeFallback: c.config.Core.HomeFallback,
		})
		if c.trashErr != nil {
			c.trashErr = fmt.Errorf("failed to establish trash locations: %w", c.trashErr)
		}
	})
	return c.trashErr
}

func formatErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	msg := fmt.Sprintf("%d errors occurred:\n", len(errs))
	for _, err := range errs {
		msg += fmt.Sprintf("  * %v\n", err)
	}
	return fmt.Errorf("%s", msg)
}
