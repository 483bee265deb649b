package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/babarot/gotrash/internal/trash"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

const listTimeFormat = "2006-01-02 15:04:05"

type ListCommand struct {
	cli *CLI

	Simple        bool   `short:"s" long:"simple" description:"Tab-separated columns for easy parsing"`
	TrashLocation bool   `short:"t" long:"trash-location" description:"Also display the trash location where each file resides"`
	Reverse       bool   `short:"r" long:"reverse" description:"Reverse the sorting"`
	Sort          string `long:"sort" description:"Sort by this value" choice:"original-path" choice:"deleted-at" choice:"trash" default:"original-path"`
}

func (c *ListCommand) Execute(args []string) error {
	if err := c.cli.init(); err != nil {
		return err
	}

	entries, err := c.cli.trash.List()
	if err != nil {
		return err
	}

	entries = trash.Filter(entries, trash.FilterOptions{
		Include: c.cli.config.Filters.Include,
		Exclude: c.cli.config.Filters.Exclude,
	})

	sort.SliceStable(entries, c.lessFunc(entries))
	if c.Reverse {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}

	if c.Simple {
		for _, e := range entries {
			cols := []string{shortID(e.OriginalPath), e.DeletedAt.Format(listTimeFormat)}
			if c.TrashLocation {
				cols = append(cols, e.Location.Path)
			}
			cols = append(cols, e.OriginalPath)
			fmt.Println(strings.Join(cols, "\t"))
		}
		return nil
	}

	headers := []string{"ID", "Deleted at", "Original location"}
	if c.TrashLocation {
		headers = []string{"ID", "Deleted at", "Trash location", "Original location"}
	}

	rows := lo.Map(entries, func(e *trash.Entry, _ int) []string {
		deleted := fmt.Sprintf("%s (%s)", e.DeletedAt.Format(listTimeFormat), humanize.Time(e.DeletedAt))
		if c.TrashLocation {
			return []string{shortID(e.OriginalPath), deleted, e.Location.Path, e.OriginalPath}
		}
		return []string{shortID(e.OriginalPath), deleted, e.OriginalPath}
	})

	renderTable(headers, rows)
	return nil
}

func (c *ListCommand) lessFunc(entries []*trash.Entry) func(i, j int) bool {
	switch c.Sort {
	case "deleted-at":
		return func(i, j int) bool { return entries[i].DeletedAt.Before(entries[j].DeletedAt) }
	case "trash":
		return func(i, j int) bool { return entries[i].Location.Path < entries[j].Location.Path }
	default:
		return func(i, j int) bool { return entries[i].OriginalPath < entries[j].OriginalPath }
	}
}

type ListTrashesCommand struct {
	cli *CLI
}

func (c *ListTrashesCommand) Execute(args []string) error {
	if err := c.cli.init(); err != nil {
		return err
	}

	rows := lo.Map(c.cli.trash.Trashes(), func(l *trash.Location, _ int) []string {
		return []string{
			l.Path,
			l.DeviceRoot,
			strconv.FormatUint(l.DeviceID, 10),
			strconv.FormatBool(l.IsAdminTrash),
			strconv.FormatBool(l.IsHomeTrash),
		}
	})

	renderTable([]string{"Path", "Device root", "Device ID", "Is admin created", "Is home trash"}, rows)
	return nil
}

func renderTable(headers []string, rows [][]string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("|")
	table.SetRowSeparator("-")
	table.AppendBulk(rows)
	table.Render()
}
