package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/babarot/gotrash/internal/trash"
	"github.com/fatih/color"
	"github.com/samber/lo"
)

// ask prints a prompt and reads one line from stdin.
func ask(prompt string) string {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

// askYesNo asks a yes/no question; anything other than an explicit answer
// picks the default.
func askYesNo(prompt string, def bool) bool {
	hint := color.GreenString("Y/n")
	if !def {
		hint = color.New(color.FgHiRed).Sprint("y/N")
	}

	switch strings.ToLower(ask(fmt.Sprintf("%s [%s] ", prompt, hint))) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}

// disambiguate builds the collaborator that resolves multiple matches for
// a remove/restore query by asking the user to pick one.
func disambiguate(query string) trash.DisambiguateFunc {
	return func(matched []*trash.Entry) (*trash.Entry, error) {
		fmt.Printf("Multiple files match %s:\n\n", query)

		rows := lo.Map(matched, func(e *trash.Entry, i int) []string {
			return []string{strconv.Itoa(i), e.OriginalPath, e.DeletedAt.Format(listTimeFormat)}
		})
		renderTable([]string{"Index", "File", "Deleted at"}, rows)
		fmt.Println()

		answer := ask(fmt.Sprintf("Choose one [0-%d]: ", len(matched)-1))
		index, err := strconv.Atoi(answer)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", answer, err)
		}
		if index < 0 || index >= len(matched) {
			return nil, fmt.Errorf("index %d does not exist", index)
		}
		return matched[index], nil
	}
}

// confirmOverwrite asks before restoring over an existing file.
func confirmOverwrite(e *trash.Entry) bool {
	return askYesNo(
		fmt.Sprintf("A file already exists at '%s', do you want to overwrite it?", e.OriginalPath),
		false,
	)
}
