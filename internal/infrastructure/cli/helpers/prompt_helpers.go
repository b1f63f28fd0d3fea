package helpers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/cockroachdb/errors"
	"github.com/mattn/go-isatty"
)

// Confirm asks a yes/no question. On a terminal it uses an interactive
// prompt; otherwise it reads a y/N answer from in. assumeYes skips the prompt.
func Confirm(in io.Reader, out io.Writer, title, description string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return confirmWithHuh(title, description)
	}
	if description != "" {
		fmt.Fprintln(out, description)
	}
	return PromptForYesNo(out, bufio.NewReader(in), title, false), nil
}

func confirmWithHuh(title, description string) (bool, error) {
	approved := false
	prompt := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&approved).
		WithTheme(huh.ThemeCharm())
	if err := prompt.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return approved, nil
}

// PromptForYesNo prompts the user for a yes/no question
// Returns true for yes, false for no, or the default value if no input
func PromptForYesNo(out io.Writer, reader *bufio.Reader, promptText string, defaultValue bool) bool {
	label := buildYesNoLabel(defaultValue)
	fmt.Fprintf(out, "%s [%s]: ", promptText, label)

	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))

	if line == "" {
		return defaultValue
	}

	return isAffirmativeResponse(line)
}

// buildYesNoLabel constructs the appropriate y/N or Y/n label based on the default
func buildYesNoLabel(defaultIsYes bool) string {
	if defaultIsYes {
		return "Y/n"
	}
	return "y/N"
}

// isAffirmativeResponse checks if a response is affirmative (yes)
func isAffirmativeResponse(response string) bool {
	return response == "y" || response == "yes"
}

// PrintWarnings outputs a list of warning messages to the writer
func PrintWarnings(out io.Writer, warnings []string) {
	for _, warning := range warnings {
		warning = strings.TrimSpace(warning)
		if warning == "" {
			continue
		}
		fmt.Fprintf(out, "Warning: %s\n", warning)
	}
}
