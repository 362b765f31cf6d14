package cli

import (
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
)

// interactive reports whether stdin and stdout are attached to a terminal.
func interactive() bool {
	return (isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())) &&
		(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
}

// confirm asks a yes/no question. Outside a terminal the answer is always no;
// non-interactive runs must opt in with --auto-publish instead.
func confirm(question string) bool {
	if !interactive() {
		return false
	}

	answer := false
	prompt := &survey.Confirm{
		Message: question,
		Default: false,
	}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return false
	}
	return answer
}
