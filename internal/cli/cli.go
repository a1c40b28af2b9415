package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/buger/goterm"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

var (
	// Colors for different types of output
	userInputColor  = color.New(color.FgWhite)               // White for user input
	agentColor      = color.New(color.FgCyan)                // Cyan for agent replies
	titleColor      = color.New(color.FgMagenta, color.Bold) // Bold magenta for titles
	separatorColor  = color.New(color.FgHiBlack)             // Dark grey for separators
	systemColor     = color.New(color.FgHiYellow)            // Yellow for system notices
	errorColor      = color.New(color.FgRed)                 // Red for errors
	upsellColor     = color.New(color.FgYellow, color.Bold)  // Bright yellow for plan prompts
	promptColor     = color.New(color.FgHiBlue)              // Bright blue for prompts
	chatInfoColor   = color.New(color.FgGreen)               // Green for chat metadata
	agentInfoColor  = color.New(color.FgHiCyan)              // Bright cyan for agent metadata

	width = goterm.Width()
)

// Separator printed to cli.
func Separator() {
	separator := strings.Repeat("-", width)
	separatorColor.Println(separator)
}

// Title printed to cli.
func Title(text string, args ...any) {
	title := "      " + fmt.Sprintf(text, args...) + "      "
	leftWidth := (width - len(title)) / 2
	separator1 := strings.Repeat("-", leftWidth)
	separator2 := strings.Repeat("-", width-len(title)-len(separator1))
	output := fmt.Sprintf("%s%s%s", separator1, title, separator2)
	titleColor.Println(output)
}

// UserInput printed to cli.
func UserInput(text string, args ...any) {
	userInputColor.Printf(text, args...)
}

// AgentOutput printed to cli.
func AgentOutput(text string, args ...any) {
	text = strings.ReplaceAll(text, "%", "%%")
	agentColor.Printf(text, args...)
}

// SystemNotice printed to cli. Used for persistent in-conversation notices.
func SystemNotice(text string, args ...any) {
	systemColor.Printf(text, args...)
}

// Error printed to cli. Transient, toast-like.
func Error(text string, args ...any) {
	errorColor.Printf(text, args...)
}

// Upsell printed to cli.
func Upsell(text string, args ...any) {
	upsellColor.Printf(text, args...)
}

// ChatInfo printed to cli.
func ChatInfo(text string, args ...any) {
	chatInfoColor.Printf(text, args...)
}

// AgentInfo printed to cli.
func AgentInfo(text string, args ...any) {
	agentInfoColor.Printf(text, args...)
}

// PromptUser for input. Ctrl+J submits a multi-line message.
func PromptUser() (string, error) {
	exit := false
	config := &readline.Config{
		Prompt:            promptColor.Sprint("> "),
		InterruptPrompt:   "^C",
		HistoryFile:       "/tmp/novachat.history",
		HistorySearchFold: true,
		FuncFilterInputRune: func(r rune) (rune, bool) {
			if r == '\x0A' { // Ctrl + J
				exit = true
			}
			return r, true
		},
	}

	rl, err := readline.NewEx(config)
	if err != nil {
		return "", err
	}
	defer rl.Close()
	var lines []string
	for {
		line, err := rl.Readline()
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
		if err == readline.ErrInterrupt || exit {
			break
		}
		rl.SetPrompt("")
	}
	return strings.Join(lines, "\n"), nil
}

// QueryUser a yes/no question.
func QueryUser(question string) bool {
	surveyQuestion := &survey.Confirm{
		Message: question,
	}
	confirm := false
	survey.AskOne(surveyQuestion, &confirm)
	return confirm
}

// SelectOption asks the user to pick one of the given options.
func SelectOption(message string, options []string) (int, error) {
	surveyQuestion := &survey.Select{
		Message: message,
		Options: options,
	}
	index := 0
	if err := survey.AskOne(surveyQuestion, &index); err != nil {
		return 0, err
	}
	return index, nil
}
