package ui

import "fmt"

// ASCII logo for the application
const ASCIILogo = `
    ╔═══════════════════════════════════════════════════════════╗
    ║      ██╗██╗██████╗  █████╗     ███████╗███████╗████████╗  ║
    ║      ██║██║██╔══██╗██╔══██╗    ██╔════╝██╔════╝╚══██╔══╝  ║
    ║      ██║██║██████╔╝███████║    █████╗  █████╗     ██║     ║
    ║ ██   ██║██║██╔══██╗██╔══██║    ██╔══╝  ██╔══╝     ██║     ║
    ║ ╚█████╔╝██║██║  ██║██║  ██║    ██║     ███████╗   ██║     ║
    ║  ╚════╝ ╚═╝╚═╝  ╚═╝╚═╝  ╚═╝    ╚═╝     ╚══════╝   ╚═╝     ║
    ║       RESUMABLE ISSUE EXTRACTION PIPELINE v1.0            ║
    ╚═══════════════════════════════════════════════════════════╝
`

// quietMode suppresses decorative terminal output. Log records still
// flow through the logger regardless.
var quietMode bool

// SetQuietMode toggles suppression of decorative terminal output.
func SetQuietMode(quiet bool) {
	quietMode = quiet
}

// IsQuietMode reports whether decorative output is suppressed.
func IsQuietMode() bool {
	return quietMode
}

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	if quietMode {
		return
	}
	fmt.Print(Cyan(ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if quietMode {
		return
	}
	if len(args) > 0 {
		fmt.Println(Red(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if quietMode {
		return
	}
	fmt.Println(Green(msg))
}

// PrintInfo prints a labeled value, label in cyan and value in yellow
func PrintInfo(label string, value string) {
	if quietMode {
		return
	}
	fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if quietMode {
		return
	}
	if len(args) > 0 {
		fmt.Println(Yellow(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if quietMode {
		return
	}
	fmt.Println(Magenta(msg))
}
