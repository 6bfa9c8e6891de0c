// Package ui provides colored terminal output helpers.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const headerWidth = 60

// center pads text on the left so it sits centered within width. Text at
// or beyond width is returned unchanged.
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}

// Header prints a banner with the given title centered between rules.
func Header(title string) {
	c := color.New(color.FgCyan, color.Bold)
	c.Println(strings.Repeat("=", headerWidth))
	c.Println(center(title, headerWidth))
	c.Println(strings.Repeat("=", headerWidth))
}

// Step prints a numbered progress step.
func Step(current, total int, description string) {
	color.New(color.FgBlue, color.Bold).Printf("[%d/%d] ", current, total)
	fmt.Println(description)
}

// Success prints a message with a green check mark.
func Success(message string) {
	color.New(color.FgGreen).Printf("✓ %s\n", message)
}

// Info prints an informational message.
func Info(message string) {
	color.New(color.FgCyan).Printf("  %s\n", message)
}

// Warning prints a warning message in yellow.
func Warning(message string) {
	color.New(color.FgYellow).Printf("⚠ %s\n", message)
}

// Error prints an error message in red.
func Error(message string) {
	color.New(color.FgRed).Printf("✗ %s\n", message)
}

// BlueText returns the text wrapped in blue color codes.
func BlueText(text string) string {
	return color.New(color.FgBlue).Sprint(text)
}

// YellowText returns the text wrapped in yellow color codes.
func YellowText(text string) string {
	return color.New(color.FgYellow).Sprint(text)
}
