package runner

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	taskStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	canonicalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	generatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// writeReport prints one block per generation: the task id, the prompt that was
// sent, the reference solution and the extracted code.
func writeReport(w io.Writer, taskID, prompt, canonical string, generations []string) {
	for _, g := range generations {
		fmt.Fprintln(w, taskStyle.Render(taskID))
		fmt.Fprintln(w, promptStyle.Render(prompt))
		fmt.Fprintln(w, canonicalStyle.Render(canonical))
		fmt.Fprintln(w, generatedStyle.Render(g))
		fmt.Fprint(w, "\n\n")
	}
}
