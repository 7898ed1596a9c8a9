// Package ui provides a plain terminal implementation of the agent's UI
// port: streamed text, tool-call announcements, and approval prompts
// printed to an io.Writer and read from an io.Reader, in the same
// unicode-header style the teacher's example CLI used for its streaming
// callback switch, framed with lipgloss borders for the panels spec.md
// calls for.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Terminal renders agent output to Out and reads approval decisions from
// In. It satisfies agent.UI structurally; nothing in this package imports
// the agent package.
type Terminal struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	mu           sync.Mutex
	reader       *bufio.Reader
	readerOnce   sync.Once
	announced    map[string]bool
	sawToolCalls bool
}

// NewTerminal returns a Terminal wired to the given streams.
func NewTerminal(in io.Reader, out, errOut io.Writer) *Terminal {
	return &Terminal{In: in, Out: out, Err: errOut, announced: make(map[string]bool)}
}

func (t *Terminal) bufIn() *bufio.Reader {
	t.readerOnce.Do(func() { t.reader = bufio.NewReader(t.In) })
	return t.reader
}

// StreamText writes a text fragment as it arrives, printing a one-time
// response header the first time content shows up after a run of tool
// calls (mirroring the teacher's thinking/content delineation).
func (t *Terminal) StreamText(content string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sawToolCalls {
		fmt.Fprint(t.Out, "\n\U0001F4DD Response:\n")
		t.sawToolCalls = false
	}
	fmt.Fprint(t.Out, content)
}

// AnnounceToolCall prints a one-line banner the first time a call's name
// is known.
func (t *Terminal) AnnounceToolCall(id, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.announced[id] {
		return
	}
	t.announced[id] = true
	t.sawToolCalls = true
	fmt.Fprintf(t.Out, "\n\U0001F527 Invoking tool: %s\n", name)
}

// StreamToolCallArgs is a no-op for the plain terminal: arguments are shown
// in full, if at all, in the approval panel, not piecemeal as fragments
// arrive.
func (t *Terminal) StreamToolCallArgs(string, string) {}

// RequestApproval renders a panel describing the call and blocks for a
// yes/no answer on In, treating "y"/"yes" (case-insensitively) as approval
// and anything else, including EOF, as a refusal. Refusal text beyond a
// bare "n"/"no" is echoed back to the caller as the user's explanation.
func (t *Terminal) RequestApproval(name, display string) (approved bool, userText string) {
	t.mu.Lock()
	t.renderPanel("Approval required: "+name, display+"\n\nAllow? [y/N]")
	t.mu.Unlock()

	line, err := t.bufIn().ReadString('\n')
	if err != nil && line == "" {
		return false, ""
	}
	line = strings.TrimSpace(line)
	lower := strings.ToLower(line)
	if lower == "y" || lower == "yes" {
		return true, ""
	}
	if lower == "n" || lower == "no" || lower == "" {
		return false, ""
	}
	return false, line
}

// Error prints a fatal turn error to Err.
func (t *Terminal) Error(err error) {
	fmt.Fprintln(t.Err, errStyle.Render(fmt.Sprintf("Error: %v", err)))
}

// Print writes a line to Out, unstyled.
func (t *Terminal) Print(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.Out, line)
}

// Info writes a line to Out, unstyled; it exists alongside Print for
// callers that want to signal intent rather than raw output.
func (t *Terminal) Info(line string) { t.Print(line) }

// Success writes a line to Out styled green.
func (t *Terminal) Success(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.Out, successStyle.Render(line))
}

// Warning writes a line to Out styled amber.
func (t *Terminal) Warning(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.Out, warnStyle.Render(line))
}

// Panel renders a titled, bordered block to Out.
func (t *Terminal) Panel(title, body string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.renderPanel(title, body)
}

func (t *Terminal) renderPanel(title, body string) {
	fmt.Fprintln(t.Out, panelStyle.Render(title+"\n\n"+body))
}

// AcquireUserInput prompts and reads a single line from In.
func (t *Terminal) AcquireUserInput(prompt string) (string, error) {
	t.mu.Lock()
	fmt.Fprint(t.Out, prompt)
	t.mu.Unlock()

	line, err := t.bufIn().ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\n\r"), nil
}

// Choices prints each choice's label and reads a selection by index or
// value.
func (t *Terminal) Choices(prompt string, choices []Choice) (Choice, error) {
	t.mu.Lock()
	fmt.Fprintln(t.Out, prompt)
	for i, c := range choices {
		fmt.Fprintf(t.Out, "  %d) %s\n", i+1, c.Label)
	}
	fmt.Fprint(t.Out, "> ")
	t.mu.Unlock()

	line, err := t.bufIn().ReadString('\n')
	if err != nil && line == "" {
		return Choice{}, err
	}
	line = strings.TrimSpace(line)
	for i, c := range choices {
		if line == fmt.Sprintf("%d", i+1) || line == c.Value {
			return c, nil
		}
	}
	return Choice{}, fmt.Errorf("ui: no choice matching %q", line)
}

// Flush is a no-op for the plain terminal; it exists to satisfy UI for
// implementations that buffer output.
func (t *Terminal) Flush() {}
