package ui

// Choice is one option offered by Choices.
type Choice struct {
	Label string
	Value string
}

// UI is the broader presentation surface cmd/agentcli drives directly, for
// banners and prompts that live outside a single agent turn. agent.Agent
// only depends on the narrower agent.UI port; Terminal satisfies both.
type UI interface {
	Print(line string)
	Info(line string)
	Success(line string)
	Warning(line string)
	Error(err error)
	Panel(title, body string)
	AcquireUserInput(prompt string) (string, error)
	Choices(prompt string, choices []Choice) (Choice, error)
	Flush()
}
