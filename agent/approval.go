package agent

import "github.com/bpowers/agentcore/chat"

// resolveApproval applies step 5 of the run loop to a single pending call:
// auto-approve mode and tools that don't require approval run immediately;
// everything else is confirmed with the UI first. On refusal it returns the
// synthesized tool-result message the model should see instead of a real
// execution.
func (a *Agent) resolveApproval(call pendingCall, requiresApproval bool, display string) (approved bool, refusal chat.Message) {
	if a.autoApprove || !requiresApproval {
		return true, chat.Message{}
	}

	userApproved, userText := a.ui.RequestApproval(call.name, display)
	if userApproved {
		return true, chat.Message{}
	}

	content := "system-generated message\nUser declined to run tool (" + call.name + ")."
	if userText != "" {
		content += " User said: " + userText
	}
	return false, chat.ToolMessage(call.id, call.name, content)
}
