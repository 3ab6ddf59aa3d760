package models

// ActionType is the closed set of action kinds the engine can dispatch.
type ActionType string

const (
	ActionCreateTask      ActionType = "create_task"
	ActionSendMessage     ActionType = "send_message"
	ActionSendChatMessage ActionType = "send_chat_message"
)

// IsValid reports whether the action type is one the engine knows.
func (t ActionType) IsValid() bool {
	switch t {
	case ActionCreateTask, ActionSendMessage, ActionSendChatMessage:
		return true
	default:
		return false
	}
}
