// internal/models/message.go
package models

// Message roles in the completion protocol.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatMessage is one entry in the append-only conversation list. The
// message list is the only conversational state the engine carries.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a request for a named operation. Arguments arrive as an
// untrusted JSON string from the completion service.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolError is the structured error carried inside a failed ToolResult.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToolResult is the payload returned to the model for one tool call.
type ToolResult struct {
	CallID  string      `json:"callId"`
	Name    string      `json:"name"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ToolError  `json:"error,omitempty"`
	Summary string      `json:"-"` // one line for the metadata log
}

// ToolCallRecord is one entry in the response metadata log. Recorded for
// every attempt regardless of outcome.
type ToolCallRecord struct {
	Name      string      `json:"name"`
	Arguments interface{} `json:"arguments,omitempty"`
	Summary   string      `json:"result"`
	Success   bool        `json:"success"`
	ElapsedMs int64       `json:"elapsedMs"`
}
