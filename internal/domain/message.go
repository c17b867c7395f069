package domain

// Message roles, mirroring the completion provider's wire roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn.
type Message struct {
	Role    string
	Content string
}

// StreamEvent is one element of a completion event stream.
// Exactly one of Chunk / Err / Done is meaningful; Err and Done are terminal
// and nothing follows them on the channel.
type StreamEvent struct {
	Chunk string
	Err   error
	Done  bool
}

// ChunkEvent wraps an incremental text delta.
func ChunkEvent(text string) StreamEvent { return StreamEvent{Chunk: text} }

// ErrorEvent wraps a mid-stream failure.
func ErrorEvent(err error) StreamEvent { return StreamEvent{Err: err} }

// DoneEvent marks graceful completion.
func DoneEvent() StreamEvent { return StreamEvent{Done: true} }

// Terminal reports whether this event ends the stream.
func (e StreamEvent) Terminal() bool { return e.Done || e.Err != nil }
