// Package eventbus implements the per-session, ordered, buffered,
// resumable event stream described by the research engine's event bus
// component: emit/subscribe/stream over a session-scoped ring buffer with
// monotonically increasing sequence numbers.
package eventbus

import "time"

// Kind is the closed set of event types the engine ever emits.
type Kind string

const (
	KindResearchNodeStart    Kind = "research_node_start"
	KindResearchNodeComplete Kind = "research_node_complete"
	KindResearchTreeUpdate   Kind = "research_tree_update"
	KindQualityUpdate        Kind = "quality_update"
	KindSearch               Kind = "search"
	KindContent              Kind = "content"
	KindThinking             Kind = "thinking"
	KindToolStart            Kind = "tool_start"
	KindToolProgress         Kind = "tool_progress"
	KindToolScreenshot       Kind = "tool_screenshot"
	KindToolResult           Kind = "tool_result"
	KindToolError            Kind = "tool_error"
	KindTaskCreate           Kind = "task_create"
	KindTaskUpdate           Kind = "task_update"
	KindTaskComplete         Kind = "task_complete"
	KindAgentStart           Kind = "agent_start"
	KindAgentIteration       Kind = "agent_iteration"
	KindAgentDone            Kind = "agent_done"
	KindError                Kind = "error"
	KindDone                 Kind = "done"
)

// Event is a single, sequenced occurrence on a session's stream.
type Event struct {
	// Type is the event kind.
	Type Kind
	// Data is the event's kind-specific payload.
	Data map[string]any
	// Seq is monotonically increasing per session, assigned atomically
	// under the session buffer's lock.
	Seq uint64
	// Ts is the emission time in unix seconds.
	Ts int64
	// SessionID identifies the session the event belongs to.
	SessionID string
}

func now() int64 { return time.Now().Unix() }
