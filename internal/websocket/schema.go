package websocket

import (
	"encoding/json"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is the only message a watcher sends.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSnapshot  Event = "snapshot"
	EventExecution Event = "execution"
	EventPong      Event = "pong"
)

// SnapshotResponse is sent once after connecting: the plan as it stands.
type SnapshotResponse struct {
	Event    Event               `json:"event"`
	TestPlan *model.TestPlanView `json:"test_plan"`
}

// ExecutionResponse forwards one execution event. Payload is the event as
// published, passed through without decoding.
type ExecutionResponse struct {
	Event   Event           `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
