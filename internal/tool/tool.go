package tool

import (
	"context"
	"encoding/json"
	"time"
)

// Tool is one instrument offered to the agent. It knows nothing about the transport
// that carries it.
type Tool interface {
	Name() string
	Description() string
	// Parameters is the JSON Schema of the arguments, advertised verbatim.
	Parameters() map[string]any
	// Execute hands its output to yield in chunks; tools built with New yield once.
	// When yield fails, Execute stops and returns the failure as ErrStreamAborted.
	Execute(ctx context.Context, argsJSON []byte, yield func([]byte) error) error
}

// Metadata carries the optional settings of a tool. The registry reads Timeout; the
// MCP and CLI front ends read Title and IsReadOnly.
type Metadata interface {
	Timeout() time.Duration
	Title() string
	IsReadOnly() bool
}

// Call asks the registry to run ToolName with the raw JSON arguments Args.
type Call struct {
	ID       string
	ToolName string
	Args     json.RawMessage
}

// ExecutionSummary describes a finished call to the after-execution hook. Chunks
// refused by yield are not counted.
type ExecutionSummary struct {
	CallID          string
	ToolName        string
	Error           error
	ChunksDelivered int
	TotalBytes      int64
}
