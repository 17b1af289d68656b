// Package testutil provides test helpers shared by the rotina178 packages: a
// configurable tool, a test registry and a fake reporting backend.
package testutil

import (
	"context"

	"github.com/saam-fiscal/rotina178/internal/tool"
)

// StubTool is a tool whose behavior is set field by field. Zero fields fall back to
// the name "stub", an open object schema and an empty answer.
type StubTool struct {
	ToolName string
	Desc     string
	Schema   map[string]any
	Run      func(ctx context.Context, args []byte, yield func([]byte) error) error
}

func (s *StubTool) Name() string {
	if s.ToolName == "" {
		return "stub"
	}
	return s.ToolName
}

func (s *StubTool) Description() string { return s.Desc }

func (s *StubTool) Parameters() map[string]any {
	if s.Schema == nil {
		return map[string]any{"type": "object"}
	}
	return s.Schema
}

func (s *StubTool) Execute(ctx context.Context, args []byte, yield func([]byte) error) error {
	if s.Run == nil {
		return nil
	}
	return s.Run(ctx, args, yield)
}

// TextTool returns a StubTool named name that always answers text.
func TextTool(name, text string) *StubTool {
	return &StubTool{
		ToolName: name,
		Run: func(_ context.Context, _ []byte, yield func([]byte) error) error {
			return yield([]byte(text))
		},
	}
}

var _ tool.Tool = (*StubTool)(nil)
