package testutil

import (
	"time"

	"github.com/saam-fiscal/rotina178/internal/tool"
)

// NewTestRegistry registers tools on a registry with a deadline generous enough for
// slow CI machines. Panics are recovered.
func NewTestRegistry(tools ...tool.Tool) *tool.Registry {
	reg := tool.NewRegistry(tool.WithDefaultTimeout(30*time.Second), tool.WithRecoverPanics(true))
	for _, t := range tools {
		reg.Register(t)
	}
	return reg
}
