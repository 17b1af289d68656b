// Package tool turns typed Go handlers into tools an agent can call over any transport.
//
// A handler takes an argument struct and returns text. New reflects the struct into a
// JSON Schema, decorated from its description, enum, minimum and default tags. The
// same schema is advertised to the agent and used to validate incoming arguments, and
// an argument type may add its own rules by implementing Validatable.
//
// Registry runs calls: it applies the middleware chain, a per-call deadline, a bound on
// concurrent calls and panic recovery, then reports each call to the configured hooks.
//
// Errors fall in two classes. ClientError reaches the agent verbatim so it can correct
// the call. SystemError hides the cause, which remains available to logs via Unwrap.
//
//	type Args struct {
//		Offset int `json:"offset,omitempty" minimum:"0"`
//	}
//	t, err := tool.New("extrair", "Extract stored reports", func(_ context.Context, a Args) (string, error) {
//		return fmt.Sprintf("offset=%d", a.Offset), nil
//	})
//	if err != nil { ... }
//	reg := tool.NewRegistry()
//	reg.Register(t)
//	err = reg.Execute(ctx, tool.Call{ID: "1", ToolName: "extrair", Args: []byte(`{"offset":10}`)}, yield)
package tool
