// Package mcpserver exposes a tool registry as an MCP server over newline-delimited
// JSON-RPC on stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/saam-fiscal/rotina178/internal/tool"
)

// ServerName is the implementation name reported in the initialize handshake.
const ServerName = "saam_rotina178"

// Server bridges a tool.Registry to an MCP server.
type Server struct {
	registry *tool.Registry
	mcp      *server.MCPServer
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	logger       *slog.Logger
	instructions string
}

// WithLogger sets the logger for call tracing and transport errors.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serverOptions) { o.logger = logger }
}

// WithInstructions sets the instructions returned in the initialize result.
func WithInstructions(text string) Option {
	return func(o *serverOptions) { o.instructions = text }
}

// New advertises every tool of registry. Tools registered after New are not exposed.
func New(registry *tool.Registry, version string, opts ...Option) (*Server, error) {
	o := serverOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	serverOpts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if o.instructions != "" {
		serverOpts = append(serverOpts, server.WithInstructions(o.instructions))
	}

	s := &Server{
		registry: registry,
		mcp:      server.NewMCPServer(ServerName, version, serverOpts...),
		logger:   o.logger,
	}
	for _, t := range registry.GetAllTools() {
		mt, err := toMCPTool(t)
		if err != nil {
			return nil, err
		}
		s.mcp.AddTool(mt, s.handler(t.Name()))
	}
	return s, nil
}

// Serve runs the stdio transport until in is exhausted or ctx is done.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	s.logger.Info("MCP server listening on stdio", slog.String("name", ServerName))
	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}

func toMCPTool(t tool.Tool) (mcp.Tool, error) {
	schema, err := json.Marshal(t.Parameters())
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("tool %s: encode schema: %w", t.Name(), err)
	}
	mt := mcp.NewToolWithRawSchema(t.Name(), t.Description(), schema)
	if md, ok := t.(tool.Metadata); ok {
		if title := md.Title(); title != "" {
			mcp.WithTitleAnnotation(title)(&mt)
		}
		mcp.WithReadOnlyHintAnnotation(md.IsReadOnly())(&mt)
	}
	return mt, nil
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		arguments := req.GetArguments()
		if arguments == nil {
			arguments = map[string]any{}
		}
		args, err := json.Marshal(arguments)
		if err != nil {
			return mcp.NewToolResultError("invalid tool input: " + err.Error()), nil
		}

		call := tool.Call{ID: uuid.NewString(), ToolName: name, Args: args}
		s.logger.Debug("MCP tool call", slog.String("call_id", call.ID), slog.String("tool", name))

		var out strings.Builder
		runErr := s.registry.Execute(ctx, call, func(chunk []byte) error {
			out.Write(chunk)
			return nil
		})
		if runErr != nil {
			s.logger.Error("MCP tool call failed",
				slog.String("call_id", call.ID),
				slog.String("tool", name),
				slog.String("error", errorDetail(runErr)))
		}
		return buildToolResult(out.String(), runErr), nil
	}
}

// buildToolResult returns the tool output as text; a failure appends the agent-facing
// error text and sets isError. MCP requires at least one content block.
func buildToolResult(output string, runErr error) *mcp.CallToolResult {
	result := &mcp.CallToolResult{}
	if output != "" {
		result.Content = append(result.Content, mcp.NewTextContent(output))
	}
	if runErr != nil {
		result.IsError = true
		result.Content = append(result.Content, mcp.NewTextContent(errorText(runErr)))
	}
	if len(result.Content) == 0 {
		result.Content = []mcp.Content{mcp.NewTextContent("")}
	}
	return result
}

// errorText is what the agent sees. Client errors are shown verbatim so the agent can
// fix its arguments; system errors stay opaque.
func errorText(err error) string {
	switch {
	case tool.IsClientError(err):
		var ce *tool.ClientError
		errors.As(err, &ce)
		return ce.Error()
	case errors.Is(err, tool.ErrToolNotFound):
		return err.Error()
	case errors.Is(err, tool.ErrTimeout):
		return "Tempo limite excedido ao executar a ferramenta. Reduza o período ou use filtros mais restritos."
	case errors.Is(err, tool.ErrShutdown):
		return "Servidor em encerramento."
	default:
		return "Erro fatal inesperado: falha interna ao executar a ferramenta."
	}
}

// errorDetail unwraps a SystemError for the log.
func errorDetail(err error) string {
	var se *tool.SystemError
	if errors.As(err, &se) && se.Err != nil {
		return se.Err.Error()
	}
	return err.Error()
}
