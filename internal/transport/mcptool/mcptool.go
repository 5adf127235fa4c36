// Package mcptool exposes the execution service as an MCP tool, so an
// assistant in the proctoring console can run the same code a participant
// submitted and see the same result.
package mcptool

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sakif/exam-ide/internal/service"
)

// ToolName is the name the tool is registered under.
const ToolName = "code_run"

// maxText caps the text handed back to the model.
const maxText = 16000

// NewServer returns an MCP server with the code_run tool registered. timeout
// is only used to describe the tool.
func NewServer(svc *service.ExecutionService, timeout time.Duration, version string) *server.MCPServer {
	s := server.NewMCPServer("examide", version)

	var langs []string
	for _, l := range svc.Catalog().Languages {
		langs = append(langs, string(l))
	}

	s.AddTool(mcp.Tool{
		Name: ToolName,
		Description: fmt.Sprintf("Execute code exactly as the exam IDE does, with a %s timeout per compile or run step. Supported languages: %s.",
			timeout, strings.Join(langs, ", ")),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"language": map[string]any{
					"type":        "string",
					"description": "Programming language (" + strings.Join(langs, ", ") + "); py, js and c++ are accepted too",
				},
				"code": map[string]any{
					"type":        "string",
					"description": "Complete source code. Java code must declare public class Main",
				},
			},
			Required: []string{"language", "code"},
		},
	}, Handler(svc))

	return s
}

// Handler returns the code_run tool handler.
func Handler(svc *service.ExecutionService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]any)
		if args == nil {
			return errResult("error: invalid arguments"), nil
		}

		language, _ := args["language"].(string)
		code, _ := args["code"].(string)

		res, err := svc.Run(ctx, code, language)
		if err != nil {
			return errResult("error: " + err.Error()), nil
		}

		text := res.Output
		if !res.Success {
			text = res.Error
		}
		text = truncate(text, maxText)

		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
			IsError: !res.Success,
		}, nil
	}
}

// truncate cuts text to at most limit bytes without splitting a UTF-8
// sequence, then marks the cut.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "\n... (output truncated)"
}

func errResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: true,
	}
}

// Serve runs the server over stdio until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
