package kit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testImpl = &mcp.Implementation{Name: "kit-test", Version: "0.1.0"}

type echoReq struct {
	Text string `json:"text"`
}

func echoDecode(req *mcp.CallToolRequest) (*MCPDecodeResult, error) {
	var r echoReq
	if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
		return nil, err
	}
	return &MCPDecodeResult{Request: &r}, nil
}

func echoTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "kit_echo",
		Description: "Echo the input text.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"text": map[string]any{"type": "string"}},
		},
	}
}

func toolSession(t *testing.T, srv *mcp.Server) *mcp.ClientSession {
	t.Helper()
	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func TestRegisterMCPTool_EnrichesContext(t *testing.T) {
	// WHAT: every tool call reaches the endpoint with the mcp transport
	// marker and a fresh request id in context.
	srv := mcp.NewServer(testImpl, nil)

	var gotTransport, gotRequestID string
	endpoint := func(ctx context.Context, req any) (any, error) {
		gotTransport = GetTransport(ctx)
		gotRequestID = GetRequestID(ctx)
		return map[string]string{"echo": req.(*echoReq).Text}, nil
	}
	RegisterMCPTool(srv, echoTool(), endpoint, echoDecode)

	session := toolSession(t, srv)
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "kit_echo",
		Arguments: map[string]any{"text": "hola"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("tool error: %v", err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	text := tc.Text
	if !strings.Contains(text, "hola") {
		t.Errorf("payload: %q", text)
	}
	if gotTransport != "mcp" {
		t.Errorf("transport = %q, want 'mcp'", gotTransport)
	}
	if gotRequestID == "" {
		t.Error("request id not assigned")
	}
}

func TestRegisterMCPTool_EndpointErrorIsToolError(t *testing.T) {
	// WHAT: endpoint failures surface as tool-level errors, not protocol
	// errors that kill the session.
	srv := mcp.NewServer(testImpl, nil)
	endpoint := func(context.Context, any) (any, error) {
		return nil, errors.New("boom")
	}
	RegisterMCPTool(srv, echoTool(), endpoint, echoDecode)

	session := toolSession(t, srv)
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "kit_echo",
		Arguments: map[string]any{"text": "x"},
	})
	if err != nil {
		t.Fatalf("expected tool error, got protocol error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected a tool-level error result")
	}
}
