package docval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valmera/docgate/kit"
)

// RegisterMCP registers docval tools on an MCP server.
func (v *Validator) RegisterMCP(srv *mcp.Server) {
	v.registerValidateTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

type validateReq struct {
	PDFPath string `json:"pdf_path"`
	XMLPath string `json:"xml_path"`
}

func (v *Validator) registerValidateTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docgate_validate",
		Description: "Structurally validate a DIAN document pair: PDF rendition (magic + extractable text) and XML invoice (well-formedness).",
		InputSchema: inputSchema(map[string]any{
			"pdf_path": map[string]any{"type": "string", "description": "Path to the PDF rendition"},
			"xml_path": map[string]any{"type": "string", "description": "Path to the XML invoice"},
		}, []string{"pdf_path", "xml_path"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*validateReq)
		pdfBytes, err := os.ReadFile(r.PDFPath)
		if err != nil {
			return nil, fmt.Errorf("read pdf: %w", err)
		}
		xmlBytes, err := os.ReadFile(r.XMLPath)
		if err != nil {
			return nil, fmt.Errorf("read xml: %w", err)
		}
		out := v.Validate(pdfBytes, xmlBytes)
		v.logger.Info("docval: validate tool",
			"transport", kit.GetTransport(ctx),
			"request_id", kit.GetRequestID(ctx),
			"status", out.Status)
		return out, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r validateReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
