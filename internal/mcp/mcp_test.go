package mcp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/schnicklfritz/lite-remote-builder/internal/common"
	"github.com/schnicklfritz/lite-remote-builder/internal/config"
	"github.com/schnicklfritz/lite-remote-builder/internal/github"
)

// --- Helpers ---

func testConfig(apiURL string) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.GitHub.Token = "test-token"
	cfg.GitHub.Owner = "octo"
	cfg.GitHub.Repo = "kernel"
	cfg.GitHub.APIURL = apiURL
	return cfg
}

// newTestServer wires a full Server against a fake GitHub API.
func newTestServer(t *testing.T, upstream http.Handler) *mcpserver.MCPServer {
	t.Helper()
	api := httptest.NewServer(upstream)
	t.Cleanup(api.Close)

	cfg := testConfig(api.URL)
	logger := common.NewSilentLogger()
	client, err := github.NewClient(cfg.GitHub, logger)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return NewServer(cfg, client, logger).MCPServer()
}

// listTools calls tools/list on the MCPServer and returns the tools.
func listTools(t *testing.T, s *mcpserver.MCPServer) []mcpgo.Tool {
	t.Helper()

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	result := s.HandleMessage(t.Context(), msg)

	resp, ok := result.(mcpgo.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse, got %T", result)
	}

	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	var toolsResult mcpgo.ListToolsResult
	if err := json.Unmarshal(resultJSON, &toolsResult); err != nil {
		t.Fatalf("failed to unmarshal ListToolsResult: %v", err)
	}

	return toolsResult.Tools
}

// callToolMessage sends tools/call and returns the raw JSON-RPC message.
func callToolMessage(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]interface{}) mcpgo.JSONRPCMessage {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":` + string(paramsJSON) + `}`)
	return s.HandleMessage(t.Context(), msg)
}

// callTool calls a tool on the MCPServer and returns the result.
func callTool(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]interface{}) *mcpgo.CallToolResult {
	t.Helper()

	resp, ok := callToolMessage(t, s, name, args).(mcpgo.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse for %s", name)
	}

	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	var toolResult mcpgo.CallToolResult
	if err := json.Unmarshal(resultJSON, &toolResult); err != nil {
		t.Fatalf("failed to unmarshal CallToolResult: %v", err)
	}

	return &toolResult
}

// extractText extracts the text field from an MCP content block.
func extractText(t *testing.T, content mcpgo.Content) string {
	t.Helper()
	contentJSON, _ := json.Marshal(content)
	var tc struct {
		Text string `json:"text"`
	}
	json.Unmarshal(contentJSON, &tc)
	return tc.Text
}

// --- tools/list ---

func TestServer_ListTools(t *testing.T) {
	s := newTestServer(t, http.NotFoundHandler())

	tools := listTools(t, s)
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}

	names := map[string]bool{}
	for _, tool := range tools {
		names[tool.Name] = true
	}
	for _, want := range []string{OpTriggerKernelBuild, OpCheckBuildStatus} {
		if !names[want] {
			t.Errorf("expected tool %s in list", want)
		}
	}
}

// --- tools/call ---

func TestServer_CheckBuildStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/kernel/actions/runs", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("per_page"); got != "2" {
			t.Errorf("expected per_page=2, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total_count":2,"workflow_runs":[
			{"status":"in_progress","conclusion":null,"name":"Build Kernel","run_number":8,"html_url":"https://github.com/octo/kernel/actions/runs/8"},
			{"status":"completed","conclusion":"success","name":"Build Kernel","run_number":7,"html_url":"https://github.com/octo/kernel/actions/runs/7"}
		]}`)
	})
	s := newTestServer(t, mux)

	result := callTool(t, s, OpCheckBuildStatus, map[string]interface{}{"limit": 2})
	if result.IsError {
		t.Fatalf("expected success, got error: %v", result.Content)
	}
	text := extractText(t, result.Content[0])
	if !strings.Contains(text, "#8") || !strings.Contains(text, "#7") {
		t.Errorf("expected both runs, got %q", text)
	}
	if strings.Index(text, "#8") > strings.Index(text, "#7") {
		t.Errorf("expected upstream order to be kept, got %q", text)
	}
}

func TestServer_TriggerKernelBuild(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/kernel/actions/workflows/build-kernel.yml/dispatches", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		data, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(data), `"opt_level":"O2"`) {
			t.Errorf("expected opt_level O2 in body, got %s", string(data))
		}
		w.WriteHeader(http.StatusNoContent)
	})
	s := newTestServer(t, mux)

	result := callTool(t, s, OpTriggerKernelBuild, map[string]interface{}{"ref": "bore", "opt_level": "O2"})
	if result.IsError {
		t.Fatalf("expected success, got error: %v", result.Content)
	}
	text := extractText(t, result.Content[0])
	if !strings.Contains(text, "'bore'") {
		t.Errorf("expected branch in confirmation, got %q", text)
	}
}

func TestServer_TriggerKernelBuild_UpstreamError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/kernel/actions/workflows/build-kernel.yml/dispatches", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	s := newTestServer(t, mux)

	result := callTool(t, s, OpTriggerKernelBuild, nil)
	if !result.IsError {
		t.Fatal("expected error result")
	}
	text := extractText(t, result.Content[0])
	if !strings.Contains(text, "500") {
		t.Errorf("expected 500 in error, got %q", text)
	}
}

func TestServer_InvalidEnum(t *testing.T) {
	var hits int
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNoContent)
	})
	s := newTestServer(t, mux)

	result := callTool(t, s, OpTriggerKernelBuild, map[string]interface{}{"opt_level": "O9"})
	if !result.IsError {
		t.Fatal("expected error result for O9")
	}
	if hits != 0 {
		t.Errorf("expected no upstream call, got %d", hits)
	}
}

func TestServer_UnknownTool(t *testing.T) {
	s := newTestServer(t, http.NotFoundHandler())

	msg := callToolMessage(t, s, "does_not_exist", map[string]interface{}{})
	if _, ok := msg.(mcpgo.JSONRPCResponse); ok {
		t.Fatalf("expected a JSON-RPC error for an unknown tool, got a tool result")
	}
}

func TestToolHandler_UnknownOperationIsHandlerError(t *testing.T) {
	d := newTestDispatcher(noContent())
	handler := ToolHandler(d, "does_not_exist")

	result, err := handler(t.Context(), mcpgo.CallToolRequest{})
	if err == nil {
		t.Fatal("expected handler error for unknown operation")
	}
	if result != nil {
		t.Errorf("expected nil result, got %+v", result)
	}
}

func TestToolHandler_ErrorEnvelopeMapsToIsError(t *testing.T) {
	d := newTestDispatcher(noContent())
	handler := ToolHandler(d, OpTriggerKernelBuild)

	request := mcpgo.CallToolRequest{}
	request.Params.Arguments = map[string]interface{}{"opt_level": "O9"}

	result, err := handler(t.Context(), request)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected IsError result")
	}
	text := result.Content[0].(mcpgo.TextContent).Text
	if !strings.Contains(text, "opt_level") {
		t.Errorf("expected field name in result, got %q", text)
	}
}
