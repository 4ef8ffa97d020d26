package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewandler/crux-go/core/tools"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	reg := tools.NewRegistry()
	reg.MustRegister(
		tools.Definition{
			Name:        "echo",
			Description: "returns its arguments",
			InputSchema: json.RawMessage(`{"type": "object"}`),
		},
		func(_ context.Context, raw json.RawMessage) (any, error) {
			var m map[string]any
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &m); err != nil {
					return nil, err
				}
			}
			return map[string]any{"args": m}, nil
		},
	)
	reg.MustRegister(
		tools.Definition{
			Name:        "boom",
			Description: "always fails",
			InputSchema: json.RawMessage(`{"type": "object"}`),
		},
		func(_ context.Context, _ json.RawMessage) (any, error) {
			return nil, errors.New("upstream exploded")
		},
	)

	return NewServer(Options{
		Name:     "test-server",
		Version:  "0.0.1",
		Registry: reg,
		Log:      slog.New(slog.DiscardHandler),
	})
}

// roundTrip feeds the server one line per request and decodes every reply
// line it writes.
func roundTrip(t *testing.T, srv *Server, requests ...string) []map[string]any {
	t.Helper()

	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	var out bytes.Buffer
	require.NoError(t, srv.Serve(t.Context(), in, &out))

	var resps []map[string]any
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		resps = append(resps, m)
	}
	return resps
}

func result(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	r, ok := resp["result"].(map[string]any)
	require.True(t, ok, "expected a result, got: %v", resp)
	return r
}

func TestServer_Initialize(t *testing.T) {
	srv := newTestServer(t)

	resps := roundTrip(t, srv, `{"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": {"protocolVersion": "2024-11-05", "clientInfo": {"name": "test-client", "version": "1.0"}}}`)
	require.Len(t, resps, 1)

	assert.Equal(t, "2.0", resps[0]["jsonrpc"])
	assert.Equal(t, float64(1), resps[0]["id"])

	res := result(t, resps[0])
	assert.Equal(t, "2024-11-05", res["protocolVersion"])

	info, ok := res["serverInfo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "test-server", info["name"])
	assert.Equal(t, "0.0.1", info["version"])

	caps, ok := res["capabilities"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, caps, "tools")
}

func TestServer_Ping(t *testing.T) {
	srv := newTestServer(t)

	resps := roundTrip(t, srv, `{"jsonrpc": "2.0", "id": 7, "method": "ping"}`)
	require.Len(t, resps, 1)
	assert.Equal(t, float64(7), resps[0]["id"])
	assert.Equal(t, map[string]any{}, resps[0]["result"])
}

func TestServer_ToolsList(t *testing.T) {
	srv := newTestServer(t)

	resps := roundTrip(t, srv, `{"jsonrpc": "2.0", "id": 1, "method": "tools/list"}`)
	require.Len(t, resps, 1)

	res := result(t, resps[0])
	list, ok := res["tools"].([]any)
	require.True(t, ok)
	require.Len(t, list, 2)

	first, ok := list[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "echo", first["name"])
	assert.Contains(t, first, "inputSchema")
}

func TestServer_ToolsCall(t *testing.T) {
	srv := newTestServer(t)

	resps := roundTrip(t, srv, `{"jsonrpc": "2.0", "id": 2, "method": "tools/call", "params": {"name": "echo", "arguments": {"x": 1}}}`)
	require.Len(t, resps, 1)

	res := result(t, resps[0])
	assert.NotContains(t, res, "isError")

	contents, ok := res["content"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 1)

	c, ok := contents[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "text", c["type"])

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(c["text"].(string)), &payload))
	assert.Equal(t, map[string]any{"args": map[string]any{"x": float64(1)}}, payload)
}

func TestServer_ToolFailureIsResultNotError(t *testing.T) {
	srv := newTestServer(t)

	resps := roundTrip(t, srv, `{"jsonrpc": "2.0", "id": 3, "method": "tools/call", "params": {"name": "boom", "arguments": {}}}`)
	require.Len(t, resps, 1)
	require.NotContains(t, resps[0], "error")

	res := result(t, resps[0])
	assert.Equal(t, true, res["isError"])

	contents := res["content"].([]any)
	text := contents[0].(map[string]any)["text"].(string)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	assert.Contains(t, payload["error"], "upstream exploded")
	assert.Equal(t, "boom", payload["tool"])
	assert.Equal(t, false, payload["success"])
}

func TestServer_UnknownMethod(t *testing.T) {
	srv := newTestServer(t)

	resps := roundTrip(t, srv, `{"jsonrpc": "2.0", "id": 4, "method": "resources/list"}`)
	require.Len(t, resps, 1)

	e, ok := resps[0]["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(-32601), e["code"])
}

func TestServer_UnknownTool(t *testing.T) {
	srv := newTestServer(t)

	resps := roundTrip(t, srv, `{"jsonrpc": "2.0", "id": 5, "method": "tools/call", "params": {"name": "nope"}}`)
	require.Len(t, resps, 1)

	e, ok := resps[0]["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(-32602), e["code"])
	assert.Contains(t, e["message"], "nope")
}

func TestServer_MissingToolName(t *testing.T) {
	srv := newTestServer(t)

	resps := roundTrip(t, srv, `{"jsonrpc": "2.0", "id": 6, "method": "tools/call", "params": {}}`)
	require.Len(t, resps, 1)

	e, ok := resps[0]["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(-32602), e["code"])
}

func TestServer_ParseError(t *testing.T) {
	srv := newTestServer(t)

	resps := roundTrip(t, srv, `{this is not json`)
	require.Len(t, resps, 1)

	e, ok := resps[0]["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(-32700), e["code"])
	assert.Nil(t, resps[0]["id"])
}

func TestServer_NotificationsGetNoReply(t *testing.T) {
	srv := newTestServer(t)

	resps := roundTrip(t, srv,
		`{"jsonrpc": "2.0", "method": "notifications/initialized"}`,
		`{"jsonrpc": "2.0", "id": 1, "method": "ping"}`,
	)
	require.Len(t, resps, 1, "only the ping may be answered")
	assert.Equal(t, float64(1), resps[0]["id"])
}

func TestServer_StringIDEcho(t *testing.T) {
	srv := newTestServer(t)

	resps := roundTrip(t, srv, `{"jsonrpc": "2.0", "id": "req-abc", "method": "ping"}`)
	require.Len(t, resps, 1)
	assert.Equal(t, "req-abc", resps[0]["id"])
}

func TestServer_SequentialOrder(t *testing.T) {
	srv := newTestServer(t)

	resps := roundTrip(t, srv,
		`{"jsonrpc": "2.0", "id": 1, "method": "tools/call", "params": {"name": "echo", "arguments": {"n": 1}}}`,
		`{"jsonrpc": "2.0", "id": 2, "method": "tools/call", "params": {"name": "echo", "arguments": {"n": 2}}}`,
		`{"jsonrpc": "2.0", "id": 3, "method": "ping"}`,
	)
	require.Len(t, resps, 3)
	assert.Equal(t, float64(1), resps[0]["id"])
	assert.Equal(t, float64(2), resps[1]["id"])
	assert.Equal(t, float64(3), resps[2]["id"])
}

func TestServer_BlankLinesSkipped(t *testing.T) {
	srv := newTestServer(t)

	in := strings.NewReader("\n\n" + `{"jsonrpc": "2.0", "id": 1, "method": "ping"}` + "\n\n")
	var out bytes.Buffer
	require.NoError(t, srv.Serve(t.Context(), in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 1)
}

func TestServer_OversizedFrameSkippedNotFatal(t *testing.T) {
	srv := newTestServer(t)

	big := `{"jsonrpc": "2.0", "id": 1, "method": "ping", "pad": "` +
		strings.Repeat("x", maxLineBytes) + `"}`
	resps := roundTrip(t, srv,
		big,
		`{"jsonrpc": "2.0", "id": 2, "method": "ping"}`,
	)
	require.Len(t, resps, 2, "the session must survive the oversized frame")

	e, ok := resps[0]["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(-32700), e["code"])
	assert.Nil(t, resps[0]["id"])

	assert.Equal(t, float64(2), resps[1]["id"])
}

func TestServer_ContextCancellationStopsServe(t *testing.T) {
	srv := newTestServer(t)

	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, pr, io.Discard)
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Serve did not stop on cancellation")
	}
}

func TestServer_DefaultsApplied(t *testing.T) {
	srv := NewServer(Options{Log: slog.New(slog.DiscardHandler)})

	resps := roundTrip(t, srv, `{"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": {}}`)
	require.Len(t, resps, 1)

	info := result(t, resps[0])["serverInfo"].(map[string]any)
	assert.Equal(t, "crux-go", info["name"])
	assert.NotEmpty(t, info["version"])
}
