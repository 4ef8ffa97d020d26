package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/crux-go/core/tools"
)

// maxLineBytes bounds a single incoming request line. Longer frames are
// answered with a parse error and skipped.
const maxLineBytes = 1 << 20

// frame is one newline-delimited request line. An over-limit line arrives
// with tooLong set and no data.
type frame struct {
	data    []byte
	tooLong bool
}

// readFrame reads the next line from br, accumulating across the reader's
// internal buffer. A line over maxLineBytes is discarded up to its newline
// and reported as too long instead of held in memory.
func readFrame(br *bufio.Reader) (frame, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			buf = append(buf, chunk...)
			if len(buf) > maxLineBytes {
				buf = nil
				tooLong = true
			}
		}
		switch {
		case err == nil:
			return frame{data: bytes.TrimSuffix(buf, []byte("\n")), tooLong: tooLong}, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && (tooLong || len(buf) > 0):
			// Final line without a trailing newline.
			return frame{data: buf, tooLong: tooLong}, nil
		default:
			return frame{}, err
		}
	}
}

type (
	Options struct {
		Log      *slog.Logger
		Name     string
		Version  string
		Registry *tools.Registry
	}

	Server struct {
		log       *slog.Logger
		name      string
		version   string
		registry  *tools.Registry
		sessionID string

		writeMu sync.Mutex
	}
)

func NewServer(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	name := opts.Name
	if name == "" {
		name = "crux-go"
	}

	version := opts.Version
	if version == "" {
		version = "dev"
	}

	registry := opts.Registry
	if registry == nil {
		registry = tools.NewRegistry()
	}

	return &Server{
		log:       log,
		name:      name,
		version:   version,
		registry:  registry,
		sessionID: fmt.Sprintf("session-%s", gonanoid.Must(8)),
	}
}

// Serve reads newline-delimited JSON-RPC requests from r and writes replies
// to w until r is exhausted or ctx is cancelled. Requests are handled
// sequentially in arrival order. A frame over the size limit is answered
// with a parse error and skipped; the session continues.
//
// A read blocked on r cannot be interrupted; on cancellation the reader
// goroutine exits after at most one more line.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.log.Info(
		"server started",
		slog.String("session_id", s.sessionID),
		slog.String("name", s.name),
		slog.String("version", s.version),
		slog.Int("num_tools", s.registry.Len()),
	)

	frames := make(chan frame)
	errc := make(chan error, 1)

	go func() {
		br := bufio.NewReaderSize(r, 64*1024)
		for {
			f, err := readFrame(br)
			if err != nil {
				if errors.Is(err, io.EOF) {
					errc <- nil
				} else {
					errc <- err
				}
				close(frames)
				return
			}
			select {
			case frames <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("server stopping", slog.String("session_id", s.sessionID))
			return ctx.Err()
		case f, ok := <-frames:
			if !ok {
				if err := <-errc; err != nil {
					return fmt.Errorf("read: %w", err)
				}
				s.log.Info("client disconnected", slog.String("session_id", s.sessionID))
				return nil
			}
			if f.tooLong {
				s.log.Warn("request frame too large", slog.Int("limit_bytes", maxLineBytes))
				s.reply(w, response{
					JSONRPC: jsonRPCVersion,
					ID:      json.RawMessage("null"),
					Error:   &rpcError{Code: codeParseError, Message: "request exceeds size limit"},
				})
				continue
			}
			if len(bytes.TrimSpace(f.data)) == 0 {
				continue
			}
			s.handle(ctx, w, f.data)
		}
	}
}

func (s *Server) handle(ctx context.Context, w io.Writer, line []byte) {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		s.log.Warn("malformed request", slog.Any("error", err))
		s.reply(w, response{
			JSONRPC: jsonRPCVersion,
			ID:      json.RawMessage("null"),
			Error:   &rpcError{Code: codeParseError, Message: "parse error"},
		})
		return
	}

	// Requests without an id are notifications and never get a reply.
	if len(req.ID) == 0 || string(req.ID) == "null" {
		s.log.Debug("notification", slog.String("method", req.Method))
		return
	}

	s.reply(w, s.dispatch(ctx, req))
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	s.log.Debug("request", slog.String("method", req.Method), slog.String("id", string(req.ID)))

	resp := response{JSONRPC: jsonRPCVersion, ID: req.ID}

	switch req.Method {
	case "initialize":
		resp.Result = s.initialize(req.Params)
	case "ping":
		resp.Result = struct{}{}
	case "tools/list":
		resp.Result = listToolsResult{Tools: s.registry.List()}
	case "tools/call":
		result, rpcErr := s.callTool(ctx, req.Params)
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			resp.Result = result
		}
	default:
		resp.Error = &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
	}
	return resp
}

func (s *Server) initialize(params json.RawMessage) initializeResult {
	var p initializeParams
	if len(params) > 0 && json.Unmarshal(params, &p) == nil && p.ClientInfo.Name != "" {
		s.log.Info(
			"client connected",
			slog.String("client", p.ClientInfo.Name),
			slog.String("client_version", p.ClientInfo.Version),
			slog.String("client_protocol", p.ProtocolVersion),
		)
	}

	return initializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    capabilities{Tools: toolsCapability{}},
		ServerInfo:      peerInfo{Name: s.name, Version: s.version},
	}
}

// callTool dispatches one tool call. Handler failures become a result with
// IsError set so the calling agent can see them; only protocol-level
// problems (bad params, unknown tool) surface as JSON-RPC errors.
func (s *Server) callTool(ctx context.Context, params json.RawMessage) (callToolResult, *rpcError) {
	var p callToolParams
	if err := json.Unmarshal(params, &p); err != nil {
		return callToolResult{}, &rpcError{Code: codeInvalidParams, Message: "invalid params: " + err.Error()}
	}
	if p.Name == "" {
		return callToolResult{}, &rpcError{Code: codeInvalidParams, Message: "tool name is required"}
	}

	log := s.log.With(slog.String("tool", p.Name))
	log.Debug("tool call", slog.String("arguments", string(p.Arguments)))

	out, err := s.registry.Dispatch(ctx, p.Name, p.Arguments)
	if errors.Is(err, tools.ErrUnknownTool) {
		return callToolResult{}, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	if err != nil {
		log.Error("tool failed", slog.Any("error", err))
		text, _ := json.Marshal(toolError{
			Error:   "tool execution failed: " + err.Error(),
			Tool:    p.Name,
			Success: false,
		})
		return callToolResult{
			Content: []content{{Type: "text", Text: string(text)}},
			IsError: true,
		}, nil
	}

	text, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Error("result serialization failed", slog.Any("error", err))
		return callToolResult{}, &rpcError{Code: codeInternalError, Message: "result serialization failed"}
	}

	return callToolResult{
		Content: []content{{Type: "text", Text: string(text)}},
	}, nil
}

func (s *Server) reply(w io.Writer, resp response) {
	b, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("response serialization failed", slog.Any("error", err))
		b, _ = json.Marshal(response{
			JSONRPC: jsonRPCVersion,
			ID:      resp.ID,
			Error:   &rpcError{Code: codeInternalError, Message: "internal error"},
		})
	}
	b = append(b, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := w.Write(b); err != nil {
		s.log.Error("write failed", slog.Any("error", err))
	}
}
