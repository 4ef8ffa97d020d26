package mcp

import (
	"encoding/json"

	"github.com/codewandler/crux-go/core/tools"
)

// protocolVersion is the MCP revision this server speaks.
const protocolVersion = "2024-11-05"

const jsonRPCVersion = "2.0"

// JSON-RPC 2.0 error codes used by the protocol layer.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

type (
	request struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id,omitempty"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}

	response struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id,omitempty"`
		Result  any             `json:"result,omitempty"`
		Error   *rpcError       `json:"error,omitempty"`
	}

	rpcError struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}

	peerInfo struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}

	initializeParams struct {
		ProtocolVersion string   `json:"protocolVersion"`
		ClientInfo      peerInfo `json:"clientInfo"`
	}

	initializeResult struct {
		ProtocolVersion string       `json:"protocolVersion"`
		Capabilities    capabilities `json:"capabilities"`
		ServerInfo      peerInfo     `json:"serverInfo"`
	}

	capabilities struct {
		Tools toolsCapability `json:"tools"`
	}

	toolsCapability struct{}

	listToolsResult struct {
		Tools []tools.Definition `json:"tools"`
	}

	callToolParams struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments,omitempty"`
	}

	callToolResult struct {
		Content []content `json:"content"`
		IsError bool      `json:"isError,omitempty"`
	}

	content struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}

	// toolError is the payload returned as text content when a tool fails.
	toolError struct {
		Error   string `json:"error"`
		Tool    string `json:"tool"`
		Success bool   `json:"success"`
	}
)
