package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/ironsheep/texture-tools-mcp/internal/imaging"
)

// Server handles MCP protocol communication
type Server struct {
	cache *imaging.ImageCache

	mu  sync.Mutex
	enc *json.Encoder

	// in-flight tools/call requests by ID, for notifications/cancelled
	inflightMu sync.Mutex
	inflight   map[string]context.CancelFunc
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a new MCP server instance
func New() *Server {
	return &Server{
		cache:    imaging.NewImageCache(),
		inflight: make(map[string]context.CancelFunc),
	}
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(context.Background(), os.Stdin, os.Stdout)
}

// Serve processes newline-delimited requests from r and writes responses
// and notifications to w until r is exhausted.
//
// tools/call requests run concurrently so that a later
// notifications/cancelled can stop them. Serve waits for every running
// call to finish before returning.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	s.mu.Lock()
	s.enc = json.NewEncoder(w)
	s.mu.Unlock()

	var wg sync.WaitGroup
	defer wg.Wait()

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		if req.Method == "tools/call" && req.ID != nil {
			callCtx, cancel := context.WithCancel(ctx)
			key := requestKey(req.ID)
			s.track(key, cancel)
			wg.Add(1)
			go func(req MCPRequest) {
				defer wg.Done()
				defer s.untrack(key)
				s.send(s.handleRequest(callCtx, &req))
			}(req)
			continue
		}
		s.send(s.handleRequest(ctx, &req))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// send writes one message. Nil responses are dropped.
func (s *Server) send(msg interface{}) {
	if resp, ok := msg.(*MCPResponse); ok && resp == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enc == nil {
		return
	}
	if err := s.enc.Encode(msg); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func requestKey(id interface{}) string {
	return fmt.Sprintf("%T:%v", id, id)
}

func (s *Server) track(key string, cancel context.CancelFunc) {
	s.inflightMu.Lock()
	s.inflight[key] = cancel
	s.inflightMu.Unlock()
}

func (s *Server) untrack(key string) {
	s.inflightMu.Lock()
	if cancel, ok := s.inflight[key]; ok {
		cancel()
		delete(s.inflight, key)
	}
	s.inflightMu.Unlock()
}

// cancelRequest stops an in-flight call. Unknown IDs are ignored.
func (s *Server) cancelRequest(id interface{}) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	cancel, ok := s.inflight[requestKey(id)]
	if ok {
		cancel()
	}
	return ok
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "notifications/cancelled":
		var p struct {
			RequestID interface{} `json:"requestId"`
			Reason    string      `json:"reason,omitempty"`
		}
		if err := json.Unmarshal(req.Params, &p); err == nil && s.cancelRequest(p.RequestID) {
			log.Printf("Cancelled request %v: %s", p.RequestID, p.Reason)
		}
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "texture-tools-mcp",
				"version": "0.1.0",
			},
		},
	}
}
