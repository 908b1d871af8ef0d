package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Handler processes incoming A2A requests for a panel agent.
type Handler interface {
	// HandleSendMessage processes an incoming message and returns a task.
	HandleSendMessage(ctx context.Context, req SendMessageRequest) (*Task, error)

	// HandleGetTask returns a task previously produced by HandleSendMessage.
	HandleGetTask(ctx context.Context, req GetTaskRequest) (*Task, error)
}

// ErrTaskNotFound is returned by handlers for unknown task IDs and is
// mapped to ErrCodeTaskNotFound on the wire.
var ErrTaskNotFound = errors.New("task not found")

// Server exposes a Handler over HTTP: the agent card at AgentCardPath and
// JSON-RPC at the root.
type Server struct {
	card    AgentCard
	handler Handler
}

// NewServer creates an A2A server for the given agent.
func NewServer(card AgentCard, handler Handler) *Server {
	return &Server{card: card, handler: handler}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+AgentCardPath, s.handleAgentCard)
	mux.HandleFunc("POST /", s.handleJSONRPC)
	return mux
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("a2a: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("a2a: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.card); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleJSONRPC decodes a JSON-RPC 2.0 request and dispatches it.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONRPCError(w, nil, ErrCodeParse, "Parse error: "+err.Error())
		return
	}

	ctx := r.Context()
	switch req.Method {
	case MethodSendMessage:
		var params SendMessageRequest
		if !decodeParams(w, &req, &params) {
			return
		}
		task, err := s.handler.HandleSendMessage(ctx, params)
		respond(w, req.ID, task, err)
	case MethodGetTask:
		var params GetTaskRequest
		if !decodeParams(w, &req, &params) {
			return
		}
		task, err := s.handler.HandleGetTask(ctx, params)
		respond(w, req.ID, task, err)
	default:
		writeJSONRPCError(w, req.ID, ErrCodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

func decodeParams(w http.ResponseWriter, req *JSONRPCRequest, v any) bool {
	if err := json.Unmarshal(req.Params, v); err != nil {
		writeJSONRPCError(w, req.ID, ErrCodeInvalidParams, "Invalid params: "+err.Error())
		return false
	}
	return true
}

func respond(w http.ResponseWriter, id any, result any, err error) {
	switch {
	case errors.Is(err, ErrTaskNotFound):
		writeJSONRPCError(w, id, ErrCodeTaskNotFound, err.Error())
	case err != nil:
		writeJSONRPCError(w, id, ErrCodeInternal, err.Error())
	default:
		writeJSONRPCResult(w, id, result)
	}
}

// writeJSONRPCResult writes a successful JSON-RPC response.
func writeJSONRPCResult(w http.ResponseWriter, id any, result any) {
	data, err := json.Marshal(result)
	if err != nil {
		writeJSONRPCError(w, id, ErrCodeInternal, "Failed to marshal result: "+err.Error())
		return
	}
	_ = json.NewEncoder(w).Encode(JSONRPCResponse{JSONRPC: JSONRPCVersion, ID: id, Result: data})
}

// writeJSONRPCError writes a JSON-RPC error response.
func writeJSONRPCError(w http.ResponseWriter, id any, code int, message string) {
	_ = json.NewEncoder(w).Encode(JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	})
}
