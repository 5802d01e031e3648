package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/imgmerge/internal/export"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// WebSocketExportRequest is one export job sent over a WebSocket.
type WebSocketExportRequest struct {
	Format string                 `json:"format"`
	Images []WebSocketImagePayload `json:"images"`
}

// WebSocketImagePayload carries one image; Data is base64 in JSON.
type WebSocketImagePayload struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
	Rotation int    `json:"rotation"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketExportResult is the payload of a completed export.
type WebSocketExportResult struct {
	Format      string `json:"format"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Count       int    `json:"count"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Bytes       int64  `json:"bytes"`
	Data        []byte `json:"data"`
}

// WebSocketExportResponse represents an export status message via WebSocket.
type WebSocketExportResponse struct {
	Type      string                 `json:"type"`
	Status    string                 `json:"status"` // "processing", "completed", "error"
	Progress  float64                `json:"progress,omitempty"`
	Current   int                    `json:"current,omitempty"`
	Total     int                    `json:"total,omitempty"`
	Result    *WebSocketExportResult `json:"result,omitempty"`
	Error     string                 `json:"error,omitempty"`
	ErrorType string                 `json:"error_type,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// exportWebSocketHandler handles WebSocket connections for exports with live progress.
func (s *Server) exportWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	// Upgrade HTTP connection to WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	s.logger.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	s.handleWebSocketConnection(conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn) {
	conn.SetReadLimit(s.maxUploadBytes() * 2) // base64 inflates uploads by a third

	// Set read deadline to prevent hanging connections
	_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout()))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout()))
		return nil
	})

	done := make(chan struct{})
	defer close(done)

	// Send ping messages to keep connection alive
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(conn, data)
			// Exports can take a while; the client gets a fresh read window afterwards.
			_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout()))
		}
	}
}

// handleWebSocketMessage runs one export request and reports its progress.
func (s *Server) handleWebSocketMessage(conn WebSocketConnWriter, data []byte) {
	requestID := uuid.NewString()

	var req WebSocketExportRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, requestID, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	s.sendWebSocketResponse(conn, WebSocketExportResponse{
		Type:      "export_response",
		Status:    "processing",
		Total:     len(req.Images),
		RequestID: requestID,
	})

	format, err := export.ParseFormat(req.Format)
	if err != nil && len(req.Images) > 0 {
		s.sendWebSocketError(conn, requestID, export.ErrorType(err), err.Error())
		return
	}

	uploads := make([]upload, len(req.Images))
	for i, img := range req.Images {
		if img.Rotation%90 != 0 {
			s.sendWebSocketError(conn, requestID, "invalid_request",
				fmt.Sprintf("invalid rotation %d for %q (must be a multiple of 90)", img.Rotation, img.Filename))
			return
		}
		payload := img.Data
		uploadSizeBytes.Observe(float64(len(payload)))
		uploads[i] = upload{
			Filename: img.Filename,
			Rotation: img.Rotation,
			Open:     func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(payload)), nil },
		}
	}
	uploadImagesPerRequest.Observe(float64(len(uploads)))

	ws, err := newWorkspace()
	if err != nil {
		s.sendWebSocketError(conn, requestID, "internal_error", err.Error())
		return
	}
	defer func() { _ = ws.Close() }()

	entries, err := ws.stage(uploads)
	if err != nil {
		s.sendWebSocketError(conn, requestID, "internal_error", err.Error())
		return
	}

	// The artifact goes back inline, so it is encoded in memory rather than to disk.
	progress := &webSocketProgress{server: s, conn: conn, requestID: requestID}
	var artifact bytes.Buffer
	summary, err := s.exporter.Write(&artifact, entries, format, progress)
	if err != nil {
		err = ws.clientError(err)
		s.sendWebSocketError(conn, requestID, export.ErrorType(err), err.Error())
		return
	}

	s.sendWebSocketResponse(conn, WebSocketExportResponse{
		Type:     "export_response",
		Status:   "completed",
		Progress: 1.0,
		Current:  summary.Count,
		Total:    summary.Count,
		Result: &WebSocketExportResult{
			Format:      format.String(),
			Filename:    "export" + format.Extension(),
			ContentType: format.ContentType(),
			Count:       summary.Count,
			Width:       summary.Width,
			Height:      summary.Height,
			Bytes:       summary.Bytes,
			Data:        artifact.Bytes(),
		},
		RequestID: requestID,
	})
}

// webSocketProgress forwards per-entry progress to the client. Errors are
// reported by the handler with the client's filenames, so OnError is silent.
type webSocketProgress struct {
	server    *Server
	conn      WebSocketConnWriter
	requestID string
}

func (p *webSocketProgress) OnStart(int) {}

func (p *webSocketProgress) OnProgress(current, total int) {
	p.server.sendWebSocketResponse(p.conn, WebSocketExportResponse{
		Type:      "export_response",
		Status:    "processing",
		Progress:  float64(current) / float64(total),
		Current:   current,
		Total:     total,
		RequestID: p.requestID,
	})
}

func (p *webSocketProgress) OnComplete() {}

func (p *webSocketProgress) OnError(int, error) {}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketExportResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, requestID, errorType, message string) {
	s.sendWebSocketResponse(conn, WebSocketExportResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
		RequestID: requestID,
	})
}
