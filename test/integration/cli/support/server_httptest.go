package support

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/imgmerge/internal/export"
	"github.com/MeKo-Tech/imgmerge/internal/server"
	"github.com/gorilla/websocket"
)

// HTTPTestServerWrapper wraps httptest.Server for integration tests.
type HTTPTestServerWrapper struct {
	Server     *httptest.Server
	TestServer *server.Server

	// WebSocket messages received by the last WebSocket export, in order.
	WSMessages []server.WebSocketExportResponse
}

// createTestHTTPServer starts the real export server on an httptest listener.
func (testCtx *TestContext) createTestHTTPServer(maxUploadMB int64) error {
	opts := export.DefaultOptions()
	opts.FrameDelay = 200 * time.Millisecond

	srv, err := server.NewServer(server.Config{
		CORSOrigin:       "*",
		MaxUploadMB:      maxUploadMB,
		TimeoutSec:       30,
		Export:           opts,
		PreviewMaxWidth:  64,
		PreviewMaxHeight: 64,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	testCtx.HTTPTestServer = &HTTPTestServerWrapper{
		Server:     httptest.NewServer(mux),
		TestServer: srv,
	}
	return nil
}

func (testCtx *TestContext) stopTestHTTPServer() {
	if testCtx.HTTPTestServer != nil {
		testCtx.HTTPTestServer.Server.Close()
		testCtx.HTTPTestServer = nil
	}
}

func (testCtx *TestContext) serverURL(path string) (string, error) {
	if testCtx.HTTPTestServer == nil {
		return "", fmt.Errorf("export server is not running")
	}
	return testCtx.HTTPTestServer.Server.URL + path, nil
}

// doRequest performs req and records status, headers and body.
func (testCtx *TestContext) doRequest(req *http.Request) error {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPHeaders = resp.Header
	testCtx.LastHTTPResponse = body
	return nil
}

// multipartBody builds a form with the named files under fileField plus the
// given plain fields.
func (testCtx *TestContext) multipartBody(fileField string, files []string, fields map[string][]string) (*bytes.Buffer, string, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	for _, name := range files {
		data, err := os.ReadFile(testCtx.Path(name))
		if err != nil {
			return nil, "", err
		}
		part, err := writer.CreateFormFile(fileField, filepath.Base(name))
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", err
		}
	}
	for key, values := range fields {
		for _, v := range values {
			if err := writer.WriteField(key, v); err != nil {
				return nil, "", err
			}
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

// runWebSocketExport sends one export request and collects messages until a
// completed or error status arrives.
func (testCtx *TestContext) runWebSocketExport(files []string, format string) error {
	url, err := testCtx.serverURL("/ws/export")
	if err != nil {
		return err
	}
	url = "ws" + strings.TrimPrefix(url, "http")

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() { _ = conn.Close() }()

	req := server.WebSocketExportRequest{Format: format}
	for _, name := range files {
		data, err := os.ReadFile(testCtx.Path(name))
		if err != nil {
			return err
		}
		req.Images = append(req.Images, server.WebSocketImagePayload{Filename: filepath.Base(name), Data: data})
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("websocket write failed: %w", err)
	}

	testCtx.HTTPTestServer.WSMessages = nil
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	for {
		var msg server.WebSocketExportResponse
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("websocket read failed: %w", err)
		}
		testCtx.HTTPTestServer.WSMessages = append(testCtx.HTTPTestServer.WSMessages, msg)
		if msg.Status == "completed" || msg.Status == "error" {
			return nil
		}
	}
}
