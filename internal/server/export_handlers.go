package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/imgmerge/internal/export"
	"github.com/disintegration/imaging"
)

// exportHandler merges the uploaded images into one artifact and streams it back.
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	reqID := requestID(r)

	if !s.parseForm(w, r, reqID) {
		return
	}

	formatTag := r.FormValue("format")
	if formatTag == "" {
		formatTag = r.URL.Query().Get("format")
	}
	if formatTag == "" {
		formatTag = export.StackedImage.String()
	}

	files := r.MultipartForm.File["images"]
	uploadImagesPerRequest.Observe(float64(len(files)))

	rotations, err := parseRotations(r.MultipartForm.Value["rotations"], len(files))
	if err != nil {
		s.writeErrorResponse(w, err.Error(), "invalid_request", reqID)
		return
	}

	uploads := make([]upload, len(files))
	for i, fh := range files {
		uploadSizeBytes.Observe(float64(fh.Size))
		uploads[i] = upload{Filename: fh.Filename, Rotation: rotations[i], Open: openPart(fh)}
	}

	// Unknown formats are reported only once the queue is known to be non-empty.
	format, err := export.ParseFormat(formatTag)
	if err != nil && len(uploads) > 0 {
		s.writeErrorResponse(w, err.Error(), export.ErrorType(err), reqID)
		return
	}

	ws, err := newWorkspace()
	if err != nil {
		s.writeErrorResponse(w, err.Error(), "internal_error", reqID)
		return
	}
	defer func() { _ = ws.Close() }()

	entries, err := ws.stage(uploads)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), "internal_error", reqID)
		return
	}

	dest := ws.output(format)
	res := s.exporter.Export(entries, format, dest, nil)
	if !res.Success {
		err := ws.clientError(res.Err)
		s.logger.Warn("Export request failed", "request_id", reqID, "error", err)
		s.writeErrorResponse(w, err.Error(), res.ErrorType, reqID)
		return
	}

	s.streamArtifact(w, res, format, reqID)
}

func (s *Server) streamArtifact(w http.ResponseWriter, res export.Result, format export.Format, reqID string) {
	f, err := os.Open(res.OutputPath)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("cannot read export: %v", err), "write_error", reqID)
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.FormatInt(res.Bytes, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "export"+format.Extension()))
	w.Header().Set("X-Export-Count", strconv.Itoa(res.Count))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		s.logger.Error("Failed to stream export", "request_id", reqID, "error", err)
	}
}

// previewHandler renders one uploaded image as a rotated, scaled PNG.
func (s *Server) previewHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	reqID := requestID(r)

	if !s.parseForm(w, r, reqID) {
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", "invalid_request", reqID)
		return
	}
	_ = file.Close()
	uploadSizeBytes.Observe(float64(header.Size))

	rotations, err := parseRotations(r.MultipartForm.Value["rotation"], 1)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), "invalid_request", reqID)
		return
	}
	maxW, err := formInt(r, "max_width", s.previewMaxWidth)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), "invalid_request", reqID)
		return
	}
	maxH, err := formInt(r, "max_height", s.previewMaxHeight)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), "invalid_request", reqID)
		return
	}

	ws, err := newWorkspace()
	if err != nil {
		s.writeErrorResponse(w, err.Error(), "internal_error", reqID)
		return
	}
	defer func() { _ = ws.Close() }()

	entries, err := ws.stage([]upload{{Filename: header.Filename, Rotation: rotations[0], Open: openPart(header)}})
	if err != nil {
		s.writeErrorResponse(w, err.Error(), "internal_error", reqID)
		return
	}

	img, err := export.Preview(entries[0], maxW, maxH)
	if err != nil {
		err = ws.clientError(err)
		s.writeErrorResponse(w, err.Error(), export.ErrorType(err), reqID)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		s.logger.Error("Failed to encode preview", "request_id", reqID, "error", err)
	}
}

// parseForm applies the upload limit and parses the multipart body. It writes
// the error response itself and reports whether the handler may continue.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request, reqID string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())

	if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			s.writeErrorResponse(w, "Upload too large", "upload_too_large", reqID)
			return false
		}
		s.writeErrorResponse(w, "Failed to parse form data", "invalid_request", reqID)
		return false
	}
	return true
}

func openPart(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) { return fh.Open() }
}

func formInt(r *http.Request, key string, fallback int) (int, error) {
	v := r.FormValue(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q (must be a positive integer)", key, v)
	}
	return n, nil
}
