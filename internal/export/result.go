package export

import "time"

// Result is the outcome of one export. Failures are reported here rather than
// as a returned error.
type Result struct {
	Success      bool          `json:"success"`
	OutputPath   string        `json:"output_path,omitempty"`
	ErrorMessage string        `json:"error,omitempty"`
	ErrorType    string        `json:"error_type,omitempty"`
	Format       string        `json:"format"`
	Count        int           `json:"count"`
	Width        int           `json:"width,omitempty"`
	Height       int           `json:"height,omitempty"`
	Bytes        int64         `json:"bytes,omitempty"`
	Duration     time.Duration `json:"duration_ns"`

	// Err is the typed error behind ErrorMessage.
	Err error `json:"-"`
}

// Summary describes an encoded artifact.
type Summary struct {
	Count  int
	Width  int
	Height int
	Bytes  int64
}

func failed(format Format, err error, took time.Duration) Result {
	return Result{
		Success:      false,
		ErrorMessage: err.Error(),
		ErrorType:    ErrorType(err),
		Format:       format.String(),
		Duration:     took,
		Err:          err,
	}
}
