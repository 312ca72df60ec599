package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/book-expert/unified-tts/internal/core"
)

const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
)

// errorResponse mirrors the small JSON envelope most backends in this
// gateway's catalog use to answer failures.
type errorResponse struct {
	Detail    string `json:"detail"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code,omitempty"`
}

// newHTTPClient builds a client with the given call timeout.
func newHTTPClient(timeoutSec int) *http.Client {
	timeout := time.Duration(timeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &http.Client{Timeout: timeout}
}

// parseErrorResponse decodes a structured JSON error, falling back to
// the raw body when the backend does not speak that envelope.
func parseErrorResponse(resp *http.Response) error {
	var body errorResponse

	data, _ := io.ReadAll(resp.Body)

	if err := json.Unmarshal(data, &body); err == nil && (body.Detail != "" || body.Error != "") {
		msg := body.Detail
		if msg == "" {
			msg = body.Error
		}

		return classifyHTTPError(resp.StatusCode, fmt.Sprintf("%s (code: %s)", msg, body.ErrorCode))
	}

	return classifyHTTPError(resp.StatusCode, string(data))
}

// classifyHTTPError maps an HTTP status to the transient/definitive
// error taxonomy.
func classifyHTTPError(status int, detail string) error {
	msg := fmt.Sprintf("backend returned status %d: %s", status, detail)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusNotFound:
		return core.NewError(core.KindBackendDefinitive, msg, nil)
	case status >= 500:
		return core.NewError(core.KindBackendTransient, msg, nil)
	case status == http.StatusTooManyRequests:
		return core.NewError(core.KindBackendTransient, msg, nil)
	default:
		return core.NewError(core.KindBackendDefinitive, msg, nil)
	}
}

func wrapTransientErr(err error, msg string) error {
	if err == nil {
		return nil
	}

	if classifyCancellation(err) != nil {
		return classifyCancellation(err)
	}

	return core.NewError(core.KindBackendTransient, msg+": "+err.Error(), err)
}

func classifyCancellation(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return core.NewError(core.KindCancelled, "request cancelled", err)
	}

	return nil
}

func readAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}
