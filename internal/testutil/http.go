package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// APIResponse mirrors the response envelope for decoding in tests
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details,omitempty"`
	} `json:"error,omitempty"`
}

// PerformRequest sends a request through the engine and returns the recorder.
// A non-nil body is encoded as JSON.
func PerformRequest(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// DecodeResponse decodes the envelope and, when target is non-nil, its data
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder, target any) APIResponse {
	t.Helper()

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to decode response: %s", w.Body.String())
	if target != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, target), "Failed to decode data")
	}
	return resp
}

// NewEngine returns a bare gin engine in test mode
func NewEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// StatusText is a convenience for assertion messages
func StatusText(w *httptest.ResponseRecorder) string {
	return http.StatusText(w.Code) + ": " + w.Body.String()
}
