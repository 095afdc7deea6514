package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method, route string
	status        int
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (r *recordingObserver) ObserveHTTPRequest(method, route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, observation{method, route, status})
}

func TestHTTPMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}

	router := gin.New()
	router.Use(HTTPMetrics(observer))
	router.DELETE("/invoices/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for _, path := range []string{"/invoices/a", "/invoices/b", "/nope"} {
		req := httptest.NewRequest(http.MethodDelete, path, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Len(t, observer.seen, 3)
	assert.Equal(t, observation{"DELETE", "/invoices/:id", http.StatusNoContent}, observer.seen[0])
	assert.Equal(t, "/invoices/:id", observer.seen[1].route, "raw IDs never become labels")
	assert.Equal(t, observation{"DELETE", unmatchedRoute, http.StatusNotFound}, observer.seen[2])
}

func TestHTTPMetrics_NilObserver(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(HTTPMetrics(nil))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
