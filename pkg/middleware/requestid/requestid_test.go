package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, incoming string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var seen string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if incoming != "" {
		req.Header.Set(Header, incoming)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, seen
}

func TestGeneratesIDWhenMissing(t *testing.T) {
	w, seen := serve(t, "")

	echoed := w.Header().Get(Header)
	require.NotEmpty(t, echoed)
	assert.Equal(t, echoed, seen)

	_, err := uuid.Parse(echoed)
	assert.NoError(t, err)
}

func TestKeepsIncomingID(t *testing.T) {
	w, seen := serve(t, "upstream-id-42")

	assert.Equal(t, "upstream-id-42", w.Header().Get(Header))
	assert.Equal(t, "upstream-id-42", seen)
}
