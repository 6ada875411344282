package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, incoming string) (ginID, ctxID, header string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		ginID = Value(c)
		ctxID = FromContext(c.Request.Context())
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if incoming != "" {
		req.Header.Set(Header, incoming)
	}
	r.ServeHTTP(w, req)
	return ginID, ctxID, w.Header().Get(Header)
}

func TestMiddlewareKeepsIncomingID(t *testing.T) {
	ginID, ctxID, header := serve(t, "abc-123")

	assert.Equal(t, "abc-123", ginID)
	assert.Equal(t, "abc-123", ctxID)
	assert.Equal(t, "abc-123", header)
}

func TestMiddlewareReplacesMalformedID(t *testing.T) {
	for name, incoming := range map[string]string{
		"missing":   "",
		"oversized": strings.Repeat("x", 200),
		"spaces":    "abc 123",
		"control":   "abc\x01",
	} {
		t.Run(name, func(t *testing.T) {
			ginID, ctxID, header := serve(t, incoming)
			_, err := uuid.Parse(header)
			require.NoError(t, err)
			assert.Equal(t, header, ginID)
			assert.Equal(t, header, ctxID)
		})
	}
}

func TestFromContextWithoutID(t *testing.T) {
	assert.Empty(t, FromContext(context.Background()))
	assert.Equal(t, "r-1", FromContext(NewContext(context.Background(), "r-1")))
}
