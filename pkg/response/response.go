package response

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/SadmanHussainChowdhury/community-complaint-api/pkg/errors"
)

// Meta carries auxiliary response data such as counts or health checks.
type Meta map[string]any

// Envelope is the body of every JSON response: data on success, error otherwise.
type Envelope struct {
	Data  any              `json:"data,omitempty"`
	Error *appErrors.Error `json:"error,omitempty"`
	Meta  Meta             `json:"meta,omitempty"`
}

// Complaint state changes with every mutation, so nothing is cacheable.
func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
}

// JSON sends a success envelope.
func JSON(c *gin.Context, status int, data any, meta Meta) {
	noStore(c)
	c.JSON(status, Envelope{Data: data, Meta: meta})
}

// Versioned sends data tagged with its version as a strong ETag so clients can
// echo it back in If-Match.
func Versioned(c *gin.Context, status int, data any, version int64) {
	c.Header("ETag", ETag(version))
	JSON(c, status, data, nil)
}

// List sends a collection with its size in meta.count.
func List[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	JSON(c, http.StatusOK, items, Meta{"count": len(items)})
}

// ETag renders a version as a quoted entity tag.
func ETag(version int64) string {
	return strconv.Quote(strconv.FormatInt(version, 10))
}

// Error sends the error envelope. Server-side failures are attached to the gin
// context so the access log records the cause.
func Error(c *gin.Context, err error) {
	ErrorWithMeta(c, err, nil)
}

// ErrorWithMeta is Error with auxiliary data, e.g. which readiness check failed.
func ErrorWithMeta(c *gin.Context, err error, meta Meta) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	if appErr.Retryable() {
		if meta == nil {
			meta = Meta{}
		}
		meta["retryable"] = true
	}
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr, Meta: meta})
}
