package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// cachedFeed is one memoized response. Feed generation costs several
// upstream round trips per request, so calendar clients polling the same
// subscription URL replay this instead.
type cachedFeed struct {
	status      int
	contentType string
	body        []byte
}

type feedCaptureWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *feedCaptureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *feedCaptureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache memoizes successful GET responses for the given TTL, keyed by the
// full request URI (account id, mode and query parameters included).
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if hit, found := store.Get(key); found {
			feed := hit.(cachedFeed)
			c.Header("X-Feed-Cache", "HIT")
			c.Data(feed.status, feed.contentType, feed.body)
			c.Abort()
			return
		}

		capture := &feedCaptureWriter{ResponseWriter: c.Writer, buf: bytes.NewBuffer(nil)}
		c.Writer = capture

		c.Next()

		// Failed generations are never cached; the next poll retries.
		if capture.Status() >= 200 && capture.Status() < 300 {
			store.Set(key, cachedFeed{
				status:      capture.Status(),
				contentType: capture.Header().Get("Content-Type"),
				body:        capture.buf.Bytes(),
			}, ttl)
		}
	}
}
