package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/moto-auction/internal/config"
)

// maxCachedBody caps the size of a response the cache will store. Auction
// views are small JSON documents; anything bigger is not worth caching.
const maxCachedBody = 64 << 10

// captureWriter tees the response body into a buffer while forwarding it
// to the client, so a miss can populate the cache after the handler runs.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.buf.Len() < maxCachedBody {
		cw.buf.Write(b)
	}
	return cw.ResponseWriter.Write(b)
}

// NewViewCache returns a Redis read-through cache for the auction view
// routes. Views are visibility-filtered per viewer, so the key includes
// the authenticated user: a cached entry is only ever replayed to the
// viewer it was rendered for. Only successful GET responses are stored,
// and the short TTL keeps the highest-bid figure close to live.
//
// Like the rate limiter, the cache fails open: if Redis is down every
// request falls through to the store.
func NewViewCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}

			ctx := c.Request().Context()
			key := viewKey(cfg.Prefix, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, body, ok := decodeView(bs); ok {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.JSONBlob(status, body)
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if cw.status == http.StatusOK && cw.buf.Len() <= maxCachedBody {
				// The request context may already be done; the write should
				// still land so the next poll hits.
				_ = rdb.SetEx(context.Background(), key, encodeView(cw.status, cw.buf.Bytes()), cfg.TTL).Err()
			}
			return nil
		}
	}
}

// viewKey hashes the route and query under the viewer's identity. Hashing
// keeps key length bounded regardless of query strings.
func viewKey(prefix string, c echo.Context) string {
	viewer := "anon"
	if uid := c.Get("user_id"); uid != nil {
		viewer = fmt.Sprintf("u%v", uid)
	}
	r := c.Request()
	sum := sha1.Sum([]byte(r.URL.Path + "?" + r.URL.RawQuery))
	return fmt.Sprintf("%s:%s:%x", prefix, viewer, sum[:])
}

// encodeView packs [4 bytes status][body].
func encodeView(status int, body []byte) []byte {
	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	copy(out[4:], body)
	return out
}

func decodeView(bs []byte) (status int, body []byte, ok bool) {
	if len(bs) < 4 {
		return 0, nil, false
	}
	return int(binary.BigEndian.Uint32(bs[0:4])), bs[4:], true
}
