package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	HeaderRequestID = "X-Request-Id"
	HeaderRequestAt = "X-Request-At"
	// set on responses served from the store
	HeaderReplayed = "Idempotent-Replayed"

	// a pending key outlives any sane handler; it is replaced on completion
	pendingTTL   = 60 * time.Second
	maxClockSkew = 10 * time.Minute
	maxBodyBytes = 1 << 20
)

type respRecorder struct {
	http.ResponseWriter
	buf  bytes.Buffer
	code int
}

func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *respRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func abort(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// Idempotency makes loan writes safe to retry. A mutating request must carry
// X-Request-Id and a fresh X-Request-At; a repeat with the same id, actor and
// route gets the first response back instead of paying or funding twice.
// 5xx responses are not kept.
func Idempotency(rdb *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	st := replayStore{rdb: rdb, ttl: ttl}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID := strings.TrimSpace(req.Header.Get(HeaderRequestID))
			switch {
			case reqID == "":
				return abort(c, http.StatusBadRequest, "missing "+HeaderRequestID)
			case !validReqID(reqID):
				return abort(c, http.StatusBadRequest, "invalid "+HeaderRequestID+" format")
			}
			reqAt, err := parseRequestAt(req.Header.Get(HeaderRequestAt))
			if err != nil {
				return abort(c, http.StatusBadRequest, err.Error())
			}
			if !withinSkew(reqAt) {
				return abort(c, http.StatusBadRequest, HeaderRequestAt+" too skewed")
			}

			// Authenticate normally ran first; standalone use falls back to the header.
			userID := ""
			if a, ok := ActorFrom(c); ok {
				userID = a.UserID
			} else {
				userID = strings.TrimSpace(req.Header.Get(HeaderUserID))
				if !reHex32.MatchString(userID) {
					return abort(c, http.StatusBadRequest, "missing or invalid "+HeaderUserID)
				}
			}

			var body []byte
			if req.Body != nil {
				body, err = io.ReadAll(io.LimitReader(req.Body, maxBodyBytes+1))
				if err != nil {
					return abort(c, http.StatusBadRequest, "unreadable body")
				}
				if len(body) > maxBodyBytes {
					return abort(c, http.StatusRequestEntityTooLarge, "body too large")
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			hash := bodyHash(body)

			key := buildKey(req.Method, c.Path(), userID, reqID)
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			claimed, err := st.reserve(ctx, key, replay{Pending: true, BodySHA256: hash, RequestAt: reqAt, StoredAt: nowUTC()})
			if err != nil {
				log.Printf("idempotency: reserve %s: %v", key, err)
				return abort(c, http.StatusServiceUnavailable, "idempotency store unavailable")
			}
			if !claimed {
				prev, found, err := st.load(ctx, key)
				switch {
				case err != nil:
					log.Printf("idempotency: load %s: %v", key, err)
					return abort(c, http.StatusServiceUnavailable, "idempotency store unavailable")
				case !found, prev.Pending:
					return abort(c, http.StatusConflict, "request is already in progress")
				case prev.BodySHA256 != hash:
					return abort(c, http.StatusConflict, HeaderRequestID+" reused with different body")
				}
				c.Response().Header().Set(HeaderReplayed, "true")
				ct := prev.ContentType
				if ct == "" {
					ct = echo.MIMEApplicationJSON
				}
				return c.Blob(prev.Status, ct, prev.Body)
			}

			rec := &respRecorder{ResponseWriter: c.Response().Writer, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the request context may already be gone; bookkeeping still has to land
			bg, cancelBg := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancelBg()
			if rec.code >= http.StatusInternalServerError {
				if err := st.release(bg, key); err != nil {
					log.Printf("idempotency: release %s: %v", key, err)
				}
				return nil
			}
			done := replay{
				Status:      rec.code,
				ContentType: rec.Header().Get(echo.HeaderContentType),
				Body:        rec.buf.Bytes(),
				BodySHA256:  hash,
				RequestAt:   reqAt,
				StoredAt:    nowUTC(),
			}
			if err := st.commit(bg, key, done); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("idempotency: commit %s: %v", key, err)
			}
			return nil
		}
	}
}
