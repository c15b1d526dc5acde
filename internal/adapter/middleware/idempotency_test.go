package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	testReqID  = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testUserID = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func setupEcho(rdb *redis.Client, handler echo.HandlerFunc, mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(mw...)
	e.Use(Idempotency(rdb, 2*time.Minute))
	e.POST("/loans", handler)
	e.GET("/loans", handler)
	return e
}

func headers() map[string]string {
	return map[string]string{
		HeaderRequestID: testReqID,
		HeaderRequestAt: time.Now().UTC().Format(time.RFC3339),
		HeaderUserID:    testUserID,
	}
}

func doReq(e *echo.Echo, method, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/loans", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// counting handler: every real execution bumps *calls
func created(calls *int) echo.HandlerFunc {
	return func(c echo.Context) error {
		*calls++
		return c.JSON(http.StatusCreated, map[string]any{"loan": *calls})
	}
}

func Test_BypassOnGET_NoHeadersRequired(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	calls := 0
	e := setupEcho(rdb, created(&calls))
	if rec := doReq(e, http.MethodGet, "", nil); rec.Code != http.StatusCreated || calls != 1 {
		t.Fatalf("GET should pass through, got %d after %d calls", rec.Code, calls)
	}
}

func Test_HeaderValidation(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	calls := 0
	e := setupEcho(rdb, created(&calls))

	cases := []struct {
		name   string
		mutate func(h map[string]string)
	}{
		{"missing request id", func(h map[string]string) { delete(h, HeaderRequestID) }},
		{"invalid request id", func(h map[string]string) { h[HeaderRequestID] = "NOT-VALID" }},
		{"invalid request at", func(h map[string]string) { h[HeaderRequestAt] = "not-a-time" }},
		{"skewed request at", func(h map[string]string) {
			h[HeaderRequestAt] = time.Now().UTC().Add(-maxClockSkew - time.Minute).Format(time.RFC3339)
		}},
		{"missing user", func(h map[string]string) { delete(h, HeaderUserID) }},
		{"invalid user", func(h map[string]string) { h[HeaderUserID] = "not32hex" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := headers()
			tc.mutate(h)
			if rec := doReq(e, http.MethodPost, `{"amount":1}`, h); rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d body=%s", rec.Code, rec.Body.String())
			}
		})
	}
	if calls != 0 {
		t.Fatalf("handler ran %d times on rejected requests", calls)
	}
}

func Test_RepeatIsReplayed(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	calls := 0
	e := setupEcho(rdb, created(&calls))
	h := headers()

	first := doReq(e, http.MethodPost, `{"amount":"5000"}`, h)
	if first.Code != http.StatusCreated || first.Header().Get(HeaderReplayed) != "" {
		t.Fatalf("first => want fresh 201, got %d", first.Code)
	}
	second := doReq(e, http.MethodPost, `{"amount":"5000"}`, h)
	if second.Code != http.StatusCreated || second.Header().Get(HeaderReplayed) != "true" {
		t.Fatalf("repeat => want replayed 201, got %d (%q)", second.Code, second.Header().Get(HeaderReplayed))
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", first.Body.String(), second.Body.String())
	}
	if ct := second.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
		t.Fatalf("replay content type = %q", ct)
	}
}

func Test_ClientErrorsAreReplayedToo(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	calls := 0
	e := setupEcho(rdb, func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusConflict, map[string]string{"error": "installment already paid"})
	})
	h := headers()
	doReq(e, http.MethodPost, `{}`, h)
	if rec := doReq(e, http.MethodPost, `{}`, h); rec.Code != http.StatusConflict || calls != 1 {
		t.Fatalf("want stored 409 after one call, got %d after %d", rec.Code, calls)
	}
}

func Test_Conflict_When_InProgress(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	calls := 0
	e := setupEcho(rdb, created(&calls))

	body := `{"x":1}`
	st := replayStore{rdb: rdb, ttl: time.Minute}
	key := buildKey(http.MethodPost, "/loans", testUserID, testReqID)
	if ok, err := st.reserve(context.Background(), key, replay{Pending: true, BodySHA256: bodyHash([]byte(body))}); err != nil || !ok {
		t.Fatalf("seed pending: ok=%v err=%v", ok, err)
	}

	if rec := doReq(e, http.MethodPost, body, headers()); rec.Code != http.StatusConflict || calls != 0 {
		t.Fatalf("in-progress => want 409 without running handler, got %d (%d calls)", rec.Code, calls)
	}
}

func Test_Conflict_When_SameReqID_DifferentBody(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	calls := 0
	e := setupEcho(rdb, created(&calls))
	h := headers()

	doReq(e, http.MethodPost, `{"x":1}`, h)
	rec := doReq(e, http.MethodPost, `{"x":2}`, h)
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), "different body") {
		t.Fatalf("want 409 different body, got %d %s", rec.Code, rec.Body.String())
	}
}

func Test_KeysAreScopedToActor(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	calls := 0
	e := setupEcho(rdb, created(&calls), Authenticate())

	for _, uid := range []string{testUserID, strings.Repeat("c", 32)} {
		h := headers()
		h[HeaderUserID] = uid
		h[HeaderUserRole] = "borrower"
		if rec := doReq(e, http.MethodPost, `{}`, h); rec.Code != http.StatusCreated || rec.Header().Get(HeaderReplayed) != "" {
			t.Fatalf("user %s => want fresh 201, got %d", uid, rec.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("handler ran %d times, want 2", calls)
	}
}

func Test_BodyTooLarge(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	calls := 0
	e := setupEcho(rdb, created(&calls))
	big := `{"purpose":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	if rec := doReq(e, http.MethodPost, big, headers()); rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("want 413, got %d", rec.Code)
	}
}

func Test_StoreUnavailable_Returns503(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = rdb.Close() })
	calls := 0
	e := setupEcho(rdb, created(&calls))

	if rec := doReq(e, http.MethodPost, `{}`, headers()); rec.Code != http.StatusServiceUnavailable || calls != 0 {
		t.Fatalf("store down => want 503 without running handler, got %d", rec.Code)
	}
}

func Test_ServerError_IsNotStored(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	calls := 0
	e := setupEcho(rdb, func(c echo.Context) error {
		calls++
		if calls == 1 {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "storage unavailable"})
		}
		return c.JSON(http.StatusCreated, map[string]any{"ok": true})
	})
	h := headers()

	if rec := doReq(e, http.MethodPost, `{}`, h); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("first => want 503, got %d", rec.Code)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("5xx left keys behind: %v", keys)
	}
	rec := doReq(e, http.MethodPost, `{}`, h)
	if rec.Code != http.StatusCreated || calls != 2 {
		t.Fatalf("retry => want 201 after 2 calls, got %d after %d", rec.Code, calls)
	}
}

func Test_BodyIsRestoredForHandler(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	var seen string
	e := setupEcho(rdb, func(c echo.Context) error {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(c.Request().Body)
		seen = buf.String()
		return c.NoContent(http.StatusNoContent)
	})
	doReq(e, http.MethodPost, `{"amount":42}`, headers())
	if seen != `{"amount":42}` {
		t.Fatalf("handler saw %q", seen)
	}
}
