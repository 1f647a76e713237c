package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func serve(t *testing.T, h *Handler, path string) (*httptest.ResponseRecorder, result) {
	t.Helper()

	e := echo.New()
	h.Register(e)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var res result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return rec, res
}

func TestHealthz_AlwaysOK(t *testing.T) {
	t.Parallel()

	// Even with a failing checker, liveness stays green.
	h := New(Checker{
		Name:  "broken",
		Check: func(context.Context) error { return errors.New("down") },
	})

	rec, res := serve(t, h, "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if res.Status != "ok" {
		t.Errorf("body status = %q, want ok", res.Status)
	}
}

func TestReadyz_AllPass(t *testing.T) {
	t.Parallel()

	h := New(
		Checker{Name: "a", Check: func(context.Context) error { return nil }},
		Checker{Name: "b", Check: func(context.Context) error { return nil }},
	)

	rec, res := serve(t, h, "/readyz")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if res.Checks["a"] != "ok" || res.Checks["b"] != "ok" {
		t.Errorf("checks = %v", res.Checks)
	}
}

func TestReadyz_OneFails(t *testing.T) {
	t.Parallel()

	h := New(
		Checker{Name: "good", Check: func(context.Context) error { return nil }},
		Checker{Name: "bad", Check: func(context.Context) error { return errors.New("boom") }},
	)

	rec, res := serve(t, h, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if res.Status != "fail" {
		t.Errorf("body status = %q, want fail", res.Status)
	}
	if !strings.HasPrefix(res.Checks["bad"], "fail: ") {
		t.Errorf("bad check = %q, want fail prefix", res.Checks["bad"])
	}
	if res.Checks["good"] != "ok" {
		t.Errorf("good check = %q, want ok", res.Checks["good"])
	}
}

func TestCorpusLoaded(t *testing.T) {
	t.Parallel()

	loaded := false
	h := New(CorpusLoaded(func() bool { return loaded }))

	rec, _ := serve(t, h, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d before load, want 503", rec.Code)
	}

	loaded = true
	rec, _ = serve(t, h, "/readyz")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d after load, want 200", rec.Code)
	}
}

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(context.Context) error { return p.err }

func TestDatabase(t *testing.T) {
	t.Parallel()

	h := New(Database(&fakePinger{}))
	rec, _ := serve(t, h, "/readyz")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d with healthy db, want 200", rec.Code)
	}

	h = New(Database(&fakePinger{err: errors.New("connection refused")}))
	rec, res := serve(t, h, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d with failing db, want 503", rec.Code)
	}
	if !strings.Contains(res.Checks["database"], "connection refused") {
		t.Errorf("database check = %q", res.Checks["database"])
	}
}
