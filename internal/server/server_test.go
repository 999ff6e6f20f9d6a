package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
	"github.com/Dgouveia1/mulheres-fitness-app/internal/shared"
	"github.com/charmbracelet/log"
)

type exchanger struct {
	codes map[string]*models.Session
	calls int
}

func (e *exchanger) ExchangeCode(_ context.Context, code string) (*models.Session, error) {
	e.calls++
	if s, ok := e.codes[code]; ok {
		return s, nil
	}
	return nil, errors.New("invalid grant")
}

func newExchanger() *exchanger {
	return &exchanger{codes: map[string]*models.Session{
		"good": {User: &models.User{ID: "u1", Email: "ana@example.com"}},
	}}
}

func TestCallbackHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h := NewCallbackHandler(newExchanger(), "xyz")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=xyz&code=good", nil))

		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Welcome") {
			t.Errorf("unexpected response %d: %s", rec.Code, rec.Body.String())
		}
		res := <-h.Result()
		if res.Error() != nil || res.Session.User.ID != "u1" {
			t.Errorf("unexpected result %+v", res)
		}
		if _, open := <-h.Result(); open {
			t.Error("expected channel closed after one result")
		}
	})

	t.Run("Rejects", func(t *testing.T) {
		tc := []struct {
			name   string
			state  string
			query  string
			status int
		}{
			{"bad state", "xyz", "?state=nope&code=good", http.StatusBadRequest},
			{"provider error", "", "?error=access_denied&error_description=denied", http.StatusBadRequest},
			{"exchange fails", "", "?code=bad", http.StatusInternalServerError},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				h := NewCallbackHandler(newExchanger(), tt.state)
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil))

				if rec.Code != tt.status {
					t.Errorf("expected %d, got %d", tt.status, rec.Code)
				}
				if res := <-h.Result(); res.Error() == nil {
					t.Error("expected error result")
				}
			})
		}
	})

	t.Run("Provider error is an auth failure", func(t *testing.T) {
		h := NewCallbackHandler(newExchanger(), "")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?error=access_denied", nil))
		if res := <-h.Result(); !errors.Is(res.Error(), shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", res.Error())
		}
	})

	t.Run("Single use", func(t *testing.T) {
		ex := newExchanger()
		h := NewCallbackHandler(ex, "")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=good", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=good", nil))
		if rec.Code != http.StatusBadRequest || ex.calls != 1 {
			t.Errorf("expected replay rejected, got %d after %d exchanges", rec.Code, ex.calls)
		}
	})
}

func TestRouter(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := NewBasicRouter()
	r.Use(mw("outer"), mw("inner"))
	r.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "pong")
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Body.String() != "pong" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("unexpected middleware order %v", order)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)

	h := Recover(logger)(Logging(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "handler panicked") {
		t.Errorf("expected panic logged, got %q", buf.String())
	}
}

func TestListener(t *testing.T) {
	t.Run("Completes", func(t *testing.T) {
		h := NewCallbackHandler(newExchanger(), "s1")
		l, err := Listen("127.0.0.1:0", h, nil)
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		if !strings.HasSuffix(l.CallbackURL(), "/callback?state=s1") {
			t.Errorf("unexpected callback url %s", l.CallbackURL())
		}

		go func() {
			resp, err := http.Get(l.CallbackURL() + "&code=good")
			if err == nil {
				resp.Body.Close()
			}
		}()

		session, err := l.Wait(context.Background(), 5*time.Second)
		if err != nil || session == nil || session.User.Email != "ana@example.com" {
			t.Errorf("expected session, got %v (%v)", session, err)
		}
	})

	t.Run("Times out", func(t *testing.T) {
		l, err := Listen("127.0.0.1:0", NewCallbackHandler(newExchanger(), ""), nil)
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		if _, err := l.Wait(context.Background(), 20*time.Millisecond); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})
}
