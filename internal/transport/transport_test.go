package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taskboard/internal/service"
	"taskboard/internal/session"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *session.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sess := session.NewMemory()
	c, err := New(srv.URL, sess)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c, sess
}

func TestDo_AttachesBearerWhenSessionExists(t *testing.T) {
	var gotAuth, gotRequestID string
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get(RequestIDHeader)
		w.Write([]byte(`[]`))
	})
	_ = sess.Set("T1")

	var out []service.Project
	if err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/projects"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer T1" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Error("expected a request id header")
	}
}

func TestDo_NoSessionDispatchesUnauthenticated(t *testing.T) {
	var gotAuth string
	called := false
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	})

	if err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/projects"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("expected request to be dispatched")
	}
	if gotAuth != "" {
		t.Errorf("expected no authorization header, got %q", gotAuth)
	}
}

func TestDo_AnonymousSkipsBearer(t *testing.T) {
	var gotAuth string
	var gotBody service.Credentials
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"access_token":"T2"}`))
	})
	_ = sess.Set("T1")

	var out struct {
		AccessToken string `json:"access_token"`
	}
	req := Request{
		Method:    http.MethodPost,
		Path:      "/users/login",
		Body:      service.Credentials{Name: "alice", Password: "secret"},
		Anonymous: true,
	}
	if err := c.Do(context.Background(), req, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("expected no authorization header, got %q", gotAuth)
	}
	if gotBody.Name != "alice" || gotBody.Password != "secret" {
		t.Errorf("unexpected body %+v", gotBody)
	}
	if out.AccessToken != "T2" {
		t.Errorf("expected T2, got %q", out.AccessToken)
	}
}

func TestDo_UnauthorizedClearsSession(t *testing.T) {
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Token expired"}`))
	})
	_ = sess.Set("T1")

	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/projects"}, nil)
	if !service.IsKind(err, service.Unauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
	if err.Error() != "Token expired" {
		t.Errorf("expected server message, got %q", err.Error())
	}
	if _, ok := sess.Token(); ok {
		t.Error("expected session to be cleared")
	}
}

func TestDo_RemoteRejectedUsesServerMessage(t *testing.T) {
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Project name taken"}`))
	})
	_ = sess.Set("T1")

	err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/projects", Body: map[string]string{}}, nil)
	if !service.IsKind(err, service.RemoteRejected) {
		t.Fatalf("expected RemoteRejected, got %v", err)
	}
	if err.Error() != "Project name taken" {
		t.Errorf("expected server message, got %q", err.Error())
	}
	var f *service.Failure
	if !asFailure(err, &f) || f.Status != http.StatusBadRequest {
		t.Errorf("expected status 400 on failure, got %+v", f)
	}
	if _, ok := sess.Token(); !ok {
		t.Error("non-401 failures must not clear the session")
	}
}

func TestDo_RemoteRejectedDetailFallback(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Project not found"}`))
	})

	err := c.Do(context.Background(), Request{Method: http.MethodDelete, Path: "/projects/9"}, nil)
	if err == nil || err.Error() != "Project not found" {
		t.Errorf("expected detail message, got %v", err)
	}
}

func TestDo_RemoteRejectedGenericMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`oops`))
	})

	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/projects"}, nil)
	if !service.IsKind(err, service.RemoteRejected) {
		t.Fatalf("expected RemoteRejected, got %v", err)
	}
	if err.Error() != "HTTP error: status 500" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestDo_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, session.NewMemory())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	err = c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/projects"}, nil)
	if !service.IsKind(err, service.Unreachable) {
		t.Fatalf("expected Unreachable, got %v", err)
	}
}

func TestDo_EnvelopeUnwrap(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"wrapped", `{"user":{"id":3,"name":"alice"}}`},
		{"bare", `{"id":3,"name":"alice"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			var u service.User
			if err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/users/3", Envelope: "user"}, &u); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.ID != 3 || u.Name != "alice" {
				t.Errorf("unexpected user %+v", u)
			}
		})
	}
}

func TestDo_MalformedResponse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":`))
	})

	var p service.Project
	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/projects/1"}, &p)
	if !service.IsKind(err, service.RemoteRejected) {
		t.Fatalf("expected RemoteRejected, got %v", err)
	}
}

func TestDo_LogPathKeepsCredentialOutOfLogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":`))
	}))
	t.Cleanup(srv.Close)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c, err := New(srv.URL, session.NewMemory(), WithLogger(logger))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	var out map[string]any
	err = c.Do(context.Background(), Request{
		Method:  http.MethodGet,
		Path:    "/users/decode-token/SECRET-abc",
		LogPath: "/users/decode-token/<redacted>",
	}, &out)
	if err == nil {
		t.Fatal("expected malformed response error")
	}
	if strings.Contains(err.Error(), "SECRET-abc") {
		t.Errorf("error message leaks credential: %v", err)
	}
	if strings.Contains(logs.String(), "SECRET-abc") {
		t.Errorf("debug log leaks credential:\n%s", logs.String())
	}
	if !strings.Contains(logs.String(), "path=/users/decode-token/<redacted>") {
		t.Errorf("expected redacted path in log, got:\n%s", logs.String())
	}
}

func TestNew_InvalidURL(t *testing.T) {
	if _, err := New("not a url", session.NewMemory()); err == nil {
		t.Error("expected error for invalid url")
	}
	if _, err := New("http://localhost:8000", nil); err == nil {
		t.Error("expected error for nil session")
	}
}

func asFailure(err error, target **service.Failure) bool {
	f, ok := err.(*service.Failure)
	if ok {
		*target = f
	}
	return ok
}
