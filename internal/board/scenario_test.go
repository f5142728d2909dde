package board_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"taskboard/internal/backend/taskapi"
	"taskboard/internal/board"
	"taskboard/internal/identity"
	"taskboard/internal/service"
	"taskboard/internal/session"
	"taskboard/internal/testutil"
	"taskboard/internal/transport"
)

type stack struct {
	sess  *session.Store
	api   *taskapi.Client
	auth  *identity.Authenticator
	board *board.Controller
}

func newStack(t *testing.T, baseURL string) stack {
	t.Helper()
	sess := session.NewMemory()
	tc, err := transport.New(baseURL, sess)
	if err != nil {
		t.Fatalf("transport.New: %v", err)
	}
	api := taskapi.New(tc)
	return stack{
		sess:  sess,
		api:   api,
		auth:  identity.NewAuthenticator(sess, api),
		board: board.NewController(api, identity.NewResolver(sess, api)),
	}
}

func TestScenario_LoginCreateThenExpiredSession(t *testing.T) {
	var (
		mu          sync.Mutex
		createAuth  string
		createBody  map[string]any
		listExpired bool
	)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /users/login", func(w http.ResponseWriter, r *http.Request) {
		var creds service.Credentials
		json.NewDecoder(r.Body).Decode(&creds)
		if creds.Name != "alice" || creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "T1"})
	})
	mux.HandleFunc("POST /projects", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		createAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&createBody)
		json.NewEncoder(w).Encode(map[string]any{
			"id": 7, "name": "Website", "description": "d", "owner": "alice",
			"todoList": []any{}, "inProgressList": []any{}, "doneList": []any{},
		})
	})
	mux.HandleFunc("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		expired := listExpired
		mu.Unlock()
		if expired {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Token expired"})
			return
		}
		w.Write([]byte("[]"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newStack(t, srv.URL)
	ctx := context.Background()

	if err := s.auth.Login(ctx, "alice", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok, ok := s.sess.Token(); !ok || tok != "T1" {
		t.Fatalf("expected stored token T1, got %q", tok)
	}

	p, err := s.board.AddProject(ctx, service.Project{Name: "Website", Description: "d", Owner: "alice"})
	if err != nil {
		t.Fatalf("add project: %v", err)
	}
	mu.Lock()
	gotAuth := createAuth
	_, sentID := createBody["id"]
	mu.Unlock()
	if gotAuth != "Bearer T1" {
		t.Errorf("expected Bearer T1, got %q", gotAuth)
	}
	if sentID {
		t.Error("draft should not carry an id")
	}
	if p.ProjectID() != 7 {
		t.Errorf("expected id 7, got %d", p.ProjectID())
	}
	if _, ok := s.board.Project(7); !ok {
		t.Fatal("expected project 7 in local collection")
	}

	mu.Lock()
	listExpired = true
	mu.Unlock()

	err = s.board.LoadProjects(ctx)
	if !service.IsKind(err, service.Unauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
	if _, ok := s.sess.Token(); ok {
		t.Fatal("expected session cleared after 401")
	}

	err = s.board.RemoveProject(ctx, 7)
	if !service.IsKind(err, service.NoSession) {
		t.Fatalf("expected NoSession, got %v", err)
	}
}

func TestScenario_FakeServerRoundTrip(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	s := newStack(t, fs.URL)
	ctx := context.Background()

	if err := s.auth.Register(ctx, "alice", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.board.LoadProjects(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	p, err := s.board.AddProject(ctx, service.Project{Name: "Website", Description: "d", Owner: "alice"})
	if err != nil {
		t.Fatalf("add project: %v", err)
	}
	id := p.ProjectID()

	task, err := s.board.CreateTask(ctx, id, service.Task{Name: "Design", AssignedTo: []string{"bob"}, Description: "mockups"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := s.board.MoveTask(ctx, id, task.ID, service.StatusTodo, service.StatusInProgress); err != nil {
		t.Fatalf("move task: %v", err)
	}

	local, _ := s.board.Project(id)
	if err := s.board.LoadProjects(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	remote, _ := s.board.Project(id)
	if len(remote.InProgressList) != 1 || remote.InProgressList[0].ID != task.ID {
		t.Errorf("expected task in progress on server, got %+v", remote)
	}
	if len(local.InProgressList) != len(remote.InProgressList) {
		t.Errorf("local and server boards differ: %+v vs %+v", local, remote)
	}

	if err := s.board.RemoveProject(ctx, id); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if n := fs.CountRequests(http.MethodDelete, "/projects/"); n != 1 {
		t.Errorf("expected 1 delete request, got %d", n)
	}
}

func TestScenario_NonOwnerNeverSendsDelete(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	id := fs.Service.AddProject("Website", "d", "alice")
	s := newStack(t, fs.URL)
	ctx := context.Background()

	if err := s.auth.Register(ctx, "mallory", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.board.LoadProjects(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := s.board.RemoveProject(ctx, id); !service.IsKind(err, service.Forbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if n := fs.CountRequests(http.MethodDelete, "/projects/"); n != 0 {
		t.Errorf("expected no delete request, got %d", n)
	}
}
