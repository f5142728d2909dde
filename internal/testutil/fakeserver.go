package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskboard/internal/service"
)

// Claims is the payload of the tokens FakeServer issues.
type Claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// FakeServer serves the task-tracking REST contract from memory.
// Backed by a FakeService; access tokens are HS256 JWTs.
type FakeServer struct {
	*httptest.Server

	Service *FakeService

	mu       sync.Mutex
	key      []byte
	revoked  bool
	requests []RecordedRequest
}

// RecordedRequest is one request seen by FakeServer.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
}

// NewFakeServer starts a FakeServer that is closed when the test ends.
func NewFakeServer(t *testing.T) *FakeServer {
	t.Helper()
	fs := &FakeServer{
		Service: NewFakeService(),
		key:     []byte("fake-server-signing-key"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /users/register", fs.handleAuth(true))
	mux.HandleFunc("POST /users/login", fs.handleAuth(false))
	mux.HandleFunc("GET /users", fs.requireAuth(fs.handleListUsers))
	mux.HandleFunc("GET /users/{id}", fs.requireAuth(fs.handleGetUser))
	mux.HandleFunc("GET /users/decode-token/{token}", fs.handleDecodeToken)
	mux.HandleFunc("GET /projects", fs.requireAuth(fs.handleListProjects))
	mux.HandleFunc("POST /projects", fs.requireAuth(fs.handleCreateProject))
	mux.HandleFunc("DELETE /projects/{id}", fs.requireAuth(fs.handleDeleteProject))
	mux.HandleFunc("POST /projects/{id}/tasks/{status}", fs.requireAuth(fs.handleCreateTask))
	mux.HandleFunc("POST /projects/{id}/tasks/move/{taskId}/{from}/{to}", fs.requireAuth(fs.handleMoveTask))

	fs.Server = httptest.NewServer(fs.record(mux))
	t.Cleanup(fs.Close)
	return fs
}

// IssueToken signs a token for a user id.
func (fs *FakeServer) IssueToken(userID int) string {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(fs.key)
	if err != nil {
		panic(err)
	}
	return signed
}

// RevokeAll makes every protected route answer 401 from now on.
func (fs *FakeServer) RevokeAll() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.revoked = true
}

// Requests returns the requests received so far.
func (fs *FakeServer) Requests() []RecordedRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]RecordedRequest(nil), fs.requests...)
}

// CountRequests counts received requests matching method and path prefix.
func (fs *FakeServer) CountRequests(method, pathPrefix string) int {
	n := 0
	for _, r := range fs.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

func (fs *FakeServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.requests = append(fs.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
		})
		fs.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (fs *FakeServer) parseToken(raw string) (int, bool) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return fs.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return 0, false
	}
	return claims.UserID, true
}

func (fs *FakeServer) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		revoked := fs.revoked
		fs.mu.Unlock()

		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if revoked || !ok {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if _, valid := fs.parseToken(raw); !valid {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next(w, r)
	}
}

func (fs *FakeServer) handleAuth(register bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds service.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid body")
			return
		}
		var (
			token string
			err   error
		)
		if register {
			token, err = fs.Service.Register(r.Context(), creds)
		} else {
			token, err = fs.Service.Login(r.Context(), creds)
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		id, _ := fs.Service.DecodeToken(r.Context(), token)
		writeJSON(w, http.StatusOK, map[string]string{"access_token": fs.IssueToken(id)})
	}
}

func (fs *FakeServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := fs.Service.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (fs *FakeServer) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	user, err := fs.Service.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (fs *FakeServer) handleDecodeToken(w http.ResponseWriter, r *http.Request) {
	id, ok := fs.parseToken(r.PathValue("token"))
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	writeJSON(w, http.StatusOK, id)
}

func (fs *FakeServer) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := fs.Service.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (fs *FakeServer) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var draft service.Project
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	if strings.TrimSpace(draft.Name) == "" {
		writeError(w, http.StatusBadRequest, "Project name is required")
		return
	}
	created, err := fs.Service.CreateProject(r.Context(), draft)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (fs *FakeServer) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project id")
		return
	}
	if err := fs.Service.DeleteProject(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Project deleted"})
}

func (fs *FakeServer) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project id")
		return
	}
	status := service.Status(r.PathValue("status"))
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	var task service.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	created, err := fs.Service.CreateTask(r.Context(), id, task, status)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (fs *FakeServer) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project id")
		return
	}
	from := service.Status(r.PathValue("from"))
	to := service.Status(r.PathValue("to"))
	if !from.Valid() || !to.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	if err := fs.Service.MoveTask(r.Context(), id, r.PathValue("taskId"), from, to); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task moved"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
