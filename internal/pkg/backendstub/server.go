// Package backendstub runs an in-process backend for client tests.
// It issues real HS256 tokens and records every call it receives.
package backendstub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/klwxsrx/edu-resource-client/internal/auth/session"
	"github.com/klwxsrx/edu-resource-client/internal/auth/token"
)

const (
	DefaultPassword = "secret"

	msgInvalidToken    = "Invalid or expired token"
	msgAccountDisabled = "Account is disabled"
)

type (
	Request struct {
		Method        string
		Path          string
		Authorization string
	}

	account struct {
		user     session.User
		password string
		disabled bool
	}

	envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message,omitempty"`
		Data    any    `json:"data,omitempty"`
	}

	Option func(*Server)
)

// WithTokenTTL sets the lifetime of tokens issued by login and refresh.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = ttl
	}
}

// WithLoginFailureStatus answers failed logins with code instead of 200.
func WithLoginFailureStatus(code int) Option {
	return func(s *Server) {
		s.loginFailureStatus = code
	}
}

func WithUser(user session.User) Option {
	return func(s *Server) {
		s.accounts[user.Username] = &account{user: user, password: DefaultPassword}
	}
}

type Server struct {
	*httptest.Server

	router             *mux.Router
	secret             []byte
	tokenTTL           time.Duration
	loginFailureStatus int

	mutex          sync.Mutex
	accounts       map[string]*account
	requests       []Request
	refreshGate    chan struct{}
	refreshRejects bool
	revoked        bool
	refreshCalls   atomic.Int32
}

func New(t testing.TB, opts ...Option) *Server {
	s := &Server{
		router:             mux.NewRouter(),
		secret:             []byte("backendstub-signing-key"),
		tokenTTL:           time.Hour,
		loginFailureStatus: http.StatusOK,
		accounts:           make(map[string]*account),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(s.recordRequest)
	s.router.HandleFunc("/user/login", s.login).Methods(http.MethodPost)
	s.router.HandleFunc("/user/refresh", s.refresh).Methods(http.MethodPost)
	s.router.Handle("/user/logout", s.authenticated(s.logout)).Methods(http.MethodPost)
	s.router.Handle("/user/profile", s.authenticated(s.profile)).Methods(http.MethodGet)
	s.router.Handle("/user/profile", s.authenticated(s.updateProfile)).Methods(http.MethodPut)
	s.router.HandleFunc("/status/{code:[0-9]+}", s.status)

	s.Server = httptest.NewServer(s.router)
	t.Cleanup(s.Close)
	return s
}

// Router allows tests to register extra endpoints.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Authenticated wraps handler with the token check used by the protected endpoints.
func (s *Server) Authenticated(handler func(w http.ResponseWriter, r *http.Request, user session.User)) http.Handler {
	return s.authenticated(handler)
}

func (s *Server) IssueToken(user session.User, ttl time.Duration) string {
	now := time.Now()
	payload := token.Payload{
		Username: user.Username,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(s.secret)
	if err != nil {
		panic(fmt.Errorf("sign token: %w", err))
	}
	return signed
}

// HoldRefresh makes refresh calls wait until the returned release func is called.
func (s *Server) HoldRefresh() (release func()) {
	gate := make(chan struct{})
	s.mutex.Lock()
	s.refreshGate = gate
	s.mutex.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// RejectRefresh makes refresh calls answer with an unsuccessful envelope.
func (s *Server) RejectRefresh() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.refreshRejects = true
}

// RevokeTokens makes protected endpoints reject every token issued so far.
func (s *Server) RevokeTokens() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.revoked = true
}

func (s *Server) DisableAccount(username string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if acc, ok := s.accounts[username]; ok {
		acc.disabled = true
	}
}

func (s *Server) RefreshCalls() int {
	return int(s.refreshCalls.Load())
}

func (s *Server) Requests(path string) []Request {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var result []Request
	for _, req := range s.requests {
		if req.Path == path {
			result = append(result, req)
		}
	}
	return result
}

func (s *Server) recordRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mutex.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
		})
		s.mutex.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusOK, envelope{Message: "Invalid request format"})
		return
	}

	s.mutex.Lock()
	acc, ok := s.accounts[in.Username]
	s.mutex.Unlock()

	switch {
	case !ok || acc.password != in.Password:
		writeJSON(w, s.loginFailureStatus, envelope{Message: "Invalid username or password"})
	case acc.disabled:
		writeJSON(w, s.loginFailureStatus, envelope{Message: "Account is disabled. Please contact admin."})
	default:
		writeJSON(w, http.StatusOK, envelope{
			Success: true,
			Message: "Login successful",
			Data: map[string]any{
				"user":  acc.user,
				"token": s.IssueToken(acc.user, s.tokenTTL),
			},
		})
	}
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	s.mutex.Lock()
	gate, rejects := s.refreshGate, s.refreshRejects
	s.mutex.Unlock()
	if gate != nil {
		<-gate
	}

	payload, err := s.verify(r)
	if err != nil || rejects {
		writeJSON(w, http.StatusOK, envelope{Message: msgInvalidToken})
		return
	}

	user := session.User{Username: payload.Username, Role: session.Role(payload.Role)}
	user.ID, _ = strconv.ParseInt(payload.Subject, 10, 64)
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Token refreshed",
		Data:    s.IssueToken(user, s.tokenTTL),
	})
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request, _ session.User) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Logout successful"})
}

func (s *Server) profile(w http.ResponseWriter, _ *http.Request, user session.User) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: user})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request, user session.User) {
	var in struct {
		Nickname *string `json:"nickname"`
		Phone    *string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Message: "Invalid request format"})
		return
	}

	s.mutex.Lock()
	acc := s.accounts[user.Username]
	if in.Nickname != nil {
		acc.user.Nickname = *in.Nickname
	}
	if in.Phone != nil {
		acc.user.Phone = *in.Phone
	}
	updated := acc.user
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Profile updated", Data: updated})
}

// status answers with the status code from the path and the message from the query.
func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	code, _ := strconv.Atoi(mux.Vars(r)["code"])
	writeJSON(w, code, envelope{Message: r.URL.Query().Get("message")})
}

func (s *Server) authenticated(handler func(w http.ResponseWriter, r *http.Request, user session.User)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, err := s.verify(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, envelope{Message: msgInvalidToken})
			return
		}

		s.mutex.Lock()
		acc, ok := s.accounts[payload.Username]
		revoked := s.revoked
		s.mutex.Unlock()
		if !ok || revoked {
			writeJSON(w, http.StatusUnauthorized, envelope{Message: msgInvalidToken})
			return
		}
		if acc.disabled {
			writeJSON(w, http.StatusForbidden, envelope{Message: msgAccountDisabled})
			return
		}

		handler(w, r, acc.user)
	})
}

func (s *Server) verify(r *http.Request) (*token.Payload, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return nil, errors.New("missing bearer token")
	}

	var payload token.Payload
	_, err := jwt.ParseWithClaims(raw, &payload, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	return &payload, nil
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
