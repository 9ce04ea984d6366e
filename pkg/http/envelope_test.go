package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkghttp "github.com/klwxsrx/edu-resource-client/pkg/http"
)

type profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func TestCall_Returns(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		expect func(t *testing.T, p profile, err error)
	}{
		{
			name: "envelope_payload",
			body: `{"success":true,"message":"ok","data":{"id":7,"username":"alice"}}`,
			expect: func(t *testing.T, p profile, err error) {
				require.NoError(t, err)
				assert.Equal(t, profile{ID: 7, Username: "alice"}, p)
			},
		},
		{
			name: "raw_payload",
			body: `{"id":8,"username":"bob"}`,
			expect: func(t *testing.T, p profile, err error) {
				require.NoError(t, err)
				assert.Equal(t, profile{ID: 8, Username: "bob"}, p)
			},
		},
		{
			name: "rejected_envelope",
			body: `{"success":false,"message":"Invalid username or password"}`,
			expect: func(t *testing.T, _ profile, err error) {
				require.ErrorIs(t, err, pkghttp.ErrRejected)
				assert.Contains(t, err.Error(), "Invalid username or password")
			},
		},
		{
			name: "empty_body",
			body: "",
			expect: func(t *testing.T, p profile, err error) {
				require.NoError(t, err)
				assert.Zero(t, p)
			},
		},
		{
			name: "invalid_payload",
			body: `not json`,
			expect: func(t *testing.T, _ profile, err error) {
				assert.ErrorIs(t, err, pkghttp.ErrInvalidResponse)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := pkghttp.NewClient(pkghttp.WithClientDestination("test", srv.URL))
			p, err := pkghttp.Call[profile](client.NewRequest(context.Background()), pkghttp.Route{Method: http.MethodGet, URL: "/user/profile"})
			tc.expect(t, p, err)
		})
	}
}

func TestExec_FailsOnStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := pkghttp.NewClient(
		pkghttp.WithClientDestination("test", srv.URL),
		pkghttp.WithStatusErrors(),
	)

	err := pkghttp.Exec(
		client.NewRequest(context.Background()).SetPathParam("id", "3"),
		pkghttp.Route{Method: http.MethodDelete, URL: "/follow/{id}"},
	)
	assert.ErrorIs(t, err, pkghttp.ErrNotFound)
	assert.ErrorContains(t, err, "DELETE /follow/{id}")
}
