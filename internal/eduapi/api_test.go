package eduapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/klwxsrx/edu-resource-client/internal/auth/session"
	"github.com/klwxsrx/edu-resource-client/internal/eduapi"
	eduapimock "github.com/klwxsrx/edu-resource-client/internal/eduapi/mock"
	pkghttp "github.com/klwxsrx/edu-resource-client/pkg/http"
	"github.com/klwxsrx/edu-resource-client/pkg/log"
)

type recordedCall struct {
	method string
	path   string
	query  url.Values
	body   map[string]any
}

func newRecordingAPI(t *testing.T, response string) (*eduapi.API, *recordedCall) {
	t.Helper()

	call := &recordedCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call.method, call.path, call.query = r.Method, r.URL.Path, r.URL.Query()
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &call.body)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	client := pkghttp.NewClient(pkghttp.WithClientDestination("edu-resource", srv.URL), pkghttp.WithStatusErrors())
	return eduapi.New(client, eduapimock.NewSessionStore(gomock.NewController(t)), log.NewStub()), call
}

func TestAPI_SendsRequests(t *testing.T) {
	const ok = `{"success":true,"message":"ok"}`
	tests := []struct {
		name     string
		response string
		call     func(ctx context.Context, api *eduapi.API) (any, error)
		method   string
		path     string
		query    url.Values
		body     map[string]any
		result   any
	}{
		{
			name:     "follow",
			response: ok,
			call:     func(ctx context.Context, api *eduapi.API) (any, error) { return nil, api.Follow.Follow(ctx, 7) },
			method:   http.MethodPost,
			path:     "/follow/7",
		},
		{
			name:     "unfollow",
			response: ok,
			call:     func(ctx context.Context, api *eduapi.API) (any, error) { return nil, api.Follow.Unfollow(ctx, 7) },
			method:   http.MethodDelete,
			path:     "/follow/7",
		},
		{
			name:     "follow_status",
			response: `{"success":true,"data":{"isFollowing":true,"isFollowedBy":true,"isFriend":true}}`,
			call: func(ctx context.Context, api *eduapi.API) (any, error) {
				return api.Follow.Status(ctx, 7)
			},
			method: http.MethodGet,
			path:   "/follow/status",
			query:  url.Values{"userId": {"7"}},
			result: eduapi.FollowStatus{IsFollowing: true, IsFollowedBy: true, IsFriend: true},
		},
		{
			name:     "followers_default_page",
			response: `{"success":true,"data":{"list":[{"id":3,"username":"carol","role":"teacher","followTime":1700000000000}],"total":1,"page":1,"pageSize":20,"totalPages":1}}`,
			call: func(ctx context.Context, api *eduapi.API) (any, error) {
				return api.Follow.Followers(ctx, eduapi.PageQuery{})
			},
			method: http.MethodGet,
			path:   "/follow/followers",
			query:  url.Values{"page": {"1"}, "pageSize": {"20"}},
			result: eduapi.Page[eduapi.FollowedUser]{
				List:       []eduapi.FollowedUser{{ID: 3, Username: "carol", Role: session.RoleTeacher, FollowTime: 1700000000000}},
				Total:      1,
				Page:       1,
				PageSize:   20,
				TotalPages: 1,
			},
		},
		{
			name:     "resources_filtered",
			response: `{"success":true,"data":{"list":[],"total":0,"page":2,"pageSize":10,"totalPages":0}}`,
			call: func(ctx context.Context, api *eduapi.API) (any, error) {
				return api.Resource.List(ctx, eduapi.ResourceFilter{
					PageQuery: eduapi.PageQuery{Page: 2, PageSize: 10},
					Keyword:   "go",
					SortBy:    eduapi.SortDownloads,
				})
			},
			method: http.MethodGet,
			path:   "/resources",
			query:  url.Values{"page": {"2"}, "pageSize": {"10"}, "keyword": {"go"}, "sortBy": {"downloads"}},
			result: eduapi.Page[eduapi.Resource]{List: []eduapi.Resource{}, Page: 2, PageSize: 10},
		},
		{
			name:     "resource_update",
			response: ok,
			call: func(ctx context.Context, api *eduapi.API) (any, error) {
				isPublic := false
				return nil, api.Resource.Update(ctx, 5, eduapi.ResourceChange{IsPublic: &isPublic})
			},
			method: http.MethodPut,
			path:   "/resources/5",
			body:   map[string]any{"isPublic": false},
		},
		{
			name:     "resource_is_collected",
			response: `{"success":true,"data":true}`,
			call: func(ctx context.Context, api *eduapi.API) (any, error) {
				return api.Resource.IsCollected(ctx, 5)
			},
			method: http.MethodGet,
			path:   "/resources/5/collect",
			result: true,
		},
		{
			name:     "resource_categories",
			response: `{"success":true,"data":["math","physics"]}`,
			call: func(ctx context.Context, api *eduapi.API) (any, error) {
				return api.Resource.Categories(ctx)
			},
			method: http.MethodGet,
			path:   "/resources/categories",
			result: []string{"math", "physics"},
		},
		{
			name:     "collection_toggle",
			response: `{"success":true,"message":"Success","data":{"isCollected":true,"count":4}}`,
			call: func(ctx context.Context, api *eduapi.API) (any, error) {
				return api.Collection.Toggle(ctx, 5)
			},
			method: http.MethodPost,
			path:   "/collection/toggle",
			body:   map[string]any{"resourceId": float64(5)},
			result: eduapi.CollectionToggle{IsCollected: true, Count: 4},
		},
		{
			name:     "collection_status",
			response: `{"success":true,"data":false}`,
			call: func(ctx context.Context, api *eduapi.API) (any, error) {
				return api.Collection.Status(ctx, 5)
			},
			method: http.MethodGet,
			path:   "/collection/status",
			query:  url.Values{"resourceId": {"5"}},
			result: false,
		},
		{
			name:     "admin_update_role",
			response: ok,
			call: func(ctx context.Context, api *eduapi.API) (any, error) {
				return nil, api.Admin.UpdateUserRole(ctx, eduapi.RoleChange{UserID: 9, Role: session.RoleTeacher})
			},
			method: http.MethodPost,
			path:   "/admin/users/role",
			body:   map[string]any{"userId": float64(9), "role": "teacher"},
		},
		{
			name:     "admin_audit",
			response: ok,
			call: func(ctx context.Context, api *eduapi.API) (any, error) {
				return nil, api.Admin.AuditRoleRequest(ctx, eduapi.RoleRequestAudit{RequestID: 4, Status: eduapi.AuditApproved})
			},
			method: http.MethodPost,
			path:   "/admin/role-requests/audit",
			body:   map[string]any{"requestId": float64(4), "status": "approved"},
		},
		{
			name:     "admin_users",
			response: `{"success":true,"data":[{"id":9,"username":"dave","role":"student","status":"disabled"}]}`,
			call: func(ctx context.Context, api *eduapi.API) (any, error) {
				return api.Admin.Users(ctx)
			},
			method: http.MethodGet,
			path:   "/admin/users",
			result: []eduapi.ManagedUser{{
				User:   session.User{ID: 9, Username: "dave", Role: session.RoleStudent},
				Status: eduapi.UserStatusDisabled,
			}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api, call := newRecordingAPI(t, tc.response)

			result, err := tc.call(context.Background(), api)
			require.NoError(t, err)
			assert.Equal(t, tc.method, call.method)
			assert.Equal(t, tc.path, call.path)
			if tc.query != nil {
				assert.Equal(t, tc.query, call.query)
			}
			assert.Equal(t, tc.body, call.body)
			if tc.result != nil {
				assert.Equal(t, tc.result, result)
			}
		})
	}
}

func TestAPI_ValidatesInput_BeforeSending(t *testing.T) {
	tests := []struct {
		name    string
		call    func(ctx context.Context, api *eduapi.API) error
		message string
	}{
		{
			name: "page_size_too_large",
			call: func(ctx context.Context, api *eduapi.API) error {
				_, err := api.Resource.Mine(ctx, eduapi.PageQuery{PageSize: 1000})
				return err
			},
			message: "pageSize",
		},
		{
			name: "unknown_sort",
			call: func(ctx context.Context, api *eduapi.API) error {
				_, err := api.Resource.List(ctx, eduapi.ResourceFilter{SortBy: "random"})
				return err
			},
			message: "sortBy must be one of [latest downloads popular]",
		},
		{
			name: "status_without_admin_password",
			call: func(ctx context.Context, api *eduapi.API) error {
				return api.Admin.UpdateUserStatus(ctx, eduapi.StatusChange{UserID: 1, Status: eduapi.UserStatusDisabled})
			},
			message: "adminPassword is required",
		},
		{
			name: "role_request_to_same_role",
			call: func(ctx context.Context, api *eduapi.API) error {
				return api.User.SubmitRoleRequest(ctx, eduapi.RoleRequest{
					CurrentRole: session.RoleTeacher,
					TargetRole:  session.RoleTeacher,
					Reason:      "promotion",
				})
			},
			message: "targetRole must differ from currentrole",
		},
		{
			name: "register_as_admin",
			call: func(ctx context.Context, api *eduapi.API) error {
				_, err := api.User.Register(ctx, eduapi.Registration{
					Username: "eve",
					Password: "secret1",
					Phone:    "13800000000",
					Role:     session.RoleAdmin,
				})
				return err
			},
			message: "role must be one of [student teacher]",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api, call := newRecordingAPI(t, `{"success":true}`)

			err := tc.call(context.Background(), api)
			assert.ErrorIs(t, err, eduapi.ErrInvalidInput)
			assert.ErrorContains(t, err, tc.message)
			assert.Empty(t, call.method)
		})
	}
}

func TestAPI_ReturnsStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false,"message":"Admin only"}`))
	}))
	defer srv.Close()

	api := eduapi.NewAdminAPI(pkghttp.NewClient(pkghttp.WithClientDestination("edu-resource", srv.URL), pkghttp.WithStatusErrors()))

	_, err := api.Logs(context.Background())
	assert.ErrorIs(t, err, pkghttp.ErrForbidden)
	assert.ErrorContains(t, err, "admin.listLogs")
	assert.ErrorContains(t, err, "Admin only")
}
