package eduapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/klwxsrx/edu-resource-client/internal/auth/session"
	pkghttp "github.com/klwxsrx/edu-resource-client/pkg/http"
)

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"

	AuditApproved AuditDecision = "approved"
	AuditRejected AuditDecision = "rejected"
)

var (
	listUsersRoute         = pkghttp.Route{Method: http.MethodGet, URL: "/admin/users"}
	updateUserStatusRoute  = pkghttp.Route{Method: http.MethodPost, URL: "/admin/users/status"}
	resetUserPasswordRoute = pkghttp.Route{Method: http.MethodPost, URL: "/admin/users/password"}
	updateUserRoleRoute    = pkghttp.Route{Method: http.MethodPost, URL: "/admin/users/role"}
	listRoleRequestsRoute  = pkghttp.Route{Method: http.MethodGet, URL: "/admin/role-requests"}
	auditRoleRequestRoute  = pkghttp.Route{Method: http.MethodPost, URL: "/admin/role-requests/audit"}
	listLogsRoute          = pkghttp.Route{Method: http.MethodGet, URL: "/admin/logs"}
)

type (
	UserStatus    string
	AuditDecision string

	ManagedUser struct {
		session.User
		Status UserStatus `json:"status"`
	}

	StatusChange struct {
		UserID        int64      `json:"userId" validate:"required,gt=0"`
		Status        UserStatus `json:"status" validate:"required,oneof=active disabled"`
		AdminPassword string     `json:"adminPassword" validate:"required"`
	}

	PasswordReset struct {
		UserID      int64  `json:"userId" validate:"required,gt=0"`
		NewPassword string `json:"newPassword" validate:"required,min=6,max=64"`
	}

	RoleChange struct {
		UserID int64        `json:"userId" validate:"required,gt=0"`
		Role   session.Role `json:"role" validate:"required,oneof=student teacher admin"`
	}

	RoleRequestAudit struct {
		RequestID int64         `json:"requestId" validate:"required,gt=0"`
		Status    AuditDecision `json:"status" validate:"required,oneof=approved rejected"`
		Remark    string        `json:"remark,omitempty" validate:"max=500"`
	}

	PendingRoleRequest struct {
		ID            int64        `json:"id"`
		UserID        int64        `json:"userId"`
		Username      string       `json:"username"`
		Nickname      string       `json:"nickname,omitempty"`
		CurrentRole   session.Role `json:"currentRole"`
		TargetRole    session.Role `json:"targetRole"`
		Reason        string       `json:"reason"`
		ProofMaterial string       `json:"proofMaterial,omitempty"`
		Status        string       `json:"status"`
		CreateTime    string       `json:"createTime,omitempty"`
	}

	OperationLog struct {
		ID         int64  `json:"id"`
		UserID     int64  `json:"userId"`
		Username   string `json:"username,omitempty"`
		Module     string `json:"module"`
		Operation  string `json:"operation"`
		TargetID   int64  `json:"targetId,omitempty"`
		Details    string `json:"details,omitempty"`
		IPAddress  string `json:"ipAddress,omitempty"`
		CreateTime string `json:"createTime,omitempty"`
	}
)

// AdminAPI covers the admin endpoints. The backend answers 403 for other roles.
type AdminAPI struct {
	client pkghttp.Client
}

func NewAdminAPI(client pkghttp.Client) *AdminAPI {
	return &AdminAPI{client: client}
}

func (a *AdminAPI) Users(ctx context.Context) ([]ManagedUser, error) {
	users, err := pkghttp.Call[[]ManagedUser](a.client.NewRequest(ctx), listUsersRoute)
	if err != nil {
		return nil, fmt.Errorf("admin.listUsers: %w", err)
	}

	return users, nil
}

func (a *AdminAPI) UpdateUserStatus(ctx context.Context, change StatusChange) error {
	return a.post(ctx, change, updateUserStatusRoute, "admin.updateUserStatus")
}

func (a *AdminAPI) ResetUserPassword(ctx context.Context, reset PasswordReset) error {
	return a.post(ctx, reset, resetUserPasswordRoute, "admin.resetUserPassword")
}

func (a *AdminAPI) UpdateUserRole(ctx context.Context, change RoleChange) error {
	return a.post(ctx, change, updateUserRoleRoute, "admin.updateUserRole")
}

func (a *AdminAPI) RoleRequests(ctx context.Context) ([]PendingRoleRequest, error) {
	requests, err := pkghttp.Call[[]PendingRoleRequest](a.client.NewRequest(ctx), listRoleRequestsRoute)
	if err != nil {
		return nil, fmt.Errorf("admin.listRoleRequests: %w", err)
	}

	return requests, nil
}

func (a *AdminAPI) AuditRoleRequest(ctx context.Context, audit RoleRequestAudit) error {
	return a.post(ctx, audit, auditRoleRequestRoute, "admin.auditRoleRequest")
}

func (a *AdminAPI) Logs(ctx context.Context) ([]OperationLog, error) {
	logs, err := pkghttp.Call[[]OperationLog](a.client.NewRequest(ctx), listLogsRoute)
	if err != nil {
		return nil, fmt.Errorf("admin.listLogs: %w", err)
	}

	return logs, nil
}

func (a *AdminAPI) post(ctx context.Context, body any, route pkghttp.Route, operation string) error {
	err := validateInput(body)
	if err != nil {
		return err
	}

	err = pkghttp.Exec(a.client.NewRequest(ctx).SetBody(body), route)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	return nil
}
