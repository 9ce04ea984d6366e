//go:generate ${TOOLS_BIN}/mockgen -source ${GOFILE} -destination mock/${GOFILE} -package mock -mock_names "SessionStore=SessionStore"
package eduapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/klwxsrx/edu-resource-client/internal/auth/session"
	pkghttp "github.com/klwxsrx/edu-resource-client/pkg/http"
	"github.com/klwxsrx/edu-resource-client/pkg/log"
)

var (
	loginRoute          = pkghttp.Route{Method: http.MethodPost, URL: "/user/login"}
	registerRoute       = pkghttp.Route{Method: http.MethodPost, URL: "/user/register"}
	logoutRoute         = pkghttp.Route{Method: http.MethodPost, URL: "/user/logout"}
	getProfileRoute     = pkghttp.Route{Method: http.MethodGet, URL: "/user/profile"}
	updateProfileRoute  = pkghttp.Route{Method: http.MethodPut, URL: "/user/profile"}
	changePasswordRoute = pkghttp.Route{Method: http.MethodPut, URL: "/user/password"}
	uploadAvatarRoute   = pkghttp.Route{Method: http.MethodPost, URL: "/user/avatar"}
	roleRequestRoute    = pkghttp.Route{Method: http.MethodPost, URL: "/user/role-request"}
	publicProfileRoute  = pkghttp.Route{Method: http.MethodGet, URL: "/user/{userID}"}
)

type (
	SessionStore interface {
		Login(ctx context.Context, user session.User, token string) error
		Logout(ctx context.Context) error
		UpdateProfile(ctx context.Context, update session.ProfileUpdate) error
	}

	Credentials struct {
		Username string `json:"username" validate:"required,max=50"`
		Password string `json:"password" validate:"required"`
	}

	Registration struct {
		Username string       `json:"username" validate:"required,min=3,max=50"`
		Password string       `json:"password" validate:"required,min=6,max=64"`
		Nickname string       `json:"nickname,omitempty" validate:"max=50"`
		Phone    string       `json:"phone" validate:"required,numeric,min=6,max=20"`
		Role     session.Role `json:"role" validate:"required,oneof=student teacher"`
	}

	ProfileChange struct {
		Nickname *string `json:"nickname,omitempty" validate:"omitempty,max=50"`
		Phone    *string `json:"phone,omitempty" validate:"omitempty,numeric,min=6,max=20"`
		Avatar   *string `json:"avatar,omitempty" validate:"omitempty,max=255"`
	}

	PasswordChange struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=6,max=64,nefield=OldPassword"`
	}

	RoleRequest struct {
		CurrentRole   session.Role `json:"currentRole" validate:"required"`
		TargetRole    session.Role `json:"targetRole" validate:"required,oneof=teacher admin,nefield=CurrentRole"`
		Reason        string       `json:"reason" validate:"required,max=500"`
		ProofMaterial string       `json:"proofMaterial,omitempty" validate:"max=255"`
	}

	loginResult struct {
		User  session.User `json:"user"`
		Token string       `json:"token"`
	}
)

// UserAPI covers the account endpoints and keeps the local session in step with them.
type UserAPI struct {
	client   pkghttp.Client
	sessions SessionStore
	logger   log.Logger
}

func NewUserAPI(client pkghttp.Client, sessions SessionStore, logger log.Logger) *UserAPI {
	return &UserAPI{
		client:   client,
		sessions: sessions,
		logger:   logger,
	}
}

func (a *UserAPI) Login(ctx context.Context, credentials Credentials) (session.User, error) {
	err := validateInput(credentials)
	if err != nil {
		return session.User{}, err
	}

	result, err := pkghttp.Call[loginResult](a.client.NewRequest(ctx).SetBody(credentials), loginRoute)
	if err != nil {
		return session.User{}, fmt.Errorf("user.login: %w", err)
	}

	err = a.sessions.Login(ctx, result.User, result.Token)
	if err != nil {
		return session.User{}, fmt.Errorf("start session: %w", err)
	}

	return result.User, nil
}

func (a *UserAPI) Register(ctx context.Context, registration Registration) (session.User, error) {
	err := validateInput(registration)
	if err != nil {
		return session.User{}, err
	}

	user, err := pkghttp.Call[session.User](a.client.NewRequest(ctx).SetBody(registration), registerRoute)
	if err != nil {
		return session.User{}, fmt.Errorf("user.register: %w", err)
	}

	return user, nil
}

// Logout always clears the local session, the backend call is best effort.
func (a *UserAPI) Logout(ctx context.Context) error {
	err := pkghttp.Exec(a.client.NewRequest(ctx), logoutRoute)
	if err != nil {
		a.logger.WithError(err).Warn(ctx, "backend logout failed")
	}

	err = a.sessions.Logout(ctx)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	return nil
}

func (a *UserAPI) Profile(ctx context.Context) (session.User, error) {
	user, err := pkghttp.Call[session.User](a.client.NewRequest(ctx), getProfileRoute)
	if err != nil {
		return session.User{}, fmt.Errorf("user.getProfile: %w", err)
	}

	return user, nil
}

func (a *UserAPI) UpdateProfile(ctx context.Context, change ProfileChange) (session.User, error) {
	err := validateInput(change)
	if err != nil {
		return session.User{}, err
	}

	user, err := pkghttp.Call[session.User](a.client.NewRequest(ctx).SetBody(change), updateProfileRoute)
	if err != nil {
		return session.User{}, fmt.Errorf("user.updateProfile: %w", err)
	}

	update := session.ProfileUpdate{
		Nickname: change.Nickname,
		Phone:    change.Phone,
		Avatar:   change.Avatar,
	}
	if user.ID != 0 {
		update = session.ProfileUpdate{
			Nickname: &user.Nickname,
			Phone:    &user.Phone,
			Avatar:   &user.Avatar,
		}
	}

	err = a.sessions.UpdateProfile(ctx, update)
	if err != nil {
		return user, fmt.Errorf("update session profile: %w", err)
	}

	return user, nil
}

func (a *UserAPI) ChangePassword(ctx context.Context, change PasswordChange) error {
	err := validateInput(change)
	if err != nil {
		return err
	}

	err = pkghttp.Exec(a.client.NewRequest(ctx).SetBody(change), changePasswordRoute)
	if err != nil {
		return fmt.Errorf("user.changePassword: %w", err)
	}

	return nil
}

// UploadAvatar sends the image as multipart form data and stores the returned url in the session.
func (a *UserAPI) UploadAvatar(ctx context.Context, fileName string, content io.Reader) (string, error) {
	req := a.client.NewRequest(ctx).
		SetHeader("Content-Type", "multipart/form-data").
		SetFileReader("file", fileName, content)

	avatarURL, err := pkghttp.Call[string](req, uploadAvatarRoute)
	if err != nil {
		return "", fmt.Errorf("user.uploadAvatar: %w", err)
	}

	err = a.sessions.UpdateProfile(ctx, session.ProfileUpdate{Avatar: &avatarURL})
	if err != nil {
		return avatarURL, fmt.Errorf("update session avatar: %w", err)
	}

	return avatarURL, nil
}

func (a *UserAPI) SubmitRoleRequest(ctx context.Context, request RoleRequest) error {
	err := validateInput(request)
	if err != nil {
		return err
	}

	err = pkghttp.Exec(a.client.NewRequest(ctx).SetBody(request), roleRequestRoute)
	if err != nil {
		return fmt.Errorf("user.submitRoleRequest: %w", err)
	}

	return nil
}

func (a *UserAPI) PublicProfile(ctx context.Context, userID int64) (session.User, error) {
	user, err := pkghttp.Call[session.User](
		a.client.NewRequest(ctx).SetPathParam("userID", strconv.FormatInt(userID, 10)),
		publicProfileRoute,
	)
	if err != nil {
		return session.User{}, fmt.Errorf("user.getPublicProfile: %w", err)
	}

	return user, nil
}
