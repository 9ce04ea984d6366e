//go:generate ${TOOLS_BIN}/mockgen -source ${GOFILE} -destination mock/storage.go -package mock -mock_names "Storage=Storage,Navigator=Navigator"
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/klwxsrx/edu-resource-client/pkg/event"
)

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

const (
	TokenKey = "token"
	UserKey  = "user"
)

const (
	ReasonTokenRejected   Reason = "token_rejected"
	ReasonAccountDisabled Reason = "account_disabled"
	ReasonRefreshFailed   Reason = "refresh_failed"
)

const (
	aggregateNameSession = "session"

	EventTypeSessionTerminated = aggregateNameSession + ".terminated"
)

var (
	ErrEmptyToken  = errors.New("empty token")
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrSessionChanged means the session no longer holds the token the caller acted on.
	ErrSessionChanged = errors.New("session changed")
)

type (
	Role   string
	Reason string

	User struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Nickname string `json:"nickname,omitempty"`
		Phone    string `json:"phone,omitempty"`
		Role     Role   `json:"role"`
		Avatar   string `json:"avatar,omitempty"`
	}

	Session struct {
		IsLoggedIn bool
		User       User
	}

	// ProfileUpdate carries the user fields to change, nil fields are kept.
	ProfileUpdate struct {
		Nickname *string
		Phone    *string
		Avatar   *string
		Role     *Role
	}

	// Storage is the durable key-value store the session is mirrored to.
	Storage interface {
		Get(ctx context.Context, key string) (value string, ok bool, err error)
		Set(ctx context.Context, key, value string) error
		Delete(ctx context.Context, keys ...string) error
	}

	Navigator interface {
		CurrentView() string
		Navigate(ctx context.Context, view string) error
	}
)

func (u User) apply(update ProfileUpdate) User {
	if update.Nickname != nil {
		u.Nickname = *update.Nickname
	}
	if update.Phone != nil {
		u.Phone = *update.Phone
	}
	if update.Avatar != nil {
		u.Avatar = *update.Avatar
	}
	if update.Role != nil {
		u.Role = *update.Role
	}

	return u
}

// EventSessionTerminated is raised once per forced transition from logged in to logged out.
type EventSessionTerminated struct {
	EventID uuid.UUID `json:"eventID"`
	Reason  Reason    `json:"reason"`
}

func (e EventSessionTerminated) ID() uuid.UUID {
	return e.EventID
}

func (e EventSessionTerminated) Type() string {
	return EventTypeSessionTerminated
}

func NewLoginRedirectHandler(navigator Navigator, loginView string) event.Handler {
	return event.NewTypedHandler(func(ctx context.Context, _ EventSessionTerminated) error {
		if navigator.CurrentView() == loginView {
			return nil
		}

		err := navigator.Navigate(ctx, loginView)
		if err != nil {
			return fmt.Errorf("navigate to %s: %w", loginView, err)
		}

		return nil
	})
}
