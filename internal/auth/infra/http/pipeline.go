package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/klwxsrx/edu-resource-client/internal/auth/refresh"
	"github.com/klwxsrx/edu-resource-client/internal/auth/session"
	"github.com/klwxsrx/edu-resource-client/pkg/event"
	pkghttp "github.com/klwxsrx/edu-resource-client/pkg/http"
	"github.com/klwxsrx/edu-resource-client/pkg/log"
)

const (
	NoticeAccountDisabled  NoticeKind = "account_disabled"
	NoticePermissionDenied NoticeKind = "permission_denied"
	NoticeNotFound         NoticeKind = "not_found"
	NoticeServerError      NoticeKind = "server_error"
	NoticeRequestFailed    NoticeKind = "request_failed"
	NoticeNetworkError     NoticeKind = "network_error"

	EventTypeNoticeRaised = "notice.raised"

	accountDisabledMessage = "Account is disabled"
)

type (
	Routes struct {
		Login   string
		Refresh string
	}

	NoticeKind string

	// EventNoticeRaised carries a message the host shows to the user.
	EventNoticeRaised struct {
		EventID uuid.UUID  `json:"eventID"`
		Kind    NoticeKind `json:"kind"`
		Message string     `json:"message"`
	}

	TokenProvider interface {
		EnsureFreshToken(ctx context.Context) (string, error)
	}

	TokenSource interface {
		Token() string
	}

	SessionExpirer interface {
		Expire(ctx context.Context, reason session.Reason) error
	}
)

func (e EventNoticeRaised) ID() uuid.UUID {
	return e.EventID
}

func (e EventNoticeRaised) Type() string {
	return EventTypeNoticeRaised
}

func DefaultRoutes() Routes {
	return Routes{
		Login:   "/user/login",
		Refresh: "/user/refresh",
	}
}

// WithSessionAuth attaches the session token to outgoing calls.
// The token is refreshed first when it expires soon, except for the refresh call itself.
func WithSessionAuth(tokens TokenProvider, current TokenSource, routes Routes) pkghttp.ClientOption {
	return func(c *pkghttp.ClientImpl) {
		c.RESTClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			if pkghttp.MatchesRoute(req.URL, routes.Refresh) {
				setBearer(req, current.Token())
				return nil
			}

			token, err := tokens.EnsureFreshToken(req.Context())
			if err != nil {
				return fmt.Errorf("ensure fresh token: %w", err)
			}

			setBearer(req, token)
			return nil
		})
	}
}

// WithCurrentToken attaches the stored token as is. It serves the client that performs the refresh call.
func WithCurrentToken(current TokenSource) pkghttp.ClientOption {
	return func(c *pkghttp.ClientImpl) {
		c.RESTClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			setBearer(req, current.Token())
			return nil
		})
	}
}

func setBearer(req *resty.Request, token string) {
	if token != "" {
		req.SetAuthToken(token)
	}
}

func NewAuthFailureHandler(
	sessions SessionExpirer,
	dispatcher event.Dispatcher,
	routes Routes,
	logger log.Logger,
) pkghttp.StatusErrorHandler {
	return func(ctx context.Context, req *resty.Request, err *pkghttp.StatusError) {
		switch {
		case err.Code == http.StatusUnauthorized:
			if pkghttp.MatchesRoute(req.URL, routes.Login) {
				return
			}
			expire(ctx, sessions, session.ReasonTokenRejected, logger)
		case err.Code == http.StatusForbidden && err.Message == accountDisabledMessage:
			expire(ctx, sessions, session.ReasonAccountDisabled, logger)
			raiseNotice(ctx, dispatcher, NoticeAccountDisabled, "Your account has been disabled, you will be logged out", logger)
		case err.Code == http.StatusForbidden:
			raiseNotice(ctx, dispatcher, NoticePermissionDenied, "You do not have permission to perform this action", logger)
		case err.Code == http.StatusNotFound:
			raiseNotice(ctx, dispatcher, NoticeNotFound, "The requested resource does not exist", logger)
		case errors.Is(err, pkghttp.ErrServerError):
			raiseNotice(ctx, dispatcher, NoticeServerError, "Server error, please try again later", logger)
		default:
			raiseNotice(ctx, dispatcher, NoticeRequestFailed, "Request failed: "+err.Message, logger)
		}
	}
}

// NewNetworkFailureHandler reports calls that got no response.
// Failed token refreshes are reported through the session termination instead.
func NewNetworkFailureHandler(dispatcher event.Dispatcher, logger log.Logger) pkghttp.TransportErrorHandler {
	return func(ctx context.Context, _ *resty.Request, err error) {
		if errors.Is(err, refresh.ErrRefreshFailed) {
			return
		}

		raiseNotice(ctx, dispatcher, NoticeNetworkError, "Network error, please check your connection", logger)
	}
}

func expire(ctx context.Context, sessions SessionExpirer, reason session.Reason, logger log.Logger) {
	err := sessions.Expire(ctx, reason)
	if err != nil {
		logger.WithError(err).WithField("reason", reason).Error(ctx, "failed to expire session")
	}
}

func raiseNotice(ctx context.Context, dispatcher event.Dispatcher, kind NoticeKind, msg string, logger log.Logger) {
	err := dispatcher.Dispatch(ctx, EventNoticeRaised{
		EventID: uuid.New(),
		Kind:    kind,
		Message: msg,
	})
	if err != nil {
		logger.WithError(err).WithField("kind", kind).Error(ctx, "failed to raise notice")
	}
}
