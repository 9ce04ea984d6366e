package eduapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/klwxsrx/edu-resource-client/internal/auth/session"
	pkghttp "github.com/klwxsrx/edu-resource-client/pkg/http"
)

var (
	followRoute        = pkghttp.Route{Method: http.MethodPost, URL: "/follow/{userID}"}
	unfollowRoute      = pkghttp.Route{Method: http.MethodDelete, URL: "/follow/{userID}"}
	followStatusRoute  = pkghttp.Route{Method: http.MethodGet, URL: "/follow/status"}
	listFollowingRoute = pkghttp.Route{Method: http.MethodGet, URL: "/follow/following"}
	listFollowersRoute = pkghttp.Route{Method: http.MethodGet, URL: "/follow/followers"}
)

type (
	FollowStatus struct {
		IsFollowing  bool `json:"isFollowing"`
		IsFollowedBy bool `json:"isFollowedBy"`
		IsFriend     bool `json:"isFriend"`
	}

	FollowedUser struct {
		ID       int64        `json:"id"`
		Username string       `json:"username"`
		Nickname string       `json:"nickname,omitempty"`
		Avatar   string       `json:"avatar,omitempty"`
		Role     session.Role `json:"role"`
		// FollowTime is a unix timestamp in milliseconds.
		FollowTime int64 `json:"followTime"`
	}
)

type FollowAPI struct {
	client pkghttp.Client
}

func NewFollowAPI(client pkghttp.Client) *FollowAPI {
	return &FollowAPI{client: client}
}

func (a *FollowAPI) Follow(ctx context.Context, userID int64) error {
	err := pkghttp.Exec(a.userRequest(ctx, userID), followRoute)
	if err != nil {
		return fmt.Errorf("follow.follow: %w", err)
	}

	return nil
}

func (a *FollowAPI) Unfollow(ctx context.Context, userID int64) error {
	err := pkghttp.Exec(a.userRequest(ctx, userID), unfollowRoute)
	if err != nil {
		return fmt.Errorf("follow.unfollow: %w", err)
	}

	return nil
}

func (a *FollowAPI) Status(ctx context.Context, userID int64) (FollowStatus, error) {
	status, err := pkghttp.Call[FollowStatus](
		a.client.NewRequest(ctx).SetQueryParam("userId", strconv.FormatInt(userID, 10)),
		followStatusRoute,
	)
	if err != nil {
		return FollowStatus{}, fmt.Errorf("follow.getStatus: %w", err)
	}

	return status, nil
}

func (a *FollowAPI) Following(ctx context.Context, query PageQuery) (Page[FollowedUser], error) {
	return a.list(ctx, query, listFollowingRoute)
}

func (a *FollowAPI) Followers(ctx context.Context, query PageQuery) (Page[FollowedUser], error) {
	return a.list(ctx, query, listFollowersRoute)
}

func (a *FollowAPI) list(ctx context.Context, query PageQuery, route pkghttp.Route) (Page[FollowedUser], error) {
	err := validateInput(query)
	if err != nil {
		return Page[FollowedUser]{}, err
	}

	page, err := pkghttp.Call[Page[FollowedUser]](a.client.NewRequest(ctx).SetQueryParams(query.params()), route)
	if err != nil {
		return Page[FollowedUser]{}, fmt.Errorf("follow.list: %w", err)
	}

	return page, nil
}

func (a *FollowAPI) userRequest(ctx context.Context, userID int64) *resty.Request {
	return a.client.NewRequest(ctx).SetPathParam("userID", strconv.FormatInt(userID, 10))
}
