package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/klwxsrx/edu-resource-client/internal/auth/refresh"
	pkghttp "github.com/klwxsrx/edu-resource-client/pkg/http"
)

var errEmptyToken = errors.New("empty token in response")

type Refresher struct {
	client pkghttp.Client
	routes Routes
}

// NewRefresher calls the refresh endpoint through client.
// The client must attach the current token without refreshing it, see WithSessionAuth.
func NewRefresher(client pkghttp.Client, routes Routes) *Refresher {
	return &Refresher{
		client: client,
		routes: routes,
	}
}

func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	token, err := pkghttp.Call[string](r.client.NewRequest(ctx), pkghttp.Route{Method: http.MethodPost, URL: r.routes.Refresh})
	if err != nil && pkghttp.IsTransportError(err) {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", refresh.ErrTokenRejected, err)
	}
	if token == "" {
		return "", fmt.Errorf("%w: %w", refresh.ErrTokenRejected, errEmptyToken)
	}

	return token, nil
}
