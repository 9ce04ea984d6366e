package auth

import (
	"context"

	authhttp "github.com/klwxsrx/edu-resource-client/internal/auth/infra/http"
	"github.com/klwxsrx/edu-resource-client/internal/auth/refresh"
	"github.com/klwxsrx/edu-resource-client/internal/auth/session"
	"github.com/klwxsrx/edu-resource-client/pkg/event"
	pkghttp "github.com/klwxsrx/edu-resource-client/pkg/http"
	"github.com/klwxsrx/edu-resource-client/pkg/lazy"
	"github.com/klwxsrx/edu-resource-client/pkg/log"
)

type DependencyContainer struct {
	Sessions    lazy.Loader[*session.Store]
	Coordinator lazy.Loader[*refresh.Coordinator]
	// APIClient is the backend client every API call goes through.
	APIClient lazy.Loader[pkghttp.Client]

	dispatcher lazy.Loader[event.Dispatcher]
}

// NewDependencyContainer wires the session and the request pipeline on top of backend,
// a client already bound to the backend base url.
func NewDependencyContainer(
	ctx context.Context,
	backend lazy.Loader[pkghttp.Client],
	storage lazy.Loader[session.Storage],
	dispatcher lazy.Loader[event.Dispatcher],
	logger lazy.Loader[log.Logger],
	routes authhttp.Routes,
	refreshOpts ...refresh.Option,
) *DependencyContainer {
	sessions := sessionStoreProvider(ctx, storage, dispatcher, logger)
	refresher := refresherProvider(backend, sessions, routes)
	coordinator := coordinatorProvider(refresher, sessions, logger, refreshOpts)

	return &DependencyContainer{
		Sessions:    sessions,
		Coordinator: coordinator,
		APIClient:   apiClientProvider(backend, sessions, coordinator, dispatcher, logger, routes),
		dispatcher:  dispatcher,
	}
}

// SubscribeLoginRedirect sends the host to loginView whenever the session is terminated.
func (c *DependencyContainer) SubscribeLoginRedirect(navigator session.Navigator, loginView string) {
	c.dispatcher.MustLoad().Subscribe(
		session.EventTypeSessionTerminated,
		session.NewLoginRedirectHandler(navigator, loginView),
	)
}

func (c *DependencyContainer) SubscribeNotices(handler func(ctx context.Context, notice authhttp.EventNoticeRaised) error) {
	c.dispatcher.MustLoad().Subscribe(
		authhttp.EventTypeNoticeRaised,
		event.NewTypedHandler(handler),
	)
}

func sessionStoreProvider(
	ctx context.Context,
	storage lazy.Loader[session.Storage],
	dispatcher lazy.Loader[event.Dispatcher],
	logger lazy.Loader[log.Logger],
) lazy.Loader[*session.Store] {
	return lazy.New(func() (*session.Store, error) {
		store := session.NewStore(storage.MustLoad(), dispatcher.MustLoad(), logger.MustLoad())
		store.LoadFromStorage(ctx)
		return store, nil
	})
}

func refresherProvider(
	backend lazy.Loader[pkghttp.Client],
	sessions lazy.Loader[*session.Store],
	routes authhttp.Routes,
) lazy.Loader[refresh.Refresher] {
	return lazy.New(func() (refresh.Refresher, error) {
		client := backend.MustLoad().With(
			authhttp.WithCurrentToken(sessions.MustLoad()),
			pkghttp.WithStatusErrors(),
		)
		return authhttp.NewRefresher(client, routes), nil
	})
}

func coordinatorProvider(
	refresher lazy.Loader[refresh.Refresher],
	sessions lazy.Loader[*session.Store],
	logger lazy.Loader[log.Logger],
	opts []refresh.Option,
) lazy.Loader[*refresh.Coordinator] {
	return lazy.New(func() (*refresh.Coordinator, error) {
		opts = append([]refresh.Option{refresh.WithLogger(logger.MustLoad())}, opts...)
		return refresh.NewCoordinator(refresher.MustLoad(), sessions.MustLoad(), opts...), nil
	})
}

func apiClientProvider(
	backend lazy.Loader[pkghttp.Client],
	sessions lazy.Loader[*session.Store],
	coordinator lazy.Loader[*refresh.Coordinator],
	dispatcher lazy.Loader[event.Dispatcher],
	logger lazy.Loader[log.Logger],
	routes authhttp.Routes,
) lazy.Loader[pkghttp.Client] {
	return lazy.New(func() (pkghttp.Client, error) {
		return backend.MustLoad().With(
			pkghttp.WithMultipartContentTypeCleanup(),
			authhttp.WithSessionAuth(coordinator.MustLoad(), sessions.MustLoad(), routes),
			pkghttp.WithStatusErrors(authhttp.NewAuthFailureHandler(
				sessions.MustLoad(),
				dispatcher.MustLoad(),
				routes,
				logger.MustLoad(),
			)),
			pkghttp.WithTransportErrorHandler(authhttp.NewNetworkFailureHandler(
				dispatcher.MustLoad(),
				logger.MustLoad(),
			)),
		), nil
	})
}
