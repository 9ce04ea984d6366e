package eduapi

import (
	pkghttp "github.com/klwxsrx/edu-resource-client/pkg/http"
	"github.com/klwxsrx/edu-resource-client/pkg/log"
)

// API groups the backend callers that share one authenticated client.
type API struct {
	User       *UserAPI
	Follow     *FollowAPI
	Resource   *ResourceAPI
	Collection *CollectionAPI
	Admin      *AdminAPI
}

func New(client pkghttp.Client, sessions SessionStore, logger log.Logger) *API {
	return &API{
		User:       NewUserAPI(client, sessions, logger),
		Follow:     NewFollowAPI(client),
		Resource:   NewResourceAPI(client),
		Collection: NewCollectionAPI(client),
		Admin:      NewAdminAPI(client),
	}
}
