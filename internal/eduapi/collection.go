package eduapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	pkghttp "github.com/klwxsrx/edu-resource-client/pkg/http"
)

var (
	toggleCollectionRoute = pkghttp.Route{Method: http.MethodPost, URL: "/collection/toggle"}
	listCollectionRoute   = pkghttp.Route{Method: http.MethodGet, URL: "/collection/list"}
	collectionStatusRoute = pkghttp.Route{Method: http.MethodGet, URL: "/collection/status"}
)

// CollectionToggle is the collection state after a toggle and the resource's new collection count.
type CollectionToggle struct {
	IsCollected bool `json:"isCollected"`
	Count       int  `json:"count"`
}

type CollectionAPI struct {
	client pkghttp.Client
}

func NewCollectionAPI(client pkghttp.Client) *CollectionAPI {
	return &CollectionAPI{client: client}
}

func (a *CollectionAPI) Toggle(ctx context.Context, resourceID int64) (CollectionToggle, error) {
	result, err := pkghttp.Call[CollectionToggle](
		a.client.NewRequest(ctx).SetBody(map[string]int64{"resourceId": resourceID}),
		toggleCollectionRoute,
	)
	if err != nil {
		return CollectionToggle{}, fmt.Errorf("collection.toggle: %w", err)
	}

	return result, nil
}

func (a *CollectionAPI) List(ctx context.Context, query PageQuery) (Page[Resource], error) {
	err := validateInput(query)
	if err != nil {
		return Page[Resource]{}, err
	}

	page, err := pkghttp.Call[Page[Resource]](a.client.NewRequest(ctx).SetQueryParams(query.params()), listCollectionRoute)
	if err != nil {
		return Page[Resource]{}, fmt.Errorf("collection.list: %w", err)
	}

	return page, nil
}

func (a *CollectionAPI) Status(ctx context.Context, resourceID int64) (bool, error) {
	collected, err := pkghttp.Call[bool](
		a.client.NewRequest(ctx).SetQueryParam("resourceId", strconv.FormatInt(resourceID, 10)),
		collectionStatusRoute,
	)
	if err != nil {
		return false, fmt.Errorf("collection.status: %w", err)
	}

	return collected, nil
}
