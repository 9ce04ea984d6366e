package eduapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"

	pkghttp "github.com/klwxsrx/edu-resource-client/pkg/http"
)

const (
	SortLatest    ResourceSort = "latest"
	SortDownloads ResourceSort = "downloads"
	SortPopular   ResourceSort = "popular"
)

var (
	listResourcesRoute     = pkghttp.Route{Method: http.MethodGet, URL: "/resources"}
	getResourceRoute       = pkghttp.Route{Method: http.MethodGet, URL: "/resources/{resourceID}"}
	updateResourceRoute    = pkghttp.Route{Method: http.MethodPut, URL: "/resources/{resourceID}"}
	deleteResourceRoute    = pkghttp.Route{Method: http.MethodDelete, URL: "/resources/{resourceID}"}
	collectResourceRoute   = pkghttp.Route{Method: http.MethodPost, URL: "/resources/{resourceID}/collect"}
	uncollectResourceRoute = pkghttp.Route{Method: http.MethodDelete, URL: "/resources/{resourceID}/collect"}
	isCollectedRoute       = pkghttp.Route{Method: http.MethodGet, URL: "/resources/{resourceID}/collect"}
	listMyResourcesRoute   = pkghttp.Route{Method: http.MethodGet, URL: "/resources/my"}
	listCategoriesRoute    = pkghttp.Route{Method: http.MethodGet, URL: "/resources/categories"}
	getStatsRoute          = pkghttp.Route{Method: http.MethodGet, URL: "/resources/stats"}
	listRelatedRoute       = pkghttp.Route{Method: http.MethodGet, URL: "/resources/{resourceID}/related"}
)

type (
	ResourceSort string

	Uploader struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Nickname string `json:"nickname,omitempty"`
	}

	Resource struct {
		ID              int64     `json:"id"`
		Name            string    `json:"name"`
		Description     string    `json:"description,omitempty"`
		Category        string    `json:"category,omitempty"`
		FileName        string    `json:"fileName,omitempty"`
		FileSize        int64     `json:"fileSize"`
		FileType        string    `json:"fileType,omitempty"`
		UploaderID      int64     `json:"uploaderId"`
		Uploader        *Uploader `json:"uploader,omitempty"`
		DownloadCount   int       `json:"downloadCount"`
		CollectionCount int       `json:"collectionCount"`
		CommentCount    int       `json:"commentCount"`
		AllowComments   bool      `json:"allowComments"`
		IsPublic        bool      `json:"isPublic"`
		// CreatedAt keeps the backend format, yyyy-MM-dd HH:mm:ss.
		CreatedAt string `json:"createdAt,omitempty"`
	}

	ResourceFilter struct {
		PageQuery
		Keyword  string       `json:"keyword,omitempty" validate:"max=100"`
		Category string       `json:"category,omitempty" validate:"max=50"`
		FileType string       `json:"fileType,omitempty" validate:"max=20"`
		SortBy   ResourceSort `json:"sortBy,omitempty" validate:"omitempty,oneof=latest downloads popular"`
	}

	ResourceChange struct {
		Name          *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
		Description   *string `json:"description,omitempty" validate:"omitempty,max=1000"`
		Category      *string `json:"category,omitempty" validate:"omitempty,max=50"`
		AllowComments *bool   `json:"allowComments,omitempty"`
		IsPublic      *bool   `json:"isPublic,omitempty"`
	}

	Stats struct {
		UserCount       int `json:"userCount"`
		ResourceCount   int `json:"resourceCount"`
		DownloadCount   int `json:"downloadCount"`
		CollectionCount int `json:"collectionCount"`
	}
)

type ResourceAPI struct {
	client pkghttp.Client
}

func NewResourceAPI(client pkghttp.Client) *ResourceAPI {
	return &ResourceAPI{client: client}
}

func (a *ResourceAPI) List(ctx context.Context, filter ResourceFilter) (Page[Resource], error) {
	err := validateInput(filter)
	if err != nil {
		return Page[Resource]{}, err
	}

	req := a.client.NewRequest(ctx).SetQueryParams(filter.params())
	for key, value := range map[string]string{
		"keyword":  filter.Keyword,
		"category": filter.Category,
		"fileType": filter.FileType,
		"sortBy":   string(filter.SortBy),
	} {
		if value != "" {
			req.SetQueryParam(key, value)
		}
	}

	page, err := pkghttp.Call[Page[Resource]](req, listResourcesRoute)
	if err != nil {
		return Page[Resource]{}, fmt.Errorf("resource.list: %w", err)
	}

	return page, nil
}

func (a *ResourceAPI) Get(ctx context.Context, resourceID int64) (Resource, error) {
	resource, err := pkghttp.Call[Resource](a.resourceRequest(ctx, resourceID), getResourceRoute)
	if err != nil {
		return Resource{}, fmt.Errorf("resource.get: %w", err)
	}

	return resource, nil
}

func (a *ResourceAPI) Update(ctx context.Context, resourceID int64, change ResourceChange) error {
	err := validateInput(change)
	if err != nil {
		return err
	}

	err = pkghttp.Exec(a.resourceRequest(ctx, resourceID).SetBody(change), updateResourceRoute)
	if err != nil {
		return fmt.Errorf("resource.update: %w", err)
	}

	return nil
}

func (a *ResourceAPI) Delete(ctx context.Context, resourceID int64) error {
	err := pkghttp.Exec(a.resourceRequest(ctx, resourceID), deleteResourceRoute)
	if err != nil {
		return fmt.Errorf("resource.delete: %w", err)
	}

	return nil
}

func (a *ResourceAPI) Collect(ctx context.Context, resourceID int64) error {
	err := pkghttp.Exec(a.resourceRequest(ctx, resourceID), collectResourceRoute)
	if err != nil {
		return fmt.Errorf("resource.collect: %w", err)
	}

	return nil
}

func (a *ResourceAPI) Uncollect(ctx context.Context, resourceID int64) error {
	err := pkghttp.Exec(a.resourceRequest(ctx, resourceID), uncollectResourceRoute)
	if err != nil {
		return fmt.Errorf("resource.uncollect: %w", err)
	}

	return nil
}

func (a *ResourceAPI) IsCollected(ctx context.Context, resourceID int64) (bool, error) {
	collected, err := pkghttp.Call[bool](a.resourceRequest(ctx, resourceID), isCollectedRoute)
	if err != nil {
		return false, fmt.Errorf("resource.isCollected: %w", err)
	}

	return collected, nil
}

func (a *ResourceAPI) Mine(ctx context.Context, query PageQuery) (Page[Resource], error) {
	err := validateInput(query)
	if err != nil {
		return Page[Resource]{}, err
	}

	page, err := pkghttp.Call[Page[Resource]](a.client.NewRequest(ctx).SetQueryParams(query.params()), listMyResourcesRoute)
	if err != nil {
		return Page[Resource]{}, fmt.Errorf("resource.listMine: %w", err)
	}

	return page, nil
}

func (a *ResourceAPI) Categories(ctx context.Context) ([]string, error) {
	categories, err := pkghttp.Call[[]string](a.client.NewRequest(ctx), listCategoriesRoute)
	if err != nil {
		return nil, fmt.Errorf("resource.listCategories: %w", err)
	}

	return categories, nil
}

func (a *ResourceAPI) Stats(ctx context.Context) (Stats, error) {
	stats, err := pkghttp.Call[Stats](a.client.NewRequest(ctx), getStatsRoute)
	if err != nil {
		return Stats{}, fmt.Errorf("resource.getStats: %w", err)
	}

	return stats, nil
}

func (a *ResourceAPI) Related(ctx context.Context, resourceID int64) ([]Resource, error) {
	related, err := pkghttp.Call[[]Resource](a.resourceRequest(ctx, resourceID), listRelatedRoute)
	if err != nil {
		return nil, fmt.Errorf("resource.listRelated: %w", err)
	}

	return related, nil
}

func (a *ResourceAPI) resourceRequest(ctx context.Context, resourceID int64) *resty.Request {
	return a.client.NewRequest(ctx).SetPathParam("resourceID", strconv.FormatInt(resourceID, 10))
}
