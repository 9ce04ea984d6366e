package eduapi

import "strconv"

const (
	defaultPage     = 1
	defaultPageSize = 20
)

type (
	Page[T any] struct {
		List       []T `json:"list"`
		Total      int `json:"total"`
		Page       int `json:"page"`
		PageSize   int `json:"pageSize"`
		TotalPages int `json:"totalPages"`
	}

	PageQuery struct {
		Page     int `json:"page" validate:"gte=0"`
		PageSize int `json:"pageSize" validate:"gte=0,lte=100"`
	}
)

func (q PageQuery) params() map[string]string {
	page, pageSize := q.Page, q.PageSize
	if page == 0 {
		page = defaultPage
	}
	if pageSize == 0 {
		pageSize = defaultPageSize
	}

	return map[string]string{
		"page":     strconv.Itoa(page),
		"pageSize": strconv.Itoa(pageSize),
	}
}
