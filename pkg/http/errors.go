package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrServerError   = errors.New("server error")
	ErrRequestFailed = errors.New("request failed")
)

type (
	StatusError struct {
		Code    int
		Message string
	}

	StatusErrorHandler func(ctx context.Context, req *resty.Request, err *StatusError)

	TransportErrorHandler func(ctx context.Context, req *resty.Request, err error)
)

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Code == http.StatusForbidden:
		return ErrForbidden
	case e.Code == http.StatusNotFound:
		return ErrNotFound
	case e.Code >= http.StatusInternalServerError:
		return ErrServerError
	default:
		return ErrRequestFailed
	}
}

// WithStatusErrors fails every non-2xx call with *StatusError.
// Handlers observe the error before it is returned to the caller.
func WithStatusErrors(handlers ...StatusErrorHandler) ClientOption {
	return func(c *ClientImpl) {
		c.RESTClient.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			if resp.IsSuccess() {
				return nil
			}

			statusErr := &StatusError{
				Code:    resp.StatusCode(),
				Message: responseMessage(resp),
			}
			for _, handler := range handlers {
				handler(resp.Request.Context(), resp.Request, statusErr)
			}

			return statusErr
		})
	}
}

func WithTransportErrorHandler(handler TransportErrorHandler) ClientOption {
	return func(c *ClientImpl) {
		c.RESTClient.OnError(func(req *resty.Request, err error) {
			if !IsTransportError(err) {
				return
			}

			handler(req.Context(), req, err)
		})
	}
}

// IsTransportError reports whether the call failed before any response was received.
// Errors of canceled calls are excluded.
func IsTransportError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var respErr *resty.ResponseError
	if errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.RawResponse != nil {
		return false
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func responseMessage(resp *resty.Response) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
		return body.Message
	}

	return http.StatusText(resp.StatusCode())
}
