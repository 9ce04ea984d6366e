package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
)

var (
	ErrRejected        = errors.New("request rejected")
	ErrInvalidResponse = errors.New("invalid response")
)

type (
	Envelope[T any] struct {
		Success bool   `json:"success"`
		Message string `json:"message,omitempty"`
		Data    T      `json:"data"`
	}

	RejectedError struct {
		Message string
	}
)

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return ErrRejected.Error()
	}
	return fmt.Sprintf("%s: %s", ErrRejected.Error(), e.Message)
}

func (e *RejectedError) Unwrap() error {
	return ErrRejected
}

// ParseEnvelope returns the payload of a success envelope. Bodies that are not
// envelopes are decoded into T as is.
func ParseEnvelope[T any](resp *resty.Response) (T, error) {
	var result T
	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 {
		return result, nil
	}

	var probe struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &probe); err != nil || probe.Success == nil {
		err = json.Unmarshal(body, &result)
		if err != nil {
			return result, fmt.Errorf("%w: decode payload: %w", ErrInvalidResponse, err)
		}
		return result, nil
	}

	if !*probe.Success {
		return result, &RejectedError{Message: probe.Message}
	}

	var envelope Envelope[T]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return result, fmt.Errorf("%w: decode envelope: %w", ErrInvalidResponse, err)
	}

	return envelope.Data, nil
}

// Call executes the route and returns the unwrapped payload.
func Call[T any](req *resty.Request, route Route) (T, error) {
	resp, err := req.Execute(route.Method, route.URL)
	if err != nil {
		var result T
		return result, fmt.Errorf("request %s: %w", route, err)
	}

	result, err := ParseEnvelope[T](resp)
	if err != nil {
		return result, fmt.Errorf("response %s: %w", route, err)
	}

	return result, nil
}

// Exec runs a call whose payload is irrelevant, rejected envelopes still fail.
func Exec(req *resty.Request, route Route) error {
	_, err := Call[json.RawMessage](req, route)
	return err
}
