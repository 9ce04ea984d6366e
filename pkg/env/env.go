package env

import (
	"fmt"
	"os"
	"strings"

	pkgstrings "github.com/klwxsrx/edu-resource-client/pkg/strings"
)

func Must[T any](val T, err error) T {
	if err != nil {
		panic(fmt.Errorf("parse environment: %w", err))
	}
	return val
}

func Parse[T pkgstrings.SupportedValueParsingTypes](key string) (T, error) {
	str, ok := lookup(key)
	if !ok {
		var blank T
		return blank, notFoundError[T](key)
	}

	val, err := pkgstrings.ParseTypedValue[T](str)
	if err != nil {
		return val, invalidValueError[T](key, err)
	}

	return val, nil
}

func ParseOptional[T pkgstrings.SupportedValueParsingTypes](key string) (*T, error) {
	str, ok := lookup(key)
	if !ok {
		return nil, nil
	}

	val, err := pkgstrings.ParseTypedValue[T](str)
	if err != nil {
		return nil, invalidValueError[T](key, err)
	}

	return &val, nil
}

func ParseWithDefault[T pkgstrings.SupportedValueParsingTypes](key string, defaultValue T) (T, error) {
	val, err := ParseOptional[T](key)
	if err != nil {
		return defaultValue, err
	}
	if val == nil {
		return defaultValue, nil
	}

	return *val, nil
}

func lookup(key string) (string, bool) {
	str, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(str) == "" {
		return "", false
	}

	return strings.TrimSpace(str), true
}

func notFoundError[T any](key string) error {
	var blank T
	return fmt.Errorf("env %s with type %T not found", key, blank)
}

func invalidValueError[T any](key string, err error) error {
	var blank T
	return fmt.Errorf("env %s with type %T has invalid value: %w", key, blank, err)
}
