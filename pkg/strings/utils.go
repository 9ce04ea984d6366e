package strings

import (
	"fmt"
	"strconv"
	"time"
)

type SupportedValueParsingTypes interface {
	bool | int | uint64 | float64 | string | time.Duration
}

func ParseTypedValue[T SupportedValueParsingTypes](value string) (T, error) {
	var v any
	var err error
	var blank T
	switch any(blank).(type) {
	case bool:
		v, err = strconv.ParseBool(value)
	case int:
		v, err = strconv.Atoi(value)
	case uint64:
		v, err = strconv.ParseUint(value, 10, 64)
	case float64:
		v, err = strconv.ParseFloat(value, 64)
	case string:
		v = value
	case time.Duration:
		v, err = time.ParseDuration(value)
	default:
		return blank, fmt.Errorf("unsupported value type %T", blank)
	}
	if err != nil {
		return blank, fmt.Errorf("convert to type %T: %w", blank, err)
	}

	return v.(T), nil
}
