package strings_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klwxsrx/edu-resource-client/pkg/strings"
)

func TestParseTypedValue(t *testing.T) {
	b, err := strings.ParseTypedValue[bool]("true")
	require.NoError(t, err)
	assert.True(t, b)

	i, err := strings.ParseTypedValue[int]("42")
	require.NoError(t, err)
	assert.Equal(t, 42, i)

	d, err := strings.ParseTypedValue[time.Duration]("5m")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d)

	_, err = strings.ParseTypedValue[uint64]("-1")
	assert.Error(t, err)
}

func TestToScreamingSnakeCase(t *testing.T) {
	assert.Equal(t, "EDU_RESOURCE", strings.ToScreamingSnakeCase("edu-resource"))
}
