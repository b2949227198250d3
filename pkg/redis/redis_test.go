package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilClientAlwaysAcquires(t *testing.T) {
	var c *Client

	ok, err := c.AcquireOnce(context.Background(), "shift:dashboard:2024-03-10T06:00:00Z", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, c.Close())
}
