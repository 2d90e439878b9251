package verity_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruuda/miniserver/verity"
)

func TestUUID_deterministic(t *testing.T) {
	t.Parallel()

	a, err := verity.UUID(strings.NewReader("image contents"))
	require.NoError(t, err)
	b, err := verity.UUID(strings.NewReader("image contents"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEqual(t, uuid.Nil, a)

	c, err := verity.UUID(strings.NewReader("other contents"))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestSalt(t *testing.T) {
	t.Parallel()

	a, err := verity.Salt(strings.NewReader("image contents"))
	require.NoError(t, err)
	assert.Len(t, a, 64)
	_, err = hex.DecodeString(a)
	require.NoError(t, err)

	b, err := verity.Salt(strings.NewReader("image contents"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := verity.Salt(strings.NewReader("other contents"))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
