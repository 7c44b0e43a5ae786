package payments

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptGenerator(t *testing.T) {
	g, err := NewReceiptGenerator("test-salt")
	require.NoError(t, err)

	first, err := g.Generate(42)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first, "rcpt_"))
	assert.GreaterOrEqual(t, len(first), len("rcpt_")+12)

	second, err := g.Generate(42)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
