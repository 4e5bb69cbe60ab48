package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("  short ", 10))
	assert.Equal(t, "résu...", Truncate("résumé", 4))
	assert.Equal(t, "", Truncate("anything", 0))
}

func TestNew(t *testing.T) {
	l, err := New(true, true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))
	assert.NotNil(t, OrNop(nil))
}
