package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeEmail(t *testing.T) {
	subject, body, err := codeEmail("Acme <Portal>", "48213", 10*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, "Your Acme <Portal> sign-in code", subject)
	assert.Contains(t, body, "48213")
	assert.Contains(t, body, "Acme &lt;Portal&gt;")
	assert.Contains(t, body, "10 minutes")
}

func TestNewCode_Range(t *testing.T) {
	for i := 0; i < 2000; i++ {
		c, err := newCode()
		require.NoError(t, err)
		require.Len(t, c, 5)
		assert.GreaterOrEqual(t, c, "10000")
		assert.LessOrEqual(t, c, "99999")
	}
}
