package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOTPCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := NewOTPCode(6)
		require.NoError(t, err)
		// Always exactly six digits; small values get leading zeros.
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "non-digit in code %q", code)
		}
	}
}

func TestHashOTP(t *testing.T) {
	assert.Equal(t, HashOTP("042137"), HashOTP("042137"))
	assert.NotEqual(t, HashOTP("042137"), HashOTP("042138"))
	assert.Len(t, HashOTP("042137"), 64)
}
