package target

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAddress(t *testing.T) {
	for _, ok := range []string{"10.0.0.1", "192.168.1.254", " 8.8.8.8 "} {
		require.NoError(t, ValidateAddress(ok), ok)
	}
	for _, bad := range []string{"", "example.com", "10.0.0", "::1", "300.1.1.1", "10.0.0.1:80"} {
		require.ErrorIs(t, ValidateAddress(bad), ErrInvalidAddress, bad)
	}
}

func TestStatusKnown(t *testing.T) {
	require.True(t, StatusUp.Known())
	require.True(t, StatusDown.Known())
	require.False(t, StatusUnknown.Known())
	require.False(t, Status("").Known())
	require.Equal(t, StatusUp, StatusFromAlive(true))
	require.Equal(t, StatusDown, StatusFromAlive(false))
}
