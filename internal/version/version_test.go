package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsVersionGreaterOrEqualThan(t *testing.T) {
	require.True(t, IsVersionGreaterOrEqualThan("0.3.1", "0.3.0"))
	require.True(t, IsVersionGreaterOrEqualThan("0.3.1", "0.3.1"))
	require.False(t, IsVersionGreaterOrEqualThan("0.2.9", "0.3.0"))
}

func TestIsVersionGreaterThan(t *testing.T) {
	require.True(t, IsVersionGreaterThan("1.0.0", "0.9.9"))
	require.False(t, IsVersionGreaterThan("0.3.1", "0.3.1"))
}

func TestGetMinorVersion(t *testing.T) {
	require.Equal(t, "0.3", GetMinorVersion("0.3.1"))
	require.Equal(t, "", GetMinorVersion("0.3"))
}
