package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFull ensures the version string contains all embedded fields.
func TestFull(t *testing.T) {
	t.Parallel()

	full := Full()
	require.Contains(t, full, Version)
	require.Contains(t, full, Commit)
	require.Contains(t, full, BuildTime)
	require.Equal(t, Version, Short())
}
