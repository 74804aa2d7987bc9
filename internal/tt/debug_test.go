//go:build ttdebug

package tt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRejectsOutOfRangeDepth(t *testing.T) {
	tbl := newTable(t)
	key := bucketKey(9, 0xBEEF)
	e := tbl.Entry(key)

	require.PanicsWithValue(t, "tt: depth -7 outside (-7, 248]", func() {
		e.Save(key, 0, false, BoundExact, DepthOffset, e2e4, 0)
	})
	require.Panics(t, func() {
		e.Save(key, 0, false, BoundExact, DepthMax+1, e2e4, 0)
	})

	assert.NotPanics(t, func() {
		e.Save(key, 0, false, BoundNone, DepthNone, e2e4, 0)
		e.Save(key, 0, false, BoundExact, DepthMax, e2e4, 0)
	})
	assert.Equal(t, DepthMax, e.Depth())
}
