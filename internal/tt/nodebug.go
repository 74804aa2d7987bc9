//go:build !ttdebug

package tt

// checkDepth is a no-op in release builds; build with -tags ttdebug to
// catch depths that do not fit the entry's depth byte.
func checkDepth(int) {}
