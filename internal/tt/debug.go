//go:build ttdebug

package tt

import "fmt"

func checkDepth(d int) {
	if d <= DepthOffset || d > DepthMax {
		panic(fmt.Sprintf("tt: depth %d outside (%d, %d]", d, DepthOffset, DepthMax))
	}
}
