//go:build !unix && !windows

package largepage

import "errors"

func osAlloc(int) ([]byte, func([]byte) error, bool, error) {
	return nil, nil, false, errors.New("largepage: no OS allocator on this platform")
}
