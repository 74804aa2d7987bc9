//go:build unix && !linux

package largepage

import "golang.org/x/sys/unix"

func osAlloc(size int) ([]byte, func([]byte) error, bool, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, false, err
	}
	return data, unix.Munmap, false, nil
}
