//go:build windows

package largepage

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func osAlloc(size int) ([]byte, func([]byte) error, bool, error) {
	if large := int(windows.GetLargePageMinimum()); large > 0 {
		rounded := roundUp(size, large)
		addr, err := windows.VirtualAlloc(0, uintptr(rounded),
			windows.MEM_RESERVE|windows.MEM_COMMIT|windows.MEM_LARGE_PAGES, windows.PAGE_READWRITE)
		if err == nil {
			return view(addr, size), release(addr), true, nil
		}
	}

	addr, err := windows.VirtualAlloc(0, uintptr(size),
		windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return nil, nil, false, err
	}
	return view(addr, size), release(addr), false, nil
}

func view(addr uintptr, size int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}

func release(addr uintptr) func([]byte) error {
	return func([]byte) error {
		return windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
	}
}
