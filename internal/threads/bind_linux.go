//go:build linux

package threads

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// Bind locks the calling goroutine to its OS thread and pins that thread to
// the idx-th CPU the process may run on (modulo the CPU count). The goroutine
// must not call runtime.UnlockOSThread afterwards: when it exits, the runtime
// discards the pinned thread instead of reusing it elsewhere.
func Bind(idx int) error {
	runtime.LockOSThread()

	var allowed unix.CPUSet
	if err := unix.SchedGetaffinity(0, &allowed); err != nil {
		return err
	}
	cpus := make([]int, 0, allowed.Count())
	for cpu := 0; len(cpus) < cap(cpus); cpu++ {
		if allowed.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	if len(cpus) == 0 {
		return nil
	}

	var set unix.CPUSet
	set.Set(cpus[idx%len(cpus)])
	return unix.SchedSetaffinity(0, &set)
}
