// Package largepage allocates big, zeroed, long-lived memory regions outside
// the Go heap, asking the operating system for huge pages where it supports
// them.
//
// On Linux the region is an anonymous private mapping advised with
// MADV_HUGEPAGE so transparent huge pages can back it. On Windows a
// MEM_LARGE_PAGES allocation is attempted first; it needs the "Lock pages in
// memory" privilege and silently falls back to ordinary pages without it.
// Other Unix systems get a plain anonymous mapping. When the operating system
// refuses, the region falls back to an ordinary heap allocation.
//
// Regions must not hold Go pointers: the garbage collector does not scan
// mapped memory.
package largepage
