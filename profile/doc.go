// Package profile provides optional runtime profiling for tryparse.
//
// Profiling is compiled in only with the "pprof" build tag, which links
// [github.com/pkg/profile]. Without the tag, [Modes] is empty and
// [Profiler.Start] returns a no-op.
//
//	go build -tags pprof -o tryparse .
//	tryparse --pprof-mode=cpu check testdata/*.try
//
// # Modes
//
//   - allocs:    memory allocation profiling (all allocations)
//   - block:     blocking profiling
//   - clock:     wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: goroutine profiling
//   - heap:      heap profiling (live allocations)
//   - mem:       general memory profiling
//   - mutex:     mutex contention profiling
//   - thread:    thread creation profiling
//   - trace:     execution trace
//
// Profiles are written to the configured directory, by default
// $XDG_CACHE_HOME/tryparse/pprof, and are read with go tool pprof:
//
//	go tool pprof -http=: ~/.cache/tryparse/pprof/cpu.pprof
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
