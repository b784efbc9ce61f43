// Package profile provides optional runtime profiling for denv.
//
// Profiling uses [github.com/pkg/profile] and is compiled in only with the
// "pprof" build tag. Without it, [Profiler.Start] is a no-op and [Modes]
// reports no modes.
//
// # Modes
//
// With the pprof tag, [Modes] lists the supported modes: allocs, block,
// clock, cpu, goroutine, heap, mem, mutex, thread and trace.
//
//	p := profile.Profiler{Mode: "cpu", Path: "/tmp/denv"}
//	defer p.Start().Stop()
//
// A profile named after the mode (cpu.pprof, mem.pprof and so on) is written
// to Path when Stop is called. From the command line:
//
//	go build -tags pprof .
//	./denv --pprof-mode cpu eval '${CC}'
//	go tool pprof -http=: ~/.cache/denv/pprof/cpu.pprof
//
// Importing the package with the tag also registers the [net/http/pprof]
// handlers on the default mux.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
