// Package cli contains the command line interface for denv.
//
// # Usage
//
//	denv [flags] [eval] EXPR...
//	denv [flags] get NAME [--split | --one | --bool]
//	denv [flags] dump [--eval] [--format text|json|yaml]
//	denv [flags] init [--force]
//	denv [flags] repl
//
// Variables come from YAML tables named with -f, applied in order, and from
// --set (-D) assignments applied last:
//
//	denv -f toolchain.yaml -D DEBUG=1 '${CC} ${DEBUG ? -g : -O2}'
//
// # Configuration
//
// Flag defaults are read from config.yaml in the user configuration
// directory (for example ~/.config/denv/config.yaml). Flag values live under
// the "config" key, spelled with hyphens or underscores:
//
//	config:
//	  log-level: debug
//	  max_depth: 50
//	  file: [toolchain.yaml]
//
// Command-line flags override values from the file. The init command writes
// the current flag values to this file.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, none, etc.)
//   - --log-caller: Include caller information in log output
//   - --[no-]log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o denv .
//
// It adds --pprof-mode (block, cpu, goroutine, mem, mutex, thread, trace...)
// and --pprof-dir, which defaults to the pprof directory inside the user
// cache directory.
package cli
