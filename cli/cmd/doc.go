// Package cmd implements the denv subcommands.
//
// Every command builds a [lang.Store] from the shared [Env] flags: the
// builtin host functions are registered, variable tables named with -f are
// loaded in order, and --set assignments are applied last.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"
)
