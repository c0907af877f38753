// Package cli contains the command line interface for tryparse.
//
// # Usage
//
//	tryparse [flags] <command> [args]
//
//	tryparse check tests/*.try
//	tryparse fmt json --indent=4 basic_try.rb
//	tryparse list --where '"exception" in types' tests/*.try
//	tryparse init --sample example.try
//
// # Configuration
//
// Flag defaults are read from config.json and config.yaml in the user
// configuration directory ($XDG_CONFIG_HOME/tryparse on Linux). The YAML
// loader accepts flag names with hyphens or underscores, and nested
// mappings whose keys join into a flag name:
//
//	log:
//	  level: debug
//	  format: json
//	directives: [boot, configure, path, start]
//
// Command-line flags override configuration files. The init command writes
// the current flag values to config.yaml.
//
// # Logging Options
//
//   - --log-level: minimum log level (trace, debug, info, warn, error)
//   - --log-format: log output format (text, json)
//   - --log-time-layout: timestamp layout, a [time] layout name, or none
//   - --[no-]log-caller: include caller information
//   - --[no-]log-pretty: colorize log output on terminals
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o tryparse .
//
//   - --pprof-mode: profiling mode (see package profile)
//   - --pprof-dir: profile output directory
package cli
