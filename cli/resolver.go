package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/tryparse/log"
)

// resolveYAML is a [kong.ConfigurationLoader] for YAML configuration files.
//
//	kong.Configuration(resolveYAML, "/path/to/config.yaml")
//
// Keys name flags. Nested mappings are joined with hyphens, and underscores
// are read as hyphens, so each of these sets --log-level:
//
//	log-level: debug
//	log_level: debug
//	log:
//	  level: debug
//
// Numbers are passed to kong as strings for it to parse. A file that is not
// valid YAML is ignored with a warning. Command-line flags override config
// file values.
func resolveYAML(r io.Reader) (kong.Resolver, error) {
	var raw map[string]any

	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if !errors.Is(err, io.EOF) {
			log.Warn("ignoring invalid configuration file", slog.Any("error", err))
		}

		return config{}, nil
	}

	cfg := config{}
	cfg.flatten("", raw)

	return cfg, nil
}

// config implements [kong.Resolver] over flattened flag names.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	return nil, nil
}

func (c config) flatten(prefix string, m map[string]any) {
	for key, value := range m {
		name := prefix + strings.ReplaceAll(key, "_", "-")

		if sub, ok := value.(map[string]any); ok {
			c.flatten(name+"-", sub)

			continue
		}

		c[name] = flagValue(value)
	}
}

// flagValue converts a decoded YAML value to a form kong can map.
func flagValue(v any) any {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = flagValue(e)
		}

		return out
	case nil, string, bool:
		return v
	default:
		return fmt.Sprint(v)
	}
}
