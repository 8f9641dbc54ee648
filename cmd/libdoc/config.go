package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// LoadConfig is a kong.ConfigurationLoader for YAML files. Keys are flag
// names; underscores and nested mappings are joined with dashes, so
// "cache_dir" and "cache: {dir: ...}" both set --cache-dir. Lists become
// comma-separated values.
func LoadConfig(r io.Reader) (kong.Resolver, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	values := map[string]string{}
	flatten("", raw, values)

	return kong.ResolverFunc(func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		v, ok := values[flag.Name]
		if !ok {
			return nil, nil
		}
		return v, nil
	}), nil
}

func flatten(prefix string, m map[string]any, out map[string]string) {
	for k, v := range m {
		key := strings.ReplaceAll(strings.ToLower(k), "_", "-")
		if prefix != "" {
			key = prefix + "-" + key
		}
		switch v := v.(type) {
		case map[string]any:
			flatten(key, v, out)
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			out[key] = strings.Join(parts, ",")
		case nil:
		default:
			out[key] = fmt.Sprint(v)
		}
	}
}
