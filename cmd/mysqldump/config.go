package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gmemstr/mysqldump"
)

// fileConfig is the TOML file layout. The [options] table is decoded
// lazily so each key can be checked and typed individually; option keys
// the library does not recognize are rejected there.
type fileConfig struct {
	DSN     string                    `toml:"dsn"`
	Output  string                    `toml:"output"`
	Options map[string]toml.Primitive `toml:"options"`
}

type keepDataConfig struct {
	Column string   `toml:"column"`
	Rows   []string `toml:"rows"`
}

func loadConfig(path string) (*fileConfig, *mysqldump.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.DSN == "" {
		return nil, nil, fmt.Errorf("dsn is required")
	}

	settings, err := decodeSettings(md, cfg.Options)
	if err != nil {
		return nil, nil, err
	}
	// Keys under [options] count as decoded only once their primitives are.
	if unknown := md.Undecoded(); len(unknown) > 0 {
		keys := make([]string, len(unknown))
		for i, k := range unknown {
			keys[i] = k.String()
		}
		return nil, nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	opts, err := mysqldump.NewOptions(settings)
	if err != nil {
		return nil, nil, err
	}
	return &cfg, opts, nil
}

// decodeSettings types each [options] key by trying the value shapes the
// option set accepts. no-data is a bool or a table list; keep-data is a
// table of {column, rows}; everything else is a bool, int, string, or
// string list.
func decodeSettings(md toml.MetaData, prims map[string]toml.Primitive) (map[string]any, error) {
	settings := make(map[string]any, len(prims))
	for key, prim := range prims {
		switch key {
		case "keep-data":
			var kd map[string]keepDataConfig
			if err := md.PrimitiveDecode(prim, &kd); err != nil {
				return nil, fmt.Errorf("option %s: %w", key, err)
			}
			keep := make(map[string]mysqldump.KeepData, len(kd))
			for table, k := range kd {
				keep[table] = mysqldump.KeepData{Column: k.Column, Rows: k.Rows}
			}
			settings[key] = keep
		default:
			val, err := decodeScalar(md, prim)
			if err != nil {
				return nil, fmt.Errorf("option %s: %w", key, err)
			}
			settings[key] = val
		}
	}
	return settings, nil
}

func decodeScalar(md toml.MetaData, prim toml.Primitive) (any, error) {
	var b bool
	if err := md.PrimitiveDecode(prim, &b); err == nil {
		return b, nil
	}
	var n int
	if err := md.PrimitiveDecode(prim, &n); err == nil {
		return n, nil
	}
	var s string
	if err := md.PrimitiveDecode(prim, &s); err == nil {
		return s, nil
	}
	var l []string
	if err := md.PrimitiveDecode(prim, &l); err == nil {
		return l, nil
	}
	return nil, fmt.Errorf("unsupported value type")
}
