// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

package dynprops

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the file representation of the DynProps options.
//
// Example:
//
//	tagKey: db
//	privateAccess: false
//	reservedNames: [id, version]
//	filter: "kind != 'func'"
//	verbose: true
type Config struct {
	TagKey        string   `yaml:"tagKey"`
	PrivateAccess *bool    `yaml:"privateAccess"`
	ReservedNames []string `yaml:"reservedNames"`
	Filter        string   `yaml:"filter"`
	Verbose       bool     `yaml:"verbose"`
}

// ParseConfig decodes a YAML configuration.
func ParseConfig(data []byte) (*Config, error) {
	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing dynprops config: %w", err)
	}
	return config, nil
}

// LoadConfig reads and decodes a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading dynprops config: %w", err)
	}
	return ParseConfig(data)
}

// Options converts the configuration into DynProps options.
// Unset fields keep their defaults.
func (c *Config) Options() []DynPropsOption {
	opts := []DynPropsOption{}
	if c.TagKey != "" {
		opts = append(opts, WithTagKey(c.TagKey))
	}
	if c.PrivateAccess != nil && !*c.PrivateAccess {
		opts = append(opts, WithoutPrivateAccess())
	}
	if len(c.ReservedNames) > 0 {
		opts = append(opts, WithReservedNames(c.ReservedNames...))
	}
	if c.Filter != "" {
		opts = append(opts, WithPropertyFilter(c.Filter))
	}
	if c.Verbose {
		opts = append(opts, WithVerbose())
	}
	return opts
}
