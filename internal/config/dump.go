// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package config

import (
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// YAML renders the redacted configuration in the same layout Load reads.
func (c Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return nil, oops.Code("CONFIG_DUMP_FAILED").Wrap(err)
	}
	return out, nil
}

// FileYAML renders c for writing to a config file. The session secret is
// left out so it keeps coming from SESSION_SECRET.
func (c Config) FileYAML() ([]byte, error) {
	c.Session.Secret = ""
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, oops.Code("CONFIG_DUMP_FAILED").Wrap(err)
	}
	return out, nil
}
