package config

import "github.com/mohae/deepcopy"

// Clone returns an independent copy of c.
func (c *Config) Clone() *Config {
	cp := deepcopy.Copy(*c).(Config)
	return &cp
}
