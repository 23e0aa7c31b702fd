package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ripple-mq/ripple-chat/pkg/utils/env"
)

const (
	DefaultPort       = 2504
	DefaultListenHost = "0.0.0.0"
	DefaultSeed       = "localhost:2504"
)

type Config struct {
	Node struct {
		Port         int    `toml:"port"`
		Default_port int    `toml:"default_port"`
		Listen_host  string `toml:"listen_host"`
		Seed         string `toml:"seed"`
		Username     string `toml:"username"`
	} `toml:"node"`
	Transport struct {
		Write_timeout_ms  int    `toml:"write_timeout_ms"`
		Dial_timeout_ms   int    `toml:"dial_timeout_ms"`
		Max_message_bytes uint32 `toml:"max_message_bytes"`
		Broadcast_workers int    `toml:"broadcast_workers"`
	} `toml:"transport"`
	Report struct {
		Schedule string `toml:"schedule"`
	} `toml:"report"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var c Config
	c.Node.Port = DefaultPort
	c.Node.Default_port = env.GetInt("CHAT_DEFAULT_PORT", DefaultPort)
	c.Node.Listen_host = env.Get("CHAT_LISTEN_HOST", DefaultListenHost)
	c.Node.Seed = DefaultSeed
	c.Transport.Write_timeout_ms = 5000
	c.Transport.Dial_timeout_ms = 10000
	c.Transport.Max_message_bytes = 1 << 20
	c.Transport.Broadcast_workers = 16
	c.Report.Schedule = "@every 1m"
	c.Log.Level = "info"
	return &c
}

// LoadConfig decodes the TOML file at path on top of Default.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}
	if _, err := toml.DecodeFile(path, config); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("decoding %s: %v", path, err)
	}
	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.Node.Port < 0 || c.Node.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Node.Port)
	}
	if c.Transport.Write_timeout_ms < 0 {
		return fmt.Errorf("invalid write timeout %dms", c.Transport.Write_timeout_ms)
	}
	if c.Transport.Dial_timeout_ms < 0 {
		return fmt.Errorf("invalid dial timeout %dms", c.Transport.Dial_timeout_ms)
	}
	if len(c.Node.Username) > 255 {
		return fmt.Errorf("username longer than 255 bytes")
	}
	if c.Transport.Broadcast_workers < 0 {
		return fmt.Errorf("invalid broadcast worker count %d", c.Transport.Broadcast_workers)
	}
	return nil
}

// ListenAddr is the address the node binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Node.Listen_host, strconv.Itoa(c.Node.Port))
}

// ShouldBootstrap reports whether the node dials its seed on startup.
// Only nodes on a non-default port join through the seed.
func (c *Config) ShouldBootstrap() bool {
	return c.Node.Seed != "" && c.Node.Port != c.Node.Default_port
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Transport.Write_timeout_ms) * time.Millisecond
}

// DialTimeout bounds the bootstrap dial. Zero waits for the OS connect timeout.
func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.Transport.Dial_timeout_ms) * time.Millisecond
}
