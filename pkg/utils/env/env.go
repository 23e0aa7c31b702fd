package env

import (
	"os"
	"strconv"
	"strings"
)

// Get returns the value of key, or def when it is unset or blank.
func Get(key string, def ...string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	if len(def) > 0 {
		return def[0]
	}
	return ""
}

// GetInt is Get for integers. Unparsable values fall back to def.
func GetInt(key string, def int) int {
	value := Get(key)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return n
}
