// Package env reads process environment variables with fallbacks. It covers
// the few knobs consulted before the typed config is loaded, such as the log
// format.
package env

import "os"

// Get returns the variable's value, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
