// Package config provides fail-open environment configuration loading.
//
// Every loader returns a usable value: when a variable is unset the default
// is used silently, and when it is set but cannot be parsed or validated the
// default is used and a warning is produced. Callers log the warnings and
// record them in ConfigMetrics, but never abort startup because of them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Result represents the result of loading a configuration value.
//
// Fields:
//   - Value: The loaded configuration value (the default if loading failed)
//   - Warnings: One message per fallback applied
//   - FallbackApplied: True if the default was used because the value was invalid
//
// Example:
//
//	res := LoadEnvDuration("FEED_POLL_INTERVAL", 5*time.Minute, ValidatePositiveDuration)
//	for _, w := range res.Warnings {
//	    logger.Warn("configuration fallback", slog.String("warning", w))
//	}
//	interval := res.Value
type Result[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// Parser converts the raw string of an environment variable into T.
type Parser[T any] func(string) (T, error)

// LoadEnv is the generic loader behind the typed helpers below.
//
// Loading behavior:
//  1. Read environment variable (surrounding whitespace is ignored)
//  2. If not set or empty: use default value (no warning)
//  3. Parse the value; on failure use the default and warn
//  4. Validate the parsed value; on failure use the default and warn
//
// Warning format:
//
//	"Invalid {envKey}='{value}': {error}, falling back to default '{default}'"
func LoadEnv[T any](envKey string, defaultValue T, parse Parser[T], validator func(T) error) Result[T] {
	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		return Result[T]{Value: defaultValue}
	}

	parsed, err := parse(raw)
	if err != nil {
		return fallback(envKey, raw, defaultValue, err)
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(envKey, raw, defaultValue, err)
		}
	}

	return Result[T]{Value: parsed}
}

func fallback[T any](envKey, raw string, defaultValue T, err error) Result[T] {
	return Result[T]{
		Value: defaultValue,
		Warnings: []string{fmt.Sprintf(
			"Invalid %s='%s': %v, falling back to default '%v'",
			envKey, raw, err, defaultValue,
		)},
		FallbackApplied: true,
	}
}

// LoadEnvString loads a string without validation.
// If the variable is not set, the default value is returned.
func LoadEnvString(envKey, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(envKey))
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a string and validates it.
//
// Example:
//
//	res := LoadEnvWithFallback("KEEPALIVE_SCHEDULE", "*/10 * * * *", ValidateCronSchedule)
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) Result[string] {
	return LoadEnv(envKey, defaultValue, parseString, validator)
}

// LoadEnvDuration loads a Go duration string ("30s", "5m", "1h30m").
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) Result[time.Duration] {
	return LoadEnv(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer.
//
// Example:
//
//	res := LoadEnvInt("FEED_BATCH_LIMIT", 6, func(v int) error {
//	    return ValidateIntRange(v, 1, 50)
//	})
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) Result[int] {
	return LoadEnv(envKey, defaultValue, parseInt, validator)
}

// LoadEnvFloat loads a floating point number, e.g. a requests-per-second rate.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) Result[float64] {
	return LoadEnv(envKey, defaultValue, parseFloat, validator)
}

// LoadEnvBool loads a boolean.
//
// Accepted values:
//   - True: "1", "t", "T", "true", "TRUE", "True"
//   - False: "0", "f", "F", "false", "FALSE", "False"
//
// Anything else falls back to the default with a warning.
func LoadEnvBool(envKey string, defaultValue bool) Result[bool] {
	return LoadEnv(envKey, defaultValue, parseBool, nil)
}

func parseString(s string) (string, error) { return s, nil }

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format")
	}
	return v, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number format")
	}
	return v, nil
}

func parseBool(s string) (bool, error) {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid boolean format, expected 'true' or 'false'")
	}
	return v, nil
}
