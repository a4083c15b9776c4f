package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// LoadEnvString
// ============================================================================

func TestLoadEnvString(t *testing.T) {
	t.Run("with value", func(t *testing.T) {
		t.Setenv("TEST_STRING", "custom_value")
		assert.Equal(t, "custom_value", LoadEnvString("TEST_STRING", "default_value"))
	})

	t.Run("unset", func(t *testing.T) {
		assert.Equal(t, "default_value", LoadEnvString("TEST_STRING_UNSET", "default_value"))
	})

	t.Run("blank uses default", func(t *testing.T) {
		t.Setenv("TEST_STRING", "   ")
		assert.Equal(t, "default_value", LoadEnvString("TEST_STRING", "default_value"))
	})
}

// ============================================================================
// LoadEnvWithFallback
// ============================================================================

func TestLoadEnvWithFallback_ValidValue(t *testing.T) {
	t.Setenv("TEST_CRON", "0 6 * * *")

	result := LoadEnvWithFallback("TEST_CRON", "*/10 * * * *", ValidateCronSchedule)

	assert.Equal(t, "0 6 * * *", result.Value)
	assert.Empty(t, result.Warnings)
	assert.False(t, result.FallbackApplied)
}

func TestLoadEnvWithFallback_Unset(t *testing.T) {
	result := LoadEnvWithFallback("TEST_CRON_UNSET", "*/10 * * * *", ValidateCronSchedule)

	assert.Equal(t, "*/10 * * * *", result.Value)
	assert.Empty(t, result.Warnings)
	assert.False(t, result.FallbackApplied)
}

func TestLoadEnvWithFallback_InvalidValue(t *testing.T) {
	t.Setenv("TEST_CRON", "not a cron")

	result := LoadEnvWithFallback("TEST_CRON", "*/10 * * * *", ValidateCronSchedule)

	assert.Equal(t, "*/10 * * * *", result.Value)
	assert.True(t, result.FallbackApplied)
	assert.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Invalid TEST_CRON='not a cron'")
	assert.Contains(t, result.Warnings[0], "falling back to default '*/10 * * * *'")
}

func TestLoadEnvWithFallback_NilValidator(t *testing.T) {
	t.Setenv("TEST_ANY", "whatever")

	result := LoadEnvWithFallback("TEST_ANY", "default", nil)

	assert.Equal(t, "whatever", result.Value)
	assert.False(t, result.FallbackApplied)
}

// ============================================================================
// Typed loaders
// ============================================================================

func TestLoadEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		want         time.Duration
		wantFallback bool
	}{
		{"valid", "90s", 90 * time.Second, false},
		{"unparseable", "five minutes", 5 * time.Minute, true},
		{"fails validation", "-1s", 5 * time.Minute, true},
		{"unset", "", 5 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)

			result := LoadEnvDuration("TEST_DURATION", 5*time.Minute, ValidatePositiveDuration)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
		})
	}
}

func TestLoadEnvInt(t *testing.T) {
	inRange := func(v int) error { return ValidateIntRange(v, 1, 50) }

	tests := []struct {
		name         string
		value        string
		want         int
		wantFallback bool
	}{
		{"valid", "12", 12, false},
		{"trailing garbage", "12abc", 6, true},
		{"decimal", "1.5", 6, true},
		{"above range", "51", 6, true},
		{"below range", "0", 6, true},
		{"unset", "", 6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.value)

			result := LoadEnvInt("TEST_INT", 6, inRange)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
			if tt.wantFallback {
				assert.Len(t, result.Warnings, 1)
			}
		})
	}
}

func TestLoadEnvFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.5")
	result := LoadEnvFloat("TEST_FLOAT", 2, func(v float64) error { return ValidateFloatRange(v, 0.1, 10) })
	assert.Equal(t, 0.5, result.Value)
	assert.False(t, result.FallbackApplied)

	t.Setenv("TEST_FLOAT", "fast")
	result = LoadEnvFloat("TEST_FLOAT", 2, nil)
	assert.Equal(t, 2.0, result.Value)
	assert.True(t, result.FallbackApplied)
	assert.Contains(t, result.Warnings[0], "invalid number format")
}

func TestLoadEnvBool(t *testing.T) {
	tests := []struct {
		value        string
		want         bool
		wantFallback bool
	}{
		{"true", true, false},
		{"TRUE", true, false},
		{"1", true, false},
		{"f", false, false},
		{"False", false, false},
		{"yes", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)

			result := LoadEnvBool("TEST_BOOL", true)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
		})
	}
}
