package helper

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("WARUNG22_TEST_VALUE", "  hello ")
	assert.Equal(t, "hello", GetEnv("WARUNG22_TEST_VALUE", "x"))

	t.Setenv("WARUNG22_TEST_VALUE", "   ")
	assert.Equal(t, "x", GetEnv("WARUNG22_TEST_VALUE", "x"))
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 7},
		{"12", 12},
		{"abc", 7},
		{"0", 7},
		{"-3", 7},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv("WARUNG22_TEST_INT", tt.raw)
			assert.Equal(t, tt.want, GetEnvAsInt("WARUNG22_TEST_INT", 7))
		})
	}
}

func TestGetEnvAsSeconds(t *testing.T) {
	t.Setenv("WARUNG22_TEST_SECONDS", "4")
	assert.Equal(t, 4*time.Second, GetEnvAsSeconds("WARUNG22_TEST_SECONDS", 1))
}

func TestNewLoggerLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, NewLogger("DEBUG", "json").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger("", "console").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger("loud", "console").GetLevel())
}
