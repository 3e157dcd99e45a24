package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("CHODEWARS_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnv("CHODEWARS_TEST_VALUE", "default"))

	t.Setenv("CHODEWARS_TEST_VALUE", "")
	assert.Equal(t, "default", GetEnv("CHODEWARS_TEST_VALUE", "default"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("CHODEWARS_TEST_INT", "42")
	assert.Equal(t, 42, GetEnvInt("CHODEWARS_TEST_INT", 7))

	t.Setenv("CHODEWARS_TEST_INT", "forty-two")
	assert.Equal(t, 7, GetEnvInt("CHODEWARS_TEST_INT", 7))
}
