package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidMonthKey(t *testing.T) {
	valid := []string{"2026-01", "2026-09", "2026-12", "1999-07"}
	for _, key := range valid {
		assert.True(t, IsValidMonthKey(key), "expected %q to be valid", key)
	}

	invalid := []string{"", "2026-00", "2026-13", "2026-1", "26-01", "2026/01", "2026-01-15", "abcd-ef"}
	for _, key := range invalid {
		assert.False(t, IsValidMonthKey(key), "expected %q to be invalid", key)
	}
}
