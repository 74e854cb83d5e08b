package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldMigrate(t *testing.T) {
	// Dev modes always migrate; release only when forced.
	assert.True(t, shouldMigrate("debug", false))
	assert.True(t, shouldMigrate("test", false))
	assert.True(t, shouldMigrate("release", true))
	assert.False(t, shouldMigrate("release", false))
}
