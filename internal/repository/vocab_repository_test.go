package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"
)

// A failed quiz must write "studying" even over an existing "learned" row;
// the status column is never omitted from the upsert.
func TestQuizAssignmentsAlwaysWriteStatus(t *testing.T) {
	now := time.Now()

	failed := quizAssignments(false, now)
	require.Contains(t, failed, "status")
	assert.Equal(t, "studying", failed["status"])

	passed := quizAssignments(true, now)
	require.Contains(t, passed, "status")
	assert.Equal(t, "learned", passed["status"])

	// The counter increments in the database, the timestamp is the quiz time.
	_, ok := failed["quiz_count"].(clause.Expr)
	assert.True(t, ok)
	assert.Equal(t, now, failed["last_quiz_at"])
}

func TestQuizStatus(t *testing.T) {
	assert.Equal(t, "learned", quizStatus(true))
	assert.Equal(t, "studying", quizStatus(false))
}
