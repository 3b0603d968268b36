package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/study-planner/internal/persistence"
	"github.com/example/study-planner/internal/scheduler"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	assert.Equal(t, "", err.Error())
	assert.Equal(t, "validation failed", (&ValidationError{}).Error())
	assert.Equal(t, "validation failed", (&ValidationError{FieldErrors: map[string]string{"field": "invalid"}}).Error())
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	assert.False(t, base.HasErrors())

	base.add("first", "value")
	base.add("first", "ignored")
	assert.Equal(t, "value", base.FieldErrors["first"])

	base.merge(&ValidationError{FieldErrors: map[string]string{"second": "another"}})
	base.merge(nil)
	assert.Len(t, base.FieldErrors, 2)
	assert.True(t, base.HasErrors())
}

func TestMapRepoError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, mapRepoError(nil))
	assert.ErrorIs(t, mapRepoError(fmt.Errorf("wrapped: %w", persistence.ErrNotFound)), ErrNotFound)
	assert.ErrorIs(t, mapRepoError(persistence.ErrDuplicate), ErrAlreadyExists)

	var vErr *ValidationError
	assert.ErrorAs(t, mapRepoError(persistence.ErrForeignKeyViolation), &vErr)

	other := errors.New("disk full")
	assert.Same(t, other, mapRepoError(other))
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		"":                  nil,
		"unauthorized":      ErrUnauthorized,
		"not_found":         fmt.Errorf("lookup: %w", ErrNotFound),
		"already_exists":    ErrAlreadyExists,
		"canceled":          context.Canceled,
		"schedule_conflict": &ConflictError{Conflicts: []scheduler.ConflictItem{{ID: "x"}}},
		"validation":        &ValidationError{},
		"unexpected":        errors.New("boom"),
	}
	for want, err := range cases {
		assert.Equal(t, want, ErrorKind(err))
	}
}

func TestConflictErrorMessage(t *testing.T) {
	t.Parallel()

	err := &ConflictError{Conflicts: make([]scheduler.ConflictItem, 2)}
	assert.Equal(t, "schedule conflict with 2 item(s)", err.Error())
}
