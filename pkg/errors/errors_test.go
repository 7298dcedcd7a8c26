package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/shipref/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := pkgerrors.NewNotFoundError("document", "user-1")
		assert.Equal(t, "document with ID user-1 not found", err.Error())
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("wrapped error", func(t *testing.T) {
		wrapped := fmt.Errorf("patch: %w", pkgerrors.NewNotFoundError("document", "x"))
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	err := pkgerrors.NewValidationError("slug", "", "cannot be empty")
	assert.Equal(t, "validation failed for field slug: cannot be empty", err.Error())
	assert.True(t, pkgerrors.IsValidationError(err))

	assert.Nil(t, pkgerrors.WrapValidation("slug", nil))
	assert.True(t, pkgerrors.IsValidationError(pkgerrors.WrapValidation("slug", errors.New("bad"))))
}

func TestCatalogError(t *testing.T) {
	base := errors.New("connection refused")
	err := pkgerrors.NewCatalogError("postgres", base)

	assert.Contains(t, err.Error(), "postgres")
	assert.True(t, pkgerrors.IsCatalogUnavailable(err))
	assert.ErrorIs(t, err, base)
}

func TestPersistError(t *testing.T) {
	base := errors.New("disk full")
	err := pkgerrors.NewPersistError("users", "u1", "ships", base)

	assert.Equal(t, "failed to persist users/u1 field ships: disk full", err.Error())
	assert.ErrorIs(t, err, base)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain error", errors.New("boom"), 1},
		{"exit error", pkgerrors.NewExitError(3, pkgerrors.ErrUnmatchedNames), 3},
		{"wrapped exit error", fmt.Errorf("run: %w", pkgerrors.NewExitError(1, nil)), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pkgerrors.ExitCode(tt.err))
		})
	}
}

func TestExitErrorUnwrap(t *testing.T) {
	err := pkgerrors.NewExitError(1, pkgerrors.ErrUnmatchedNames)
	assert.ErrorIs(t, err, pkgerrors.ErrUnmatchedNames)
	assert.Equal(t, "unmatched ship names", err.Error())
	assert.Equal(t, "exit status 2", pkgerrors.NewExitError(2, nil).Error())
}

func TestWrapHelpers(t *testing.T) {
	base := errors.New("boom")

	assert.Nil(t, pkgerrors.WrapIO("read", "/tmp/x", nil))
	assert.Nil(t, pkgerrors.WrapResource("load", "catalog", "", nil))
	assert.Nil(t, pkgerrors.WrapParse("yaml", "ships.yaml", nil))

	ioErr := pkgerrors.WrapIO("read", "/tmp/x", base)
	assert.Contains(t, ioErr.Error(), "/tmp/x")
	assert.ErrorIs(t, ioErr, base)

	resErr := pkgerrors.WrapResource("list", "collection", "users", base)
	assert.Equal(t, "failed to list collection users: boom", resErr.Error())

	parseErr := pkgerrors.WrapParse("yaml", "ships.yaml", base)
	assert.Equal(t, "parse error in yaml file ships.yaml: boom", parseErr.Error())
}
