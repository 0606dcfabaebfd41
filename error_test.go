package linkmap_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/linkmap"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := linkmap.Errorf(linkmap.ENOTFOUND, "key %q not found", "test")

	assert.Equal(t, linkmap.ENOTFOUND, linkmap.ErrorCode(err))
	assert.Equal(t, "key \"test\" not found", linkmap.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, linkmap.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, linkmap.ErrorMessage(nil))
}

func TestErrorCode_WrappedError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("reading cache: %w", linkmap.Errorf(linkmap.ENOTFOUND, "missing"))

	assert.Equal(t, linkmap.ENOTFOUND, linkmap.ErrorCode(err))
	assert.Equal(t, "missing", linkmap.ErrorMessage(err))
}

func TestErrorCode_PlainError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")

	assert.Equal(t, linkmap.EINTERNAL, linkmap.ErrorCode(err))
	assert.Equal(t, "Internal error.", linkmap.ErrorMessage(err))
}
