package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_PreservesCode(t *testing.T) {
	base := InvalidInput("table is empty")
	wrapped := Wrapf(base, "analyze dataset %s", "ds-1")

	assert.Equal(t, CodeInvalidInput, GetCode(wrapped))
	assert.Equal(t, "analyze dataset ds-1: table is empty", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestGetCode_ThroughStdlibWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", ResourceLimitExceeded("row", 30000, 25000))

	assert.True(t, IsAppError(err))
	assert.True(t, HasCode(err, CodeResourceLimit))
	assert.Contains(t, err.Error(), "row count 30000 exceeds limit 25000")
}

func TestGetCode_PlainError(t *testing.T) {
	assert.Equal(t, CodeInternalError, GetCode(stderrors.New("boom")))
	assert.False(t, HasCode(nil, CodeInternalError))
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeCanceled, context.DeadlineExceeded)
	assert.Equal(t, CodeCanceled, GetCode(err))
	assert.True(t, stderrors.Is(err, context.DeadlineExceeded))
}
