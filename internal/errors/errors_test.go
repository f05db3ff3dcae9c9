package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"mcprice/domain/core"
)

func TestWithCode_PlainError(t *testing.T) {
	cause := core.NewDegenerateError("sigma", -1, "must be >= 0")
	err := WithCode(CodeNumericDegenerate, cause)

	assert.True(t, IsAppError(err))
	assert.True(t, IsNumericDegenerate(err))
	assert.ErrorIs(t, err, core.ErrNumericDegenerate)
	assert.Equal(t, cause.Error(), err.Error())
}

func TestWithCode_RecodesAppError(t *testing.T) {
	err := WithCode(CodeInvalidArgument, ConfigInvalid("MCPRICE_WORKERS must be >= 0"))
	assert.Equal(t, CodeInvalidArgument, GetCode(err))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestWrap_KeepsCode(t *testing.T) {
	err := Wrapf(ResourceExhaustion("budget"), "grid executor")
	assert.True(t, IsResourceExhaustion(err))
	assert.Equal(t, "grid executor: budget: resource exhaustion", err.Error())

	plain := Wrap(stderrors.New("boom"), "reduce")
	assert.Equal(t, CodeInternalError, GetCode(plain))
	assert.False(t, IsAppError(stderrors.New("boom")))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("boom")))
}

func TestDeterminismErrors(t *testing.T) {
	drift := NonDeterministic("call %v then %v", 1.0, 2.0)
	assert.True(t, IsDeterminismError(drift))
	assert.ErrorIs(t, drift, core.ErrNonDeterministic)

	mismatch := Wrap(HashMismatch("fingerprint differs"), "verify")
	assert.True(t, IsDeterminismError(mismatch))
	assert.ErrorIs(t, mismatch, core.ErrHashMismatch)
	assert.Equal(t, CodeNonDeterministic, GetCode(mismatch))

	assert.False(t, IsDeterminismError(InvalidArgument("bad")))
}
