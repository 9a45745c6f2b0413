package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNew() {
	err := New(ErrCodeInsufficientFunds, "buy would overdraw cash")

	suite.Equal(ErrCodeInsufficientFunds, err.Code)
	suite.Equal("buy would overdraw cash", err.Message)
	suite.Nil(err.Cause)
	suite.Equal("[301] buy would overdraw cash", err.Error())
}

func (suite *ErrorTestSuite) TestNewf() {
	err := Newf(ErrCodeDataNotFound, "no close price for %s", "600000.SS")

	suite.Equal(ErrCodeDataNotFound, err.Code)
	suite.Equal("no close price for 600000.SS", err.Message)
}

func (suite *ErrorTestSuite) TestWrap() {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCodeQueryFailed, "failed to execute query", cause)

	suite.Equal(ErrCodeQueryFailed, err.Code)
	suite.Equal(cause, err.Unwrap())
	suite.Contains(err.Error(), "connection refused")
}

func (suite *ErrorTestSuite) TestGetCode() {
	err := New(ErrCodePhaseTransition, "invalid transition")
	suite.Equal(ErrCodePhaseTransition, GetCode(err))

	wrapped := fmt.Errorf("outer: %w", err)
	suite.Equal(ErrCodePhaseTransition, GetCode(wrapped))

	plain := fmt.Errorf("plain error")
	suite.Equal(ErrCodeUnknown, GetCode(plain))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodePermissionViolation, "order not allowed in initialize")

	suite.True(HasCode(err, ErrCodePermissionViolation))
	suite.False(HasCode(err, ErrCodePhaseTransition))
}
