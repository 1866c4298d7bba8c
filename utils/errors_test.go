package utils

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestConfigValidationErrors(t *testing.T) {
	cause := errors.New("must be positive")
	err := NewConfigValidationError("motors.0", cause)
	test.That(t, err.Error(), test.ShouldEqual, `error validating "motors.0": must be positive`)
	test.That(t, errors.Cause(err), test.ShouldEqual, cause)

	err = NewConfigValidationFieldRequiredError("path", "segments")
	test.That(t, err.Error(), test.ShouldEqual, `error validating "path": "segments" is required`)
}
