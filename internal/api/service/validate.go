package service

import (
	"ctchen222/TaskManager/internal/apperror"
	"ctchen222/TaskManager/internal/validator"
)

// validateRequest runs the binding rules on req so that callers other than
// gin get the same checks.
func validateRequest(req any) error {
	if err := validator.GetValidator().Struct(req); err != nil {
		return apperror.Wrap(apperror.KindInvalidArgument, validator.Describe(err), err)
	}
	return nil
}
