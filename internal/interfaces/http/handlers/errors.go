package handlers

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/referrals/internal/domain/currency"
	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/shared/errors"
	"github.com/orris-inc/referrals/internal/shared/utils"
)

// toAppError maps domain failures onto HTTP error types.
func toAppError(err error) error {
	switch {
	case errors.IsAppError(err):
		return err
	case stderrors.Is(err, currency.ErrRateFetchFailure):
		return errors.NewServiceUnavailableError("exchange rates are temporarily unavailable").WithCause(err)
	case stderrors.Is(err, currency.ErrRateUnavailable):
		return errors.NewBadGatewayError("exchange rate provider returned no rate", err.Error()).WithCause(err)
	case stderrors.Is(err, currency.ErrScaleUnavailable):
		return errors.NewInternalError("currency scale is not configured").WithCause(err)
	case stderrors.Is(err, referral.ErrReferralNotFound):
		return errors.NewNotFoundError("referrals not found").WithCause(err)
	default:
		return err
	}
}

func respondError(c *gin.Context, err error) {
	utils.ErrorResponseWithError(c, toAppError(err))
}

func respondValidationError(c *gin.Context, message string, err error) {
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError(message, err.Error()))
		return
	}
	utils.ErrorResponseWithError(c, errors.NewValidationError(message))
}
