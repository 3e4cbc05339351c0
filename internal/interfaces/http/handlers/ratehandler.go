package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/orris-inc/referrals/internal/shared/logger"
	"github.com/orris-inc/referrals/internal/shared/utils"
)

type RateHandler struct {
	converter rateConverter
	logger    logger.Interface
}

func NewRateHandler(converter rateConverter, logger logger.Interface) *RateHandler {
	return &RateHandler{
		converter: converter,
		logger:    logger,
	}
}

type RateURI struct {
	Base  string `uri:"base" binding:"required,altcurrency"`
	Quote string `uri:"quote" binding:"omitempty,altcurrency"`
}

// ConversionRequest asks for an amount of base in quote units. Amount is a
// fiat amount converted to quote probi, Probi is a base probi converted to fiat.
type ConversionRequest struct {
	Amount string `form:"amount" binding:"omitempty,numeric"`
	Probi  string `form:"probi" binding:"omitempty,number"`
}

type SnapshotResponse struct {
	Base      string            `json:"base"`
	FetchedAt time.Time         `json:"fetchedAt"`
	Rates     map[string]string `json:"rates"`
}

type RatioResponse struct {
	Base   string `json:"base"`
	Quote  string `json:"quote"`
	Ratio  string `json:"ratio"`
	Probi  string `json:"probi,omitempty"`
	Amount string `json:"amount,omitempty"`
}

func bindRateURI(c *gin.Context) (RateURI, bool) {
	// Symbols are matched upper-case; normalize before validation.
	for i, p := range c.Params {
		if p.Key == "base" || p.Key == "quote" {
			c.Params[i].Value = strings.ToUpper(p.Value)
		}
	}
	var uri RateURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondValidationError(c, "invalid currency", err)
		return uri, false
	}
	return uri, true
}

// GetRates handles GET /v1/rates/:base
func (h *RateHandler) GetRates(c *gin.Context) {
	uri, ok := bindRateURI(c)
	if !ok {
		return
	}

	snapshot, err := h.converter.Snapshot(c.Request.Context(), uri.Base)
	if err != nil {
		h.logger.Warnw("failed to get rates", "base", uri.Base, "error", err)
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", SnapshotResponse{
		Base:      snapshot.Base(),
		FetchedAt: snapshot.FetchedAt(),
		Rates:     snapshot.Rates(),
	})
}

// GetRatio handles GET /v1/rates/:base/:quote
func (h *RateHandler) GetRatio(c *gin.Context) {
	uri, ok := bindRateURI(c)
	if !ok {
		return
	}

	var req ConversionRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondValidationError(c, "invalid conversion query", err)
		return
	}

	ctx := c.Request.Context()
	ratio, err := h.converter.Ratio(ctx, uri.Base, uri.Quote)
	if err != nil {
		h.logger.Warnw("failed to get ratio", "base", uri.Base, "quote", uri.Quote, "error", err)
		respondError(c, err)
		return
	}

	resp := RatioResponse{
		Base:  uri.Base,
		Quote: uri.Quote,
		Ratio: ratio.String(),
	}

	if req.Amount != "" {
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			respondValidationError(c, "invalid amount", err)
			return
		}
		probi, ok, err := h.converter.FiatToAlt(ctx, uri.Base, amount, uri.Quote)
		if err != nil {
			respondError(c, err)
			return
		}
		if ok {
			resp.Probi = probi
		}
	}

	if req.Probi != "" {
		fiat, err := h.converter.AltToFiat(ctx, uri.Base, req.Probi, uri.Quote)
		if err != nil {
			respondError(c, err)
			return
		}
		resp.Amount = fiat.StringFixed(2)
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}
