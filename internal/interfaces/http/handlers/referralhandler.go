package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/referrals/internal/application/referral/dto"
	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/shared/logger"
	"github.com/orris-inc/referrals/internal/shared/utils"
)

type ReferralHandler struct {
	createReferralsUC createReferralsUseCase
	findReferralsUC   findReferralsUseCase
	listGroupsUC      listGroupsUseCase
	getStatementUC    getStatementUseCase
	logger            logger.Interface
}

func NewReferralHandler(
	createReferralsUC createReferralsUseCase,
	findReferralsUC findReferralsUseCase,
	listGroupsUC listGroupsUseCase,
	getStatementUC getStatementUseCase,
	logger logger.Interface,
) *ReferralHandler {
	return &ReferralHandler{
		createReferralsUC: createReferralsUC,
		findReferralsUC:   findReferralsUC,
		listGroupsUC:      listGroupsUC,
		getStatementUC:    getStatementUC,
		logger:            logger,
	}
}

type TransactionURI struct {
	TransactionID string `uri:"transactionId" binding:"required,uuid"`
}

// ReferralRequest accepts both payload versions. downloadTimestamp and groupId
// are either both present or both absent.
type ReferralRequest struct {
	OwnerID           string     `json:"ownerId" binding:"required,owner"`
	ChannelID         string     `json:"channelId" binding:"required,publisher"`
	DownloadID        string     `json:"downloadId" binding:"required,uuid"`
	Platform          string     `json:"platform" binding:"required,token"`
	Finalized         time.Time  `json:"finalized" binding:"required"`
	DownloadTimestamp *time.Time `json:"downloadTimestamp"`
	GroupID           string     `json:"groupId" binding:"omitempty,uuid"`
}

type ListGroupsRequest struct {
	Active  *bool    `form:"active"`
	Country string   `form:"country" binding:"omitempty,countrycode"`
	Fields  []string `form:"fields"`
}

type StatementURI struct {
	Owner string `uri:"owner" binding:"required,owner"`
}

type StatementRequest struct {
	Start *time.Time `form:"start"`
	Until *time.Time `form:"until"`
}

// CreateReferrals handles PUT /v1/referrals/:transactionId
func (h *ReferralHandler) CreateReferrals(c *gin.Context) {
	var uri TransactionURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondValidationError(c, "invalid transaction id", err)
		return
	}

	var req []ReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create referrals",
			"transaction_id", uri.TransactionID,
			"error", err,
		)
		respondValidationError(c, "invalid referrals payload", err)
		return
	}
	if len(req) == 0 {
		respondValidationError(c, "at least one referral is required", nil)
		return
	}

	refs := make([]*referral.Referral, 0, len(req))
	for _, r := range req {
		if (r.GroupID == "") != (r.DownloadTimestamp == nil) {
			respondValidationError(c, "downloadTimestamp and groupId must be provided together", nil)
			return
		}
		refs = append(refs, toReferral(r))
	}

	result, err := h.createReferralsUC.Execute(c.Request.Context(), dto.CreateReferralsCommand{
		TransactionID: uri.TransactionID,
		Referrals:     refs,
	})
	if err != nil {
		h.logger.Errorw("failed to create referrals",
			"transaction_id", uri.TransactionID,
			"error", err,
		)
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Referrals recorded", result)
}

// FindReferrals handles GET /v1/referrals/:transactionId
func (h *ReferralHandler) FindReferrals(c *gin.Context) {
	var uri TransactionURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondValidationError(c, "invalid transaction id", err)
		return
	}

	result, err := h.findReferralsUC.Execute(c.Request.Context(), uri.TransactionID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ListGroups handles GET /v1/referrals/groups
func (h *ReferralHandler) ListGroups(c *gin.Context) {
	var req ListGroupsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondValidationError(c, "invalid group query", err)
		return
	}

	fields := splitFields(req.Fields)
	if err := validateFields(fields); err != nil {
		respondValidationError(c, "invalid group fields", err)
		return
	}

	result, err := h.listGroupsUC.Execute(c.Request.Context(), dto.ListGroupsQuery{
		Active:  req.Active,
		Country: strings.ToUpper(req.Country),
		Fields:  fields,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// GetStatement handles GET /v1/referrals/statement/:owner
func (h *ReferralHandler) GetStatement(c *gin.Context) {
	var uri StatementURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondValidationError(c, "invalid owner", err)
		return
	}

	var req StatementRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondValidationError(c, "invalid statement range", err)
		return
	}

	query := dto.StatementQuery{Owner: uri.Owner}
	if req.Start != nil {
		query.Start = req.Start.UTC()
	}
	if req.Until != nil {
		query.Until = req.Until.UTC()
	}

	result, err := h.getStatementUC.Execute(c.Request.Context(), query)
	if err != nil {
		h.logger.Errorw("failed to get statement", "owner", uri.Owner, "error", err)
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func toReferral(r ReferralRequest) *referral.Referral {
	ref := &referral.Referral{
		DownloadID: r.DownloadID,
		OwnerID:    r.OwnerID,
		ChannelID:  r.ChannelID,
		Platform:   r.Platform,
		Finalized:  r.Finalized.UTC(),
		GroupID:    r.GroupID,
	}
	if r.DownloadTimestamp != nil {
		ts := r.DownloadTimestamp.UTC()
		ref.DownloadTimestamp = &ts
	}
	return ref
}

// splitFields accepts both fields=a&fields=b and fields=a,b.
func splitFields(raw []string) []string {
	var fields []string
	for _, f := range raw {
		for _, part := range strings.Split(f, ",") {
			if part = strings.TrimSpace(part); part != "" {
				fields = append(fields, part)
			}
		}
	}
	return fields
}
