package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/services"
)

func SubmitProposal(ps *services.ProposalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		var in services.ProposalInput
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, err.Error())
			return
		}
		proposal, err := ps.Submit(c.Request.Context(), claims.Principal, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(proposal, "Proposal submitted successfully"))
	}
}

func GetProposal(ps *services.ProposalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		proposal, err := ps.GetProposal(c.Request.Context(), claims.Principal, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(proposal, ""))
	}
}

func EditProposal(ps *services.ProposalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		var in services.ProposalUpdate
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, err.Error())
			return
		}
		proposal, err := ps.Edit(c.Request.Context(), claims.Principal, id, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(proposal, "Proposal updated successfully"))
	}
}

func WithdrawProposal(ps *services.ProposalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		if err := ps.Withdraw(c.Request.Context(), claims.Principal, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Proposal withdrawn"))
	}
}

func DecideProposal(ps *services.ProposalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		var req struct {
			Status models.ProposalStatus `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		proposal, err := ps.Decide(c.Request.Context(), claims.Principal, id, req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(proposal, "Proposal "+string(proposal.Status)))
	}
}

func ListMyProposals(ps *services.ProposalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		proposals, err := ps.ListForVendor(c.Request.Context(), claims.Principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(proposals, ""))
	}
}

func ListEventProposals(ps *services.ProposalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		eventID, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		proposals, err := ps.ProposalsForEvent(c.Request.Context(), claims.Principal, eventID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(proposals, ""))
	}
}
