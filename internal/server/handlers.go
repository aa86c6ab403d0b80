package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/procupilot/procupilot/internal/mail"
	"github.com/procupilot/procupilot/internal/scoring"
	"github.com/procupilot/procupilot/internal/store"
)

type createRFPRequest struct {
	Text string `json:"text" binding:"required"`
}

func (s *Server) createRFP(c *gin.Context) {
	var req createRFPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	draft, err := s.extractor.ExtractRFP(c.Request.Context(), req.Text)
	if err != nil {
		s.logger.Error("rfp extraction failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "extraction failed"})
		return
	}

	rfp := &store.RFP{
		Title:       draft.Title,
		Description: req.Text,
		Structured:  draft.Requirements,
	}
	if err := s.store.CreateRFP(c.Request.Context(), rfp); err != nil {
		s.logger.Error("create rfp failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	c.JSON(http.StatusCreated, rfp)
}

func (s *Server) listRFPs(c *gin.Context) {
	rfps, err := s.store.ListRFPs(c.Request.Context())
	if err != nil {
		s.logger.Error("list rfps failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, rfps)
}

func (s *Server) getRFP(c *gin.Context) {
	rfp, err := s.store.RFPByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.logger.Error("get rfp failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	if rfp == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "RFP not found"})
		return
	}
	c.JSON(http.StatusOK, rfp)
}

type sendRFPRequest struct {
	VendorIDs []string `json:"vendorIds" binding:"required"`
}

func (s *Server) sendRFP(c *gin.Context) {
	var req sendRFPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vendorIds is required"})
		return
	}

	ctx := c.Request.Context()

	rfp, err := s.store.RFPByID(ctx, c.Param("id"))
	if err != nil {
		s.logger.Error("get rfp failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	if rfp == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "RFP not found"})
		return
	}

	vendors, err := s.store.VendorsByIDs(ctx, req.VendorIDs)
	if err != nil {
		s.logger.Error("get vendors failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	subject := mail.RFPSubject(rfp)
	body := mail.RFPBody(rfp)

	sentTo := make([]string, 0, len(vendors))
	sentIDs := make([]string, 0, len(vendors))
	for _, vendor := range vendors {
		if err := s.sender.Send(vendor.Email, subject, body); err != nil {
			s.logger.Error("rfp dispatch failed",
				zap.String("vendor_id", vendor.ID),
				zap.Error(err),
			)
			continue
		}
		sentTo = append(sentTo, vendor.Email)
		sentIDs = append(sentIDs, vendor.ID)
	}

	if len(sentIDs) > 0 {
		if err := s.store.AppendVendorsSent(ctx, rfp.ID, sentIDs); err != nil {
			s.logger.Error("record vendors sent failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "sentTo": sentTo})
}

func (s *Server) listProposals(c *gin.Context) {
	proposals, err := s.store.ProposalsByRFP(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.logger.Error("list proposals failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, proposals)
}

func (s *Server) compareProposals(c *gin.Context) {
	ctx := c.Request.Context()

	rfp, err := s.store.RFPByID(ctx, c.Param("id"))
	if err != nil {
		s.logger.Error("get rfp failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	if rfp == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "RFP not found."})
		return
	}

	proposals, err := s.store.ProposalsByRFP(ctx, rfp.ID)
	if err != nil {
		s.logger.Error("list proposals failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	if len(proposals) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"message":   "No proposals found for this RFP. Cannot compare.",
			"proposals": []scoring.Score{},
			"aiRecommendation": gin.H{
				"winnerVendorId": nil,
				"explanation":    "No proposals to evaluate.",
				"scoreOutof5":    "N/A",
			},
		})
		return
	}

	scores := scoring.ScoreProposals(rfp, proposals)
	recommendation := s.recommender.Recommend(ctx, rfp, scores)

	c.JSON(http.StatusOK, gin.H{
		"proposals":        scores,
		"aiRecommendation": recommendation,
	})
}

func (s *Server) getProposal(c *gin.Context) {
	proposal, err := s.store.ProposalByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.logger.Error("get proposal failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	if proposal == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Proposal not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "proposal": proposal})
}

type createVendorRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Contact string `json:"contact"`
	Notes   string `json:"notes"`
}

func (s *Server) createVendor(c *gin.Context) {
	var req createVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and email are required"})
		return
	}

	vendor := &store.Vendor{
		Name:    req.Name,
		Email:   req.Email,
		Contact: req.Contact,
		Notes:   req.Notes,
	}
	if err := s.store.CreateVendor(c.Request.Context(), vendor); err != nil {
		s.logger.Error("create vendor failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	c.JSON(http.StatusCreated, vendor)
}

func (s *Server) getVendor(c *gin.Context) {
	vendor, err := s.store.VendorByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.logger.Error("get vendor failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	if vendor == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
		return
	}
	c.JSON(http.StatusOK, vendor)
}

func (s *Server) listVendors(c *gin.Context) {
	vendors, err := s.store.ListVendors(c.Request.Context())
	if err != nil {
		s.logger.Error("list vendors failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, vendors)
}

func (s *Server) dashboardSummary(c *gin.Context) {
	ctx := c.Request.Context()

	fail := func(err error) {
		s.logger.Error("dashboard summary failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch dashboard summary data."})
	}

	totalRFPs, err := s.store.CountRFPs(ctx)
	if err != nil {
		fail(err)
		return
	}
	activeVendors, err := s.store.CountVendors(ctx)
	if err != nil {
		fail(err)
		return
	}
	recent, err := s.store.CountRFPsUpdatedSince(ctx, time.Now().AddDate(0, -1, 0))
	if err != nil {
		fail(err)
		return
	}
	ready, err := s.store.CountComparisonReady(ctx)
	if err != nil {
		fail(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalRFPs":         totalRFPs,
		"activeVendors":     activeVendors,
		"rfpsSentLastMonth": recent,
		"comparisonReady":   ready,
	})
}
