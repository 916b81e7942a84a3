package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type enrollFaceRequest struct {
	Descriptor []float64 `json:"descriptor" binding:"required"`
}

// EnrollFace stores the reference descriptor for the authenticated account.
func (h *Handler) EnrollFace(c *gin.Context) {
	acctID, ok := accountID(c)
	if !ok {
		return
	}
	var req enrollFaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.faces.Enroll(c.Request.Context(), acctID, req.Descriptor); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "face enrolled"})
}

// ReEnrollFace replaces the existing reference descriptor.
func (h *Handler) ReEnrollFace(c *gin.Context) {
	acctID, ok := accountID(c)
	if !ok {
		return
	}
	var req enrollFaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.faces.ReEnroll(c.Request.Context(), acctID, req.Descriptor); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "face re-enrolled"})
}

type verifyFaceRequest struct {
	Descriptor []float64 `json:"descriptor" binding:"required"`
	Threshold  float64   `json:"threshold"`
	VoterID    string    `json:"voter_id"`
}

// VerifyFace compares a live descriptor against the enrolled reference. When
// a voter id is supplied and the comparison matches, the voter is marked
// verified in the same request. The voter row must belong to the caller
// unless the caller holds the creator role.
func (h *Handler) VerifyFace(c *gin.Context) {
	acctID, ok := accountID(c)
	if !ok {
		return
	}
	var req verifyFaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.faces.Verify(c.Request.Context(), acctID, req.Descriptor, req.Threshold)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := gin.H{"match": res.Match, "distance": res.Distance, "threshold": res.Threshold}
	if res.Match && req.VoterID != "" {
		v, err := h.voters.Get(c.Request.Context(), req.VoterID)
		if err != nil {
			h.fail(c, err)
			return
		}
		if v.AccountID != acctID && !isCreatorRole(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot verify another account's voter record"})
			return
		}
		v, err = h.voters.Verify(c.Request.Context(), req.VoterID)
		if err != nil {
			h.fail(c, err)
			return
		}
		resp["voter"] = v
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteFace removes the authenticated account's biometric data.
func (h *Handler) DeleteFace(c *gin.Context) {
	acctID, ok := accountID(c)
	if !ok {
		return
	}
	if err := h.faces.Remove(c.Request.Context(), acctID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "face data removed"})
}
