package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"votebyte/internal/election"
	"votebyte/internal/model"
)

type createElectionRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	AuthType    string    `json:"auth_type" binding:"required"`
}

// CreateElection schedules an election. The route is gated on the creator
// role.
func (h *Handler) CreateElection(c *gin.Context) {
	acctID, ok := accountID(c)
	if !ok {
		return
	}
	var req createElectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := h.elections.Create(c.Request.Context(), election.CreateParams{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		AuthType:    model.AuthType(req.AuthType),
		CreatedBy:   acctID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"election": e})
}

// ListElections returns all elections, optionally filtered by ?phase=.
func (h *Handler) ListElections(c *gin.Context) {
	if phase := c.Query("phase"); phase != "" {
		list, err := h.elections.ListByPhase(c.Request.Context(), model.Phase(phase))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"elections": list})
		return
	}
	list, err := h.elections.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"elections": list})
}

// GetElection returns one election with a freshly derived phase.
func (h *Handler) GetElection(c *gin.Context) {
	e, err := h.elections.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"election": e})
}

// CancelElection freezes an election in the terminal cancelled phase. Only
// the creator of the election may cancel it.
func (h *Handler) CancelElection(c *gin.Context) {
	acctID, ok := accountID(c)
	if !ok {
		return
	}
	e, err := h.elections.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if e.CreatedBy != acctID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the election creator can cancel it"})
		return
	}
	if err := h.elections.Cancel(c.Request.Context(), e.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "election cancelled"})
}

type applyCandidateRequest struct {
	PartyName string `json:"party_name" binding:"required"`
	Symbol    string `json:"symbol"`
	Manifesto string `json:"manifesto"`
}

// ApplyCandidate files a pending candidacy for the authenticated account.
func (h *Handler) ApplyCandidate(c *gin.Context) {
	acctID, ok := accountID(c)
	if !ok {
		return
	}
	var req applyCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cand, err := h.elections.ApplyCandidate(c.Request.Context(), election.ApplyParams{
		ElectionID: c.Param("id"),
		AccountID:  acctID,
		PartyName:  req.PartyName,
		Symbol:     req.Symbol,
		Manifesto:  req.Manifesto,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"candidate": cand})
}

type reviewCandidateRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

// ReviewCandidate approves or rejects a pending candidacy. Only the creator
// of the election may review.
func (h *Handler) ReviewCandidate(c *gin.Context) {
	acctID, ok := accountID(c)
	if !ok {
		return
	}
	var req reviewCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, err := h.elections.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if e.CreatedBy != acctID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the election creator can review candidates"})
		return
	}
	cand, err := h.elections.ReviewCandidate(c.Request.Context(), e.ID, c.Param("cid"), *req.Approve)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidate": cand})
}

// ListCandidates returns the approved candidates of an election.
func (h *Handler) ListCandidates(c *gin.Context) {
	list, err := h.elections.ApprovedCandidates(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": list})
}
