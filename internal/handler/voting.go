package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"votebyte/internal/model"
	"votebyte/internal/queue"
	"votebyte/internal/vote"
)

type registerVoterRequest struct {
	AuthType string `json:"auth_type" binding:"required"`
}

// RegisterVoter adds the authenticated account to the election roster as an
// unverified voter. The registration notice is published best-effort after
// the row commits.
func (h *Handler) RegisterVoter(c *gin.Context) {
	acctID, ok := accountID(c)
	if !ok {
		return
	}
	var req registerVoterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v, err := h.voters.Register(c.Request.Context(), acctID, c.Param("id"), model.AuthType(req.AuthType))
	if err != nil {
		h.fail(c, err)
		return
	}

	h.publishVoterRegistered(c.Request.Context(), acctID, v.ElectionID)
	c.JSON(http.StatusCreated, gin.H{"voter": v})
}

// VerifyVoter records a passed identity check on a voter row. A voter may
// verify themselves; the election creator may verify anyone.
func (h *Handler) VerifyVoter(c *gin.Context) {
	acctID, ok := accountID(c)
	if !ok {
		return
	}
	voterID := c.Param("id")

	v, err := h.voters.Get(c.Request.Context(), voterID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if v.AccountID != acctID && !isCreatorRole(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot verify another account's voter record"})
		return
	}
	v, err = h.voters.Verify(c.Request.Context(), voterID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"voter": v})
}

// VoterStatus reports the authenticated account's registration state for an
// election. Not being registered is a normal answer, not an error.
func (h *Handler) VoterStatus(c *gin.Context) {
	acctID, ok := accountID(c)
	if !ok {
		return
	}
	st, err := h.voters.Status(c.Request.Context(), acctID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// VoterStats returns roster counts for an election.
func (h *Handler) VoterStats(c *gin.Context) {
	st, err := h.voters.Statistics(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": st})
}

// ListVoters returns the roster. The route is gated on the creator role.
func (h *Handler) ListVoters(c *gin.Context) {
	if _, ok := accountID(c); !ok {
		return
	}
	list, err := h.voters.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"voters": list})
}

type castVoteRequest struct {
	CandidateID string `json:"candidate_id" binding:"required"`
}

// CastVote records a vote for the authenticated account. The receipt event
// is published only after the transaction commits.
func (h *Handler) CastVote(c *gin.Context) {
	acctID, ok := accountID(c)
	if !ok {
		return
	}
	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.votes.CastVote(c.Request.Context(), c.Param("id"), req.CandidateID, acctID)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.publishVoteCast(c.Request.Context(), acctID, res)
	c.JSON(http.StatusCreated, res)
}

// Results returns the aggregate for an election. Mid-election this is a live
// leaderboard; the winner appears only once the window has closed.
func (h *Handler) Results(c *gin.Context) {
	res, err := h.votes.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) publishVoterRegistered(ctx context.Context, acctID, electionID string) {
	if h.events == nil {
		return
	}
	acct, err := h.accounts.Get(ctx, acctID)
	if err != nil {
		log.Printf("lookup account for registration notice: %v", err)
		return
	}
	e, err := h.elections.Get(ctx, electionID)
	if err != nil {
		log.Printf("lookup election for registration notice: %v", err)
		return
	}
	if err := queue.PublishEvent(ctx, h.events, queue.TypeVoterRegistered, queue.VoterRegistered{
		Email:         acct.Email,
		ElectionTitle: e.Title,
	}); err != nil {
		log.Printf("publish voter.registered: %v", err)
	}
}

func (h *Handler) publishVoteCast(ctx context.Context, acctID string, res vote.CastResult) {
	if h.events == nil {
		return
	}
	acct, err := h.accounts.Get(ctx, acctID)
	if err != nil {
		log.Printf("lookup account for vote receipt: %v", err)
		return
	}
	e, err := h.elections.Get(ctx, res.Vote.ElectionID)
	if err != nil {
		log.Printf("lookup election for vote receipt: %v", err)
		return
	}
	if err := queue.PublishEvent(ctx, h.events, queue.TypeVoteCast, queue.VoteCast{
		Email:         acct.Email,
		ElectionTitle: e.Title,
		CandidateName: res.CandidateName,
		CastAt:        res.Vote.CastAt,
	}); err != nil {
		log.Printf("publish vote.cast: %v", err)
	}
}
