package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"votebyte/internal/apperr"
	"votebyte/internal/auth"
	"votebyte/internal/biometric"
	"votebyte/internal/config"
	"votebyte/internal/election"
	"votebyte/internal/identity"
	"votebyte/internal/model"
	"votebyte/internal/otp"
	"votebyte/internal/photostore"
	"votebyte/internal/queue"
	"votebyte/internal/vote"
	"votebyte/internal/voter"
)

// Handler carries the wired services behind the HTTP surface.
type Handler struct {
	cfg       config.App
	accounts  *identity.Service
	otp       *otp.Verifier
	faces     *biometric.Verifier
	elections *election.Service
	voters    *voter.Service
	votes     *vote.Engine
	photos    *photostore.Client // nil when Cloudinary is not configured
	events    queue.Queue
}

// New creates a handler.
func New(cfg config.App, accounts *identity.Service, otpVerifier *otp.Verifier,
	faces *biometric.Verifier, elections *election.Service, voters *voter.Service,
	votes *vote.Engine, photos *photostore.Client, events queue.Queue) *Handler {
	return &Handler{
		cfg:       cfg,
		accounts:  accounts,
		otp:       otpVerifier,
		faces:     faces,
		elections: elections,
		voters:    voters,
		votes:     votes,
		photos:    photos,
		events:    events,
	}
}

// Routes registers the operation surface on the engine.
func (h *Handler) Routes(r *gin.Engine) {
	v1 := r.Group("/v1")
	v1.POST("/auth/register", h.RegisterAccount)
	v1.POST("/auth/login", h.Login)
	v1.POST("/auth/otp/issue", h.IssueOTP)
	v1.POST("/auth/otp/verify", h.VerifyOTP)
	v1.GET("/elections", h.ListElections)
	v1.GET("/elections/:id", h.GetElection)
	v1.GET("/elections/:id/candidates", h.ListCandidates)
	v1.GET("/elections/:id/results", h.Results)
	v1.GET("/elections/:id/voters/stats", h.VoterStats)

	authed := v1.Group("", auth.Bearer(h.cfg.JWTSigningKey, h.cfg.JWTIssuer))
	creatorOnly := auth.RequireRole(string(model.RoleElectionCreator))
	authed.POST("/upload", h.UploadPhoto)
	authed.POST("/face/enroll", h.EnrollFace)
	authed.POST("/face/reenroll", h.ReEnrollFace)
	authed.POST("/face/verify", h.VerifyFace)
	authed.DELETE("/face", h.DeleteFace)
	authed.POST("/elections", creatorOnly, h.CreateElection)
	authed.POST("/elections/:id/cancel", h.CancelElection)
	authed.POST("/elections/:id/candidates", h.ApplyCandidate)
	authed.POST("/elections/:id/candidates/:cid/review", h.ReviewCandidate)
	authed.GET("/elections/:id/voters", creatorOnly, h.ListVoters)
	authed.POST("/elections/:id/voters", h.RegisterVoter)
	authed.GET("/elections/:id/voters/me", h.VoterStatus)
	authed.POST("/voters/:id/verify", h.VerifyVoter)
	authed.POST("/elections/:id/votes", h.CastVote)
}

// fail maps error kinds to HTTP status codes. Internal details never leak.
func (h *Handler) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case apperr.Validation, apperr.State:
		status = http.StatusBadRequest
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Conflict, apperr.Integrity:
		status = http.StatusConflict
	case apperr.ExternalDependency:
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind.String()})
}

// accountID extracts the authenticated account from the bearer claims.
func accountID(c *gin.Context) (string, bool) {
	claims, ok := auth.FromContext(c)
	if !ok || claims.Subject == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return "", false
	}
	return claims.Subject, true
}

func isCreatorRole(c *gin.Context) bool {
	claims, ok := auth.FromContext(c)
	return ok && claims.Role == string(model.RoleElectionCreator)
}
