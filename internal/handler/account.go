package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"votebyte/internal/auth"
	"votebyte/internal/identity"
	"votebyte/internal/model"
)

type registerRequest struct {
	FullName  string `json:"fullname" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      string `json:"role"`
	PhotoData string `json:"photo_data"` // optional base64 data URL
}

// RegisterAccount creates an INACTIVE account and triggers the first
// verification code. Photo upload is best-effort; a broken photo backend
// must not block signup.
func (h *Handler) RegisterAccount(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acct, err := h.accounts.Register(c.Request.Context(), identity.RegisterParams{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	if req.PhotoData != "" && h.photos != nil {
		if res, err := h.photos.UploadBase64(req.PhotoData); err != nil {
			log.Printf("signup photo upload failed for %s: %v", acct.ID, err)
		} else if err := h.accounts.AttachPhoto(c.Request.Context(), acct.ID, res.SecureURL); err != nil {
			log.Printf("attach photo failed for %s: %v", acct.ID, err)
		} else {
			acct.PhotoURL = res.SecureURL
		}
	}

	if err := h.otp.Issue(c.Request.Context(), acct.Email); err != nil {
		// Account exists either way; the client can re-request a code.
		log.Printf("initial verification code for %s failed: %v", acct.Email, err)
	}

	c.JSON(http.StatusCreated, gin.H{"account": acct})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials and returns a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acct, err := h.accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	if acct.Status != model.AccountActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "account is not verified yet"})
		return
	}

	pair, err := auth.Issue(acct.ID, string(acct.Role), h.cfg.JWTIssuer,
		h.cfg.JWTSigningKey, h.cfg.AccessTTL, h.cfg.RefreshTTL)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": acct, "tokens": pair})
}

type issueOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// IssueOTP sends a fresh verification code, replacing any pending one.
func (h *Handler) IssueOTP(c *gin.Context) {
	var req issueOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.otp.Issue(c.Request.Context(), req.Email); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

// VerifyOTP checks a submitted code and activates the account on a match.
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.otp.Verify(c.Request.Context(), req.Email, req.Code); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account verified"})
}

// UploadPhoto stores an image for the authenticated account and records the
// resulting URL on the profile.
func (h *Handler) UploadPhoto(c *gin.Context) {
	acctID, ok := accountID(c)
	if !ok {
		return
	}
	if h.photos == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "photo storage is not configured"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}
	defer file.Close()

	const maxPhotoBytes = 5 << 20
	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
		return
	}
	if len(data) > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo exceeds 5MB limit"})
		return
	}

	res, err := h.photos.UploadBytes(data, header.Filename)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "photo upload failed"})
		return
	}
	if err := h.accounts.AttachPhoto(c.Request.Context(), acctID, res.SecureURL); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": res.SecureURL, "public_id": res.PublicID})
}
