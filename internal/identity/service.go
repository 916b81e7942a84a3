package identity

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"votebyte/internal/apperr"
	"votebyte/internal/model"
)

// Sentinel errors surfaced to callers.
var (
	ErrNotFound           = apperr.New(apperr.NotFound, "account not found")
	ErrEmailTaken         = apperr.New(apperr.Conflict, "email is already registered")
	ErrInvalidCredentials = apperr.New(apperr.Validation, "invalid email or password")
)

// Store persists accounts.
type Store interface {
	Insert(ctx context.Context, acct model.Account) (model.Account, error)
	GetByID(ctx context.Context, id string) (model.Account, error)
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	Activate(ctx context.Context, email string) error
	SetPhotoURL(ctx context.Context, id, url string) error
}

// Service manages account registration and authentication. Accounts are
// created INACTIVE and flip ACTIVE only through OTP verification.
type Service struct {
	store Store
}

// NewService creates an identity service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// RegisterParams is the validated input for Register.
type RegisterParams struct {
	FullName string
	Email    string
	Password string
	Role     model.Role
	PhotoURL string
}

// Register creates an INACTIVE account with a bcrypt credential hash.
func (s *Service) Register(ctx context.Context, p RegisterParams) (model.Account, error) {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.FullName == "" || p.Email == "" || p.Password == "" {
		return model.Account{}, apperr.New(apperr.Validation, "fullname, email and password are required")
	}
	if p.Role == "" {
		p.Role = model.RoleVoter
	}
	if p.Role != model.RoleVoter && p.Role != model.RoleElectionCreator {
		return model.Account{}, apperr.Newf(apperr.Validation, "unknown role %q", p.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.Account{}, err
	}

	acct := model.Account{
		FullName:     p.FullName,
		Email:        p.Email,
		PasswordHash: string(hash),
		Role:         p.Role,
		Status:       model.AccountInactive,
		PhotoURL:     p.PhotoURL,
	}
	return s.store.Insert(ctx, acct)
}

// Authenticate checks credentials and returns the account on success.
// Token issuance happens at the handler layer.
func (s *Service) Authenticate(ctx context.Context, email, password string) (model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	acct, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return model.Account{}, ErrInvalidCredentials
		}
		return model.Account{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return model.Account{}, ErrInvalidCredentials
	}
	return acct, nil
}

// Get returns an account by id.
func (s *Service) Get(ctx context.Context, id string) (model.Account, error) {
	return s.store.GetByID(ctx, id)
}

// GetByEmail returns an account by email.
func (s *Service) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	return s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// Activate flips an account to ACTIVE. Called by the OTP verifier on a
// successful code match.
func (s *Service) Activate(ctx context.Context, email string) error {
	return s.store.Activate(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// AttachPhoto records an uploaded photo URL on the account. Best-effort at
// signup: callers log failures instead of failing registration.
func (s *Service) AttachPhoto(ctx context.Context, id, url string) error {
	if url == "" {
		return apperr.New(apperr.Validation, "photo url required")
	}
	return s.store.SetPhotoURL(ctx, id, url)
}
