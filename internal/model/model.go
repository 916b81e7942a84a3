package model

import "time"

// AccountStatus tracks email verification: accounts start INACTIVE and
// become ACTIVE only through OTP verification.
type AccountStatus string

const (
	AccountInactive AccountStatus = "INACTIVE"
	AccountActive   AccountStatus = "ACTIVE"
)

// Role distinguishes ordinary voters from election creators.
type Role string

const (
	RoleVoter           Role = "VOTER"
	RoleElectionCreator Role = "ELECTION_CREATOR"
)

// Phase is an election's lifecycle state. UPCOMING/ONGOING/COMPLETED are
// derived from the time window; CANCELLED is manually set and terminal.
type Phase string

const (
	PhaseUpcoming  Phase = "UPCOMING"
	PhaseOngoing   Phase = "ONGOING"
	PhaseCompleted Phase = "COMPLETED"
	PhaseCancelled Phase = "CANCELLED"
)

// CandidateStatus is the approval state of a candidacy.
type CandidateStatus string

const (
	CandidatePending  CandidateStatus = "PENDING"
	CandidateApproved CandidateStatus = "APPROVED"
	CandidateRejected CandidateStatus = "REJECTED"
)

// AuthType is the identity-check method a voter declared at registration.
type AuthType string

const (
	AuthOTP        AuthType = "OTP"
	AuthBiometric  AuthType = "BIOMETRIC"
	AuthStudentID  AuthType = "STUDENT_ID"
	AuthNationalID AuthType = "NATIONAL_ID"
)

// ValidAuthType reports whether s is a known authentication method.
func ValidAuthType(s AuthType) bool {
	switch s {
	case AuthOTP, AuthBiometric, AuthStudentID, AuthNationalID:
		return true
	}
	return false
}

// Account is a registered platform user.
type Account struct {
	ID           string        `json:"id"`
	FullName     string        `json:"fullname"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Role         Role          `json:"role"`
	Status       AccountStatus `json:"status"`
	PhotoURL     string        `json:"photo_url,omitempty"`
	JoinedAt     time.Time     `json:"joined_at"`
}

// Election is a scheduled vote with a fixed time window.
type Election struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	CreatedBy       string    `json:"created_by"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Phase           Phase     `json:"phase"`
	AuthType        AuthType  `json:"auth_type"`
	TotalVoters     int       `json:"total_voters"`
	TotalCandidates int       `json:"total_candidates"`
	CreatedAt       time.Time `json:"created_at"`
}

// Candidate is an account running in a specific election. TotalVotes is the
// running tally, mutated only by the vote casting engine.
type Candidate struct {
	ID           string          `json:"id"`
	ElectionID   string          `json:"election_id"`
	AccountID    string          `json:"account_id"`
	Name         string          `json:"name,omitempty"` // joined from accounts
	PartyName    string          `json:"party_name"`
	Symbol       string          `json:"symbol,omitempty"`
	Manifesto    string          `json:"manifesto,omitempty"`
	Status       CandidateStatus `json:"status"`
	TotalVotes   int64           `json:"total_votes"`
	RegisteredAt time.Time       `json:"registered_at"`
}

// Voter binds an account to one election. (AccountID, ElectionID) is unique;
// HasVoted flips true exactly once, atomically with the vote insert.
type Voter struct {
	ID           string     `json:"id"`
	AccountID    string     `json:"account_id"`
	ElectionID   string     `json:"election_id"`
	AuthType     AuthType   `json:"auth_type"`
	Verified     bool       `json:"verified"`
	HasVoted     bool       `json:"has_voted"`
	VotedAt      *time.Time `json:"voted_at,omitempty"`
	RegisteredAt time.Time  `json:"registered_at"`
}

// Vote is an immutable cast-vote record, 1:1 with a voted Voter.
type Vote struct {
	ID          string    `json:"id"`
	ElectionID  string    `json:"election_id"`
	CandidateID string    `json:"candidate_id"`
	VoterID     string    `json:"voter_id"`
	CastAt      time.Time `json:"cast_at"`
}
