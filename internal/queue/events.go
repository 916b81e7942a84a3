package queue

import (
	"context"
	"encoding/json"
	"time"
)

// Event types understood by the notification worker.
const (
	TypeVoteCast        = "vote.cast"
	TypeVoterRegistered = "voter.registered"
)

// VoteCast is published after a vote transaction commits. Notification is
// best-effort: publish failure is logged, never rolls back the vote.
type VoteCast struct {
	Email         string    `json:"email"`
	ElectionTitle string    `json:"election_title"`
	CandidateName string    `json:"candidate_name"`
	CastAt        time.Time `json:"cast_at"`
}

// VoterRegistered is published after a voter row is created.
type VoterRegistered struct {
	Email         string `json:"email"`
	ElectionTitle string `json:"election_title"`
}

// PublishEvent marshals a typed event payload onto the queue.
func PublishEvent(ctx context.Context, q Queue, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return q.Publish(ctx, Message{Type: eventType, Body: body})
}
