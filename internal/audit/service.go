package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It is append-only: there are no Update or Delete methods.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records delegated calls. Callers treat failures as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" || e.Function == "" || e.OnBehalfOf == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// DelegatedCall describes one service_role request made for a user.
type DelegatedCall struct {
	Function   string
	Command    string
	ActorRole  string
	OnBehalfOf string
	IP         string
	Status     int
}

// LogDelegatedCall records a delegated call.
func (s *Service) LogDelegatedCall(ctx context.Context, d DelegatedCall) error {
	return s.Append(ctx, Event{
		Type:       EventTypeDelegatedCall,
		Function:   d.Function,
		Command:    d.Command,
		ActorRole:  d.ActorRole,
		OnBehalfOf: d.OnBehalfOf,
		IPAddress:  d.IP,
		Status:     d.Status,
	})
}
