package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Ananth-NQI/communitybot/internal/intent"
	"github.com/Ananth-NQI/communitybot/internal/models"
	"github.com/Ananth-NQI/communitybot/internal/profile"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMemberNotFound  = errors.New("member not found")
)

// DefaultSessionTTL is how long a session lives after it is created
const DefaultSessionTTL = 24 * time.Hour

// Expired reports whether a session created at createdAt is past ttl at now.
// Sessions have a fixed lifetime: activity does not extend it.
func Expired(now, createdAt time.Time, ttl time.Duration) bool {
	return now.Sub(createdAt) > ttl
}

// SessionStore persists conversation sessions. Expired sessions are never
// returned, whether or not they have been swept yet.
type SessionStore interface {
	// LoadSession returns ErrSessionNotFound for absent and expired sessions
	LoadSession(ctx context.Context, sessionID string) (*models.Session, error)
	// CreateSession starts a session, replacing an expired one with the same
	// id. An existing live session is returned unchanged.
	CreateSession(ctx context.Context, session *models.Session) (*models.Session, error)
	// SaveContext overwrites the context of a live session
	SaveContext(ctx context.Context, sessionID string, cc intent.ConversationContext) error
	// AppendMessage adds to the end of a live session's history
	AppendMessage(ctx context.Context, sessionID string, msg models.SessionMessage) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
	CountActiveSessions(ctx context.Context) (int64, error)
}

// MemberStore is the community member directory
type MemberStore interface {
	CreateMember(ctx context.Context, member *models.Member) (*models.Member, error)
	GetMemberByPhone(ctx context.Context, phone string) (*models.Member, error)
	UpdateMemberField(ctx context.Context, memberID string, field profile.Field, value string) (*models.Member, error)
	// UpdateMemberStatus changes the verification and active flags; nil leaves a flag unchanged
	UpdateMemberStatus(ctx context.Context, memberID string, verified, active *bool) (*models.Member, error)
	SearchMembers(ctx context.Context, search models.MemberSearch) ([]*models.Member, error)
}

// QueryLogStore keeps the search audit trail
type QueryLogStore interface {
	RecordQuery(ctx context.Context, entry *models.QueryLog) error
	GetQueryLogs(ctx context.Context, sessionID string) ([]*models.QueryLog, error)
}

// Store defines the interface for storage operations
type Store interface {
	SessionStore
	MemberStore
	QueryLogStore

	Ping(ctx context.Context) error
}

// Option configures a store
type Option func(*options)

type options struct {
	ttl time.Duration
	now func() time.Time
}

func defaultOptions() options {
	return options{ttl: DefaultSessionTTL, now: time.Now}
}

// WithSessionTTL sets the session lifetime
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

const defaultSearchLimit = 5
