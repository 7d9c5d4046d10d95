package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ananth-NQI/communitybot/internal/intent"
	"github.com/Ananth-NQI/communitybot/internal/models"
	"github.com/Ananth-NQI/communitybot/internal/storage"
)

// Conversation is what a turn knows about the sender before classification
type Conversation struct {
	SessionID string
	Phone     string
	Member    *models.Member // nil for unknown numbers
	Context   intent.ConversationContext
}

// SessionManager loads and persists conversation state for WhatsApp numbers
type SessionManager struct {
	store  storage.Store
	logger *zap.Logger
}

// NewSessionManager creates a new session manager
func NewSessionManager(store storage.Store, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		store:  store,
		logger: logger.Named("sessions"),
	}
}

// Load returns the conversation for phone. It never fails: an absent or
// expired session starts from the default context, and a store failure
// degrades to the default context with a warning.
func (sm *SessionManager) Load(ctx context.Context, phone string) *Conversation {
	phone = models.NormalizePhone(phone)
	conv := &Conversation{
		SessionID: models.SessionIDFor(phone),
		Phone:     phone,
		Context:   intent.DefaultContext(),
	}

	session, err := sm.store.LoadSession(ctx, conv.SessionID)
	switch {
	case err == nil:
		conv.Context = session.Context()
	case errors.Is(err, storage.ErrSessionNotFound):
	default:
		sm.logger.Warn("session load failed, using default context",
			zap.String("session_id", conv.SessionID), zap.Error(err))
		return conv
	}

	// Authentication and profile completeness come from the directory on
	// every turn, so admin changes apply immediately
	member, err := sm.store.GetMemberByPhone(ctx, phone)
	switch {
	case err == nil:
		conv.Member = member
	case errors.Is(err, storage.ErrMemberNotFound):
	default:
		sm.logger.Warn("member lookup failed", zap.String("phone", phone), zap.Error(err))
	}
	conv.Context.Authenticated = conv.Member != nil && conv.Member.Verified && conv.Member.IsActive
	conv.Context.Profile = intent.ProfileSnapshot{}
	if conv.Context.Authenticated {
		conv.Context.Profile = conv.Member.Snapshot()
	}
	return conv
}

// Persist stores the context after a turn and appends the inbound message
// and the reply to the history, creating the session if needed
func (sm *SessionManager) Persist(ctx context.Context, conv *Conversation, next intent.ConversationContext, inbound, reply string) error {
	userID := ""
	if conv.Member != nil {
		userID = conv.Member.MemberID
	}

	_, err := sm.store.CreateSession(ctx, &models.Session{
		SessionID:      conv.SessionID,
		UserID:         userID,
		WhatsAppNumber: conv.Phone,
	})
	if err != nil {
		return sm.persistFailed(conv, err)
	}

	if err := sm.store.SaveContext(ctx, conv.SessionID, next); err != nil {
		return sm.persistFailed(conv, err)
	}
	if err := sm.store.AppendMessage(ctx, conv.SessionID, models.SessionMessage{Role: models.RoleUser, Content: inbound}); err != nil {
		return sm.persistFailed(conv, err)
	}
	if reply != "" {
		if err := sm.store.AppendMessage(ctx, conv.SessionID, models.SessionMessage{Role: models.RoleBot, Content: reply}); err != nil {
			return sm.persistFailed(conv, err)
		}
	}
	return nil
}

func (sm *SessionManager) persistFailed(conv *Conversation, err error) error {
	sm.logger.Error("session persist failed", zap.String("session_id", conv.SessionID), zap.Error(err))
	return fmt.Errorf("persist session %s: %w", conv.SessionID, err)
}

// ActiveSessions counts sessions that have not expired
func (sm *SessionManager) ActiveSessions(ctx context.Context) (int64, error) {
	return sm.store.CountActiveSessions(ctx)
}

// CleanupExpired removes expired sessions and their history
func (sm *SessionManager) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := sm.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		sm.logger.Info("expired sessions removed", zap.Int64("count", deleted))
	}
	return deleted, nil
}
