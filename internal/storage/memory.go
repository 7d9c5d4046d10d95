package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Ananth-NQI/communitybot/internal/intent"
	"github.com/Ananth-NQI/communitybot/internal/models"
	"github.com/Ananth-NQI/communitybot/internal/profile"
)

// MemoryStore holds all data in memory, for development and tests
type MemoryStore struct {
	opts options

	sessions  map[string]*models.Session // by SessionID
	members   map[string]*models.Member  // by phone
	queryLogs []*models.QueryLog

	// Mutexes for thread safety
	sessionMu sync.RWMutex
	memberMu  sync.RWMutex
	queryMu   sync.RWMutex

	// Counters for ID generation
	sessionCounter uint
	memberCounter  uint
	messageCounter uint
	queryCounter   uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		opts:     o,
		sessions: make(map[string]*models.Session),
		members:  make(map[string]*models.Member),
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Session operations

func (m *MemoryStore) LoadSession(ctx context.Context, sessionID string) (*models.Session, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	session, ok := m.liveSession(sessionID)
	if !ok {
		return nil, fmt.Errorf("load %s: %w", sessionID, ErrSessionNotFound)
	}
	return copySession(session), nil
}

func (m *MemoryStore) CreateSession(ctx context.Context, session *models.Session) (*models.Session, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	if existing, ok := m.liveSession(session.SessionID); ok {
		return copySession(existing), nil
	}

	now := m.opts.now()
	m.sessionCounter++

	created := copySession(session)
	created.ID = m.sessionCounter
	created.CreatedAt = now
	created.UpdatedAt = now
	created.LastActivity = now
	created.Messages = nil

	m.sessions[created.SessionID] = created
	return copySession(created), nil
}

func (m *MemoryStore) SaveContext(ctx context.Context, sessionID string, cc intent.ConversationContext) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	session, ok := m.liveSession(sessionID)
	if !ok {
		return fmt.Errorf("save %s: %w", sessionID, ErrSessionNotFound)
	}

	now := m.opts.now()
	session.SetContext(cc)
	session.LastActivity = now
	session.UpdatedAt = now
	return nil
}

func (m *MemoryStore) AppendMessage(ctx context.Context, sessionID string, msg models.SessionMessage) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	session, ok := m.liveSession(sessionID)
	if !ok {
		return fmt.Errorf("append to %s: %w", sessionID, ErrSessionNotFound)
	}

	now := m.opts.now()
	m.messageCounter++
	msg.ID = m.messageCounter
	msg.SessionID = sessionID
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}

	session.Messages = append(session.Messages, msg)
	session.LastActivity = now
	session.UpdatedAt = now
	return nil
}

func (m *MemoryStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	now := m.opts.now()
	var deleted int64
	for id, session := range m.sessions {
		if Expired(now, session.CreatedAt, m.opts.ttl) {
			delete(m.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryStore) CountActiveSessions(ctx context.Context) (int64, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	now := m.opts.now()
	var active int64
	for _, session := range m.sessions {
		if !Expired(now, session.CreatedAt, m.opts.ttl) {
			active++
		}
	}
	return active, nil
}

// liveSession must be called with sessionMu held
func (m *MemoryStore) liveSession(sessionID string) (*models.Session, bool) {
	session, ok := m.sessions[sessionID]
	if !ok || Expired(m.opts.now(), session.CreatedAt, m.opts.ttl) {
		return nil, false
	}
	return session, true
}

func copySession(s *models.Session) *models.Session {
	out := *s
	out.Messages = append([]models.SessionMessage(nil), s.Messages...)
	return &out
}

// Member operations

func (m *MemoryStore) CreateMember(ctx context.Context, member *models.Member) (*models.Member, error) {
	m.memberMu.Lock()
	defer m.memberMu.Unlock()

	created := *member
	created.Normalize()
	if _, exists := m.members[created.Phone]; exists {
		return nil, fmt.Errorf("member with phone %s already exists", created.Phone)
	}

	now := m.opts.now()
	m.memberCounter++
	created.ID = m.memberCounter
	created.CreatedAt = now
	created.UpdatedAt = now

	m.members[created.Phone] = &created
	out := created
	return &out, nil
}

func (m *MemoryStore) GetMemberByPhone(ctx context.Context, phone string) (*models.Member, error) {
	m.memberMu.RLock()
	defer m.memberMu.RUnlock()

	member, ok := m.members[models.NormalizePhone(phone)]
	if !ok {
		return nil, fmt.Errorf("phone %s: %w", phone, ErrMemberNotFound)
	}
	out := *member
	return &out, nil
}

func (m *MemoryStore) UpdateMemberField(ctx context.Context, memberID string, field profile.Field, value string) (*models.Member, error) {
	m.memberMu.Lock()
	defer m.memberMu.Unlock()

	for _, member := range m.members {
		if member.MemberID == memberID {
			member.SetField(field, value)
			member.UpdatedAt = m.opts.now()
			out := *member
			return &out, nil
		}
	}
	return nil, fmt.Errorf("member %s: %w", memberID, ErrMemberNotFound)
}

func (m *MemoryStore) UpdateMemberStatus(ctx context.Context, memberID string, verified, active *bool) (*models.Member, error) {
	m.memberMu.Lock()
	defer m.memberMu.Unlock()

	for _, member := range m.members {
		if member.MemberID == memberID {
			if verified != nil {
				member.Verified = *verified
			}
			if active != nil {
				member.IsActive = *active
			}
			member.UpdatedAt = m.opts.now()
			out := *member
			return &out, nil
		}
	}
	return nil, fmt.Errorf("member %s: %w", memberID, ErrMemberNotFound)
}

func (m *MemoryStore) SearchMembers(ctx context.Context, search models.MemberSearch) ([]*models.Member, error) {
	m.memberMu.RLock()
	defer m.memberMu.RUnlock()

	limit := search.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var results []*models.Member
	for _, member := range m.members {
		if !member.IsActive || !member.Verified {
			continue
		}
		if search.ExcludeMemberID != "" && member.MemberID == search.ExcludeMemberID {
			continue
		}
		if !memberMatches(member, search) {
			continue
		}
		out := *member
		results = append(results, &out)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func memberMatches(member *models.Member, search models.MemberSearch) bool {
	switch {
	case search.LinkedIn != "":
		return member.LinkedIn == search.LinkedIn
	case search.Instagram != "":
		return member.Instagram == search.Instagram
	}

	haystack := strings.ToLower(strings.Join([]string{member.Name, member.Profession, member.Company, member.Address}, " "))
	for _, term := range search.Terms {
		if strings.Contains(haystack, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// Query log operations

func (m *MemoryStore) RecordQuery(ctx context.Context, entry *models.QueryLog) error {
	m.queryMu.Lock()
	defer m.queryMu.Unlock()

	now := m.opts.now()
	m.queryCounter++
	stored := *entry
	stored.ID = m.queryCounter
	stored.CreatedAt = now
	stored.UpdatedAt = now

	m.queryLogs = append(m.queryLogs, &stored)
	return nil
}

func (m *MemoryStore) GetQueryLogs(ctx context.Context, sessionID string) ([]*models.QueryLog, error) {
	m.queryMu.RLock()
	defer m.queryMu.RUnlock()

	var logs []*models.QueryLog
	for _, entry := range m.queryLogs {
		if sessionID == "" || entry.SessionID == sessionID {
			out := *entry
			logs = append(logs, &out)
		}
	}
	return logs, nil
}
