package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Ananth-NQI/communitybot/internal/intent"
	"github.com/Ananth-NQI/communitybot/internal/models"
	"github.com/Ananth-NQI/communitybot/internal/profile"
)

// DatabaseStore implements Store on PostgreSQL through gorm
type DatabaseStore struct {
	db   *gorm.DB
	opts options
}

// NewDatabaseStore wraps an open gorm connection
func NewDatabaseStore(db *gorm.DB, opts ...Option) *DatabaseStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &DatabaseStore{db: db, opts: o}
}

func (d *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Session operations

func (d *DatabaseStore) LoadSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	err := d.live(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("session_id = ?", sessionID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load %s: %w", sessionID, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", sessionID, err)
	}

	if Expired(d.opts.now(), session.CreatedAt, d.opts.ttl) {
		return nil, fmt.Errorf("load %s: %w", sessionID, ErrSessionNotFound)
	}
	return &session, nil
}

func (d *DatabaseStore) CreateSession(ctx context.Context, session *models.Session) (*models.Session, error) {
	now := d.opts.now()
	created := *session
	created.Model = gorm.Model{CreatedAt: now, UpdatedAt: now}
	created.LastActivity = now
	created.Messages = nil

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Session
		err := tx.Where("session_id = ?", session.SessionID).First(&existing).Error
		switch {
		case err == nil && !Expired(now, existing.CreatedAt, d.opts.ttl):
			created = existing
			return nil
		case err == nil:
			if _, err := purgeSessions(tx, "session_id = ?", session.SessionID); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create session %s: %w", session.SessionID, err)
	}
	return &created, nil
}

func (d *DatabaseStore) SaveContext(ctx context.Context, sessionID string, cc intent.ConversationContext) error {
	res := d.live(ctx).
		Model(&models.Session{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"waiting_for":                cc.WaitingFor,
			"authenticated":              cc.Authenticated,
			"enhanced_profile_completed": cc.Profile.EnhancedProfileCompleted,
			"last_activity":              d.opts.now(),
		})
	if res.Error != nil {
		return fmt.Errorf("save %s: %w", sessionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("save %s: %w", sessionID, ErrSessionNotFound)
	}
	return nil
}

func (d *DatabaseStore) AppendMessage(ctx context.Context, sessionID string, msg models.SessionMessage) error {
	now := d.opts.now()
	msg.ID = 0
	msg.SessionID = sessionID
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Session{}).
			Where("session_id = ? AND created_at >= ?", sessionID, now.Add(-d.opts.ttl)).
			Update("last_activity", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		return tx.Create(&msg).Error
	})
	if err != nil {
		return fmt.Errorf("append to %s: %w", sessionID, err)
	}
	return nil
}

func (d *DatabaseStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	cutoff := d.opts.now().Add(-d.opts.ttl)

	var deleted int64
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		deleted, err = purgeSessions(tx, "created_at < ?", cutoff)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return deleted, nil
}

func (d *DatabaseStore) CountActiveSessions(ctx context.Context) (int64, error) {
	var count int64
	err := d.live(ctx).Model(&models.Session{}).Count(&count).Error
	return count, err
}

// live scopes a query to sessions that have not expired
func (d *DatabaseStore) live(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx).Where("created_at >= ?", d.opts.now().Add(-d.opts.ttl))
}

// purgeSessions hard deletes the sessions matching query together with their history
func purgeSessions(tx *gorm.DB, query string, args ...interface{}) (int64, error) {
	ids := tx.Unscoped().Model(&models.Session{}).Select("session_id").Where(query, args...)
	if err := tx.Where("session_id IN (?)", ids).Delete(&models.SessionMessage{}).Error; err != nil {
		return 0, err
	}
	res := tx.Unscoped().Where(query, args...).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

// Member operations

func (d *DatabaseStore) CreateMember(ctx context.Context, member *models.Member) (*models.Member, error) {
	created := *member
	if err := d.db.WithContext(ctx).Create(&created).Error; err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}
	return &created, nil
}

func (d *DatabaseStore) GetMemberByPhone(ctx context.Context, phone string) (*models.Member, error) {
	var member models.Member
	err := d.db.WithContext(ctx).Where("phone = ?", models.NormalizePhone(phone)).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("phone %s: %w", phone, ErrMemberNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &member, nil
}

func (d *DatabaseStore) UpdateMemberField(ctx context.Context, memberID string, field profile.Field, value string) (*models.Member, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("update member %s: unknown field %q", memberID, field)
	}

	var member models.Member
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("member_id = ?", memberID).First(&member).Error; err != nil {
			return err
		}
		member.SetField(field, value)
		return tx.Model(&member).Update(string(field), value).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("member %s: %w", memberID, ErrMemberNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update member %s: %w", memberID, err)
	}
	return &member, nil
}

func (d *DatabaseStore) UpdateMemberStatus(ctx context.Context, memberID string, verified, active *bool) (*models.Member, error) {
	updates := map[string]interface{}{}
	if verified != nil {
		updates["verified"] = *verified
	}
	if active != nil {
		updates["is_active"] = *active
	}

	var member models.Member
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("member_id = ?", memberID).First(&member).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&member).Updates(updates).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("member %s: %w", memberID, ErrMemberNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update member %s: %w", memberID, err)
	}
	return &member, nil
}

func (d *DatabaseStore) SearchMembers(ctx context.Context, search models.MemberSearch) ([]*models.Member, error) {
	limit := search.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	q := d.db.WithContext(ctx).Where("is_active = ? AND verified = ?", true, true)
	if search.ExcludeMemberID != "" {
		q = q.Where("member_id <> ?", search.ExcludeMemberID)
	}
	switch {
	case search.LinkedIn != "":
		q = q.Where("linkedin = ?", search.LinkedIn)
	case search.Instagram != "":
		q = q.Where("instagram = ?", search.Instagram)
	case len(search.Terms) > 0:
		var clauses []string
		var args []interface{}
		for _, term := range search.Terms {
			pattern := "%" + escapeLike(term) + "%"
			clauses = append(clauses, "(name ILIKE ? OR profession ILIKE ? OR company ILIKE ? OR address ILIKE ?)")
			args = append(args, pattern, pattern, pattern, pattern)
		}
		q = q.Where(strings.Join(clauses, " OR "), args...)
	default:
		return nil, nil
	}

	var members []*models.Member
	if err := q.Order("id ASC").Limit(limit).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("search members: %w", err)
	}
	return members, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Query log operations

func (d *DatabaseStore) RecordQuery(ctx context.Context, entry *models.QueryLog) error {
	if err := d.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("record query: %w", err)
	}
	return nil
}

func (d *DatabaseStore) GetQueryLogs(ctx context.Context, sessionID string) ([]*models.QueryLog, error) {
	q := d.db.WithContext(ctx).Order("id ASC")
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}

	var logs []*models.QueryLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("get query logs: %w", err)
	}
	return logs, nil
}
