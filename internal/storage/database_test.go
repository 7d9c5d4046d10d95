package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Ananth-NQI/communitybot/database"
	"github.com/Ananth-NQI/communitybot/internal/intent"
	"github.com/Ananth-NQI/communitybot/internal/logging"
	"github.com/Ananth-NQI/communitybot/internal/models"
	"github.com/Ananth-NQI/communitybot/internal/profile"
)

func newDatabaseTestStore(t *testing.T) (*DatabaseStore, *gorm.DB, *fakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logging.NewGormLogger(zap.NewNop()),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))

	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewDatabaseStore(db, WithClock(clock.Now)), db, clock
}

func countMessages(t *testing.T, db *gorm.DB, sessionID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.SessionMessage{}).Where("session_id = ?", sessionID).Count(&n).Error)
	return n
}

func TestDatabaseStore_Ping(t *testing.T) {
	store, _, _ := newDatabaseTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestDatabaseStore_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store, _, clock := newDatabaseTestStore(t)

	_, err := store.LoadSession(ctx, "wa:+15551234567")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	created, err := store.CreateSession(ctx, &models.Session{SessionID: "wa:+15551234567", WhatsAppNumber: "+15551234567"})
	require.NoError(t, err)
	assert.True(t, created.CreatedAt.Equal(clock.Now()))

	cc := intent.ConversationContext{
		WaitingFor:    intent.Updating(profile.FieldAddress),
		Authenticated: true,
		Profile:       intent.ProfileSnapshot{EnhancedProfileCompleted: true},
	}
	clock.Advance(time.Minute)
	require.NoError(t, store.SaveContext(ctx, created.SessionID, cc))
	require.NoError(t, store.AppendMessage(ctx, created.SessionID, models.SessionMessage{Role: models.RoleUser, Content: "update address"}))
	require.NoError(t, store.AppendMessage(ctx, created.SessionID, models.SessionMessage{Role: models.RoleBot, Content: "Send your address"}))

	loaded, err := store.LoadSession(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, cc, loaded.Context())
	assert.True(t, loaded.LastActivity.Equal(clock.Now()))
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, "update address", loaded.Messages[0].Content)
	assert.Equal(t, models.RoleBot, loaded.Messages[1].Role)

	again, err := store.CreateSession(ctx, &models.Session{SessionID: created.SessionID, WhatsAppNumber: "+15551234567"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, cc.WaitingFor, again.WaitingFor)

	active, err := store.CountActiveSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)
}

func TestDatabaseStore_ExpiryIsFixedFromCreation(t *testing.T) {
	ctx := context.Background()
	store, db, clock := newDatabaseTestStore(t)

	first, err := store.CreateSession(ctx, &models.Session{SessionID: "s1", WhatsAppNumber: "+1"})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		clock.Advance(6 * time.Hour)
		require.NoError(t, store.AppendMessage(ctx, "s1", models.SessionMessage{Role: models.RoleUser, Content: "hi"}))
	}
	_, err = store.LoadSession(ctx, "s1")
	require.NoError(t, err, "exactly 24h old is still live")

	clock.Advance(time.Second)
	_, err = store.LoadSession(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.SaveContext(ctx, "s1", intent.DefaultContext()), ErrSessionNotFound)
	assert.ErrorIs(t, store.AppendMessage(ctx, "s1", models.SessionMessage{Content: "late"}), ErrSessionNotFound)
	assert.Equal(t, int64(4), countMessages(t, db, "s1"))

	active, err := store.CountActiveSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, active)

	// the expired row and its history are replaced by a clean session
	fresh, err := store.CreateSession(ctx, &models.Session{SessionID: "s1", WhatsAppNumber: "+1"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, fresh.ID)
	assert.True(t, fresh.CreatedAt.Equal(clock.Now()))
	assert.Zero(t, countMessages(t, db, "s1"))

	loaded, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Messages)
	assert.Equal(t, intent.WaitNone, loaded.WaitingFor)
}

func TestDatabaseStore_DeleteExpiredSessions(t *testing.T) {
	ctx := context.Background()
	store, db, clock := newDatabaseTestStore(t)

	_, err := store.CreateSession(ctx, &models.Session{SessionID: "old", WhatsAppNumber: "+1"})
	require.NoError(t, err)
	require.NoError(t, store.AppendMessage(ctx, "old", models.SessionMessage{Role: models.RoleUser, Content: "hi"}))

	clock.Advance(20 * time.Hour)
	_, err = store.CreateSession(ctx, &models.Session{SessionID: "new", WhatsAppNumber: "+2"})
	require.NoError(t, err)
	require.NoError(t, store.AppendMessage(ctx, "new", models.SessionMessage{Role: models.RoleUser, Content: "hello"}))
	clock.Advance(5 * time.Hour)

	deleted, err := store.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Zero(t, countMessages(t, db, "old"))
	assert.Equal(t, int64(1), countMessages(t, db, "new"))

	var remaining int64
	require.NoError(t, db.Unscoped().Model(&models.Session{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)

	deleted, err = store.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	loaded, err := store.LoadSession(ctx, "new")
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 1)
}

func TestDatabaseStore_Members(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newDatabaseTestStore(t)

	created, err := store.CreateMember(ctx, &models.Member{Name: "Asha Menon", Phone: "whatsapp:+91 98765 43210", Address: "Kochi", Verified: true, IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", created.Phone)
	assert.NotEmpty(t, created.MemberID)

	_, err = store.CreateMember(ctx, &models.Member{Name: "Copy", Phone: "+919876543210", IsActive: true})
	assert.Error(t, err)

	got, err := store.GetMemberByPhone(ctx, "919876543210")
	require.NoError(t, err)
	assert.Equal(t, created.MemberID, got.MemberID)

	_, err = store.GetMemberByPhone(ctx, "+10000000000")
	assert.ErrorIs(t, err, ErrMemberNotFound)

	updated, err := store.UpdateMemberField(ctx, created.MemberID, profile.FieldLinkedIn, "https://www.linkedin.com/in/asha")
	require.NoError(t, err)
	assert.True(t, updated.EnhancedProfileCompleted())

	got, err = store.GetMemberByPhone(ctx, created.Phone)
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/in/asha", got.LinkedIn)

	_, err = store.UpdateMemberField(ctx, "MEM-missing", profile.FieldAddress, "Pune")
	assert.ErrorIs(t, err, ErrMemberNotFound)

	inactive := false
	updated, err = store.UpdateMemberStatus(ctx, created.MemberID, nil, &inactive)
	require.NoError(t, err)
	assert.True(t, updated.Verified)
	assert.False(t, updated.IsActive)

	_, err = store.UpdateMemberStatus(ctx, "MEM-missing", nil, &inactive)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestDatabaseStore_SearchByLinkedInLeavesOutSearcher(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newDatabaseTestStore(t)

	const link = "https://www.linkedin.com/in/shared"
	jane, err := store.CreateMember(ctx, &models.Member{Name: "Jane Doe", Phone: "+911", LinkedIn: link, Verified: true, IsActive: true})
	require.NoError(t, err)
	_, err = store.CreateMember(ctx, &models.Member{Name: "Ravi Das", Phone: "+912", LinkedIn: link, Verified: true, IsActive: true})
	require.NoError(t, err)

	all, err := store.SearchMembers(ctx, models.MemberSearch{LinkedIn: link})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	others, err := store.SearchMembers(ctx, models.MemberSearch{LinkedIn: link, ExcludeMemberID: jane.MemberID})
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, "Ravi Das", others[0].Name)
}

func TestDatabaseStore_QueryLogs(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newDatabaseTestStore(t)

	require.NoError(t, store.RecordQuery(ctx, &models.QueryLog{SessionID: "s1", Query: "architects", Success: true}))
	require.NoError(t, store.RecordQuery(ctx, &models.QueryLog{SessionID: "s2", Query: "doctors"}))

	s1, err := store.GetQueryLogs(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, s1, 1)
	assert.Equal(t, "architects", s1[0].Query)
	assert.True(t, s1[0].Success)

	all, err := store.GetQueryLogs(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
