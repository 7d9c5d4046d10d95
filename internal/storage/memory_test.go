package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/communitybot/internal/intent"
	"github.com/Ananth-NQI/communitybot/internal/models"
	"github.com/Ananth-NQI/communitybot/internal/profile"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewMemoryStore(WithClock(clock.Now)), clock
}

func TestExpired(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.False(t, Expired(created, created, DefaultSessionTTL))
	assert.False(t, Expired(created.Add(24*time.Hour), created, DefaultSessionTTL))
	assert.True(t, Expired(created.Add(24*time.Hour+time.Nanosecond), created, DefaultSessionTTL))
	assert.True(t, Expired(created.Add(48*time.Hour), created, DefaultSessionTTL))
}

func TestMemoryStore_LoadMissingSession(t *testing.T) {
	store, _ := newTestStore()

	_, err := store.LoadSession(context.Background(), "wa:+15550000000")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore()

	created, err := store.CreateSession(ctx, &models.Session{SessionID: "wa:+15551234567", WhatsAppNumber: "+15551234567"})
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), created.CreatedAt)
	assert.Equal(t, intent.WaitNone, created.WaitingFor)

	cc := intent.ConversationContext{
		WaitingFor:    intent.Updating(profile.FieldLinkedIn),
		Authenticated: true,
	}
	clock.Advance(time.Minute)
	require.NoError(t, store.SaveContext(ctx, created.SessionID, cc))
	require.NoError(t, store.AppendMessage(ctx, created.SessionID, models.SessionMessage{Role: models.RoleUser, Content: "update linkedin"}))
	require.NoError(t, store.AppendMessage(ctx, created.SessionID, models.SessionMessage{Role: models.RoleBot, Content: "Send your LinkedIn link"}))

	loaded, err := store.LoadSession(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, cc, loaded.Context())
	assert.Equal(t, clock.Now(), loaded.LastActivity)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, "update linkedin", loaded.Messages[0].Content)
	assert.Equal(t, models.RoleBot, loaded.Messages[1].Role)
	assert.Equal(t, clock.Now(), loaded.Messages[1].Timestamp)
}

func TestMemoryStore_CreateKeepsLiveSession(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	first, err := store.CreateSession(ctx, &models.Session{SessionID: "s1", WhatsAppNumber: "+1"})
	require.NoError(t, err)
	require.NoError(t, store.SaveContext(ctx, "s1", intent.ConversationContext{WaitingFor: intent.WaitReady}))

	again, err := store.CreateSession(ctx, &models.Session{SessionID: "s1", WhatsAppNumber: "+1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, intent.WaitReady, again.WaitingFor)
}

func TestMemoryStore_ExpiryIsFixedFromCreation(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore()

	_, err := store.CreateSession(ctx, &models.Session{SessionID: "s1", WhatsAppNumber: "+1"})
	require.NoError(t, err)

	// activity does not extend the lifetime
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

	// a new session under the same id starts clean
	fresh, err := store.CreateSession(ctx, &models.Session{SessionID: "s1", WhatsAppNumber: "+1"})
	require.NoError(t, err)
	assert.Empty(t, fresh.Messages)
	assert.Equal(t, clock.Now(), fresh.CreatedAt)
}

func TestMemoryStore_DeleteExpiredSessions(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore()

	_, err := store.CreateSession(ctx, &models.Session{SessionID: "old", WhatsAppNumber: "+1"})
	require.NoError(t, err)
	clock.Advance(20 * time.Hour)
	_, err = store.CreateSession(ctx, &models.Session{SessionID: "new", WhatsAppNumber: "+2"})
	require.NoError(t, err)
	clock.Advance(5 * time.Hour)

	active, err := store.CountActiveSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)

	deleted, err := store.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = store.LoadSession(ctx, "new")
	assert.NoError(t, err)
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	_, err := store.CreateSession(ctx, &models.Session{SessionID: "s1", WhatsAppNumber: "+1"})
	require.NoError(t, err)
	require.NoError(t, store.AppendMessage(ctx, "s1", models.SessionMessage{Content: "one"}))

	loaded, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	loaded.Messages[0].Content = "changed"
	loaded.Authenticated = true

	again, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "one", again.Messages[0].Content)
	assert.False(t, again.Authenticated)
}

func TestMemoryStore_Members(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	created, err := store.CreateMember(ctx, &models.Member{Name: "Asha Menon", Phone: "whatsapp:+91 98765 43210", Profession: "Architect", Address: "Kochi", Verified: true, IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", created.Phone)
	assert.NotEmpty(t, created.MemberID)

	_, err = store.CreateMember(ctx, &models.Member{Phone: "+919876543210"})
	assert.Error(t, err)

	got, err := store.GetMemberByPhone(ctx, "919876543210")
	require.NoError(t, err)
	assert.Equal(t, created.MemberID, got.MemberID)

	_, err = store.GetMemberByPhone(ctx, "+10000000000")
	assert.ErrorIs(t, err, ErrMemberNotFound)

	updated, err := store.UpdateMemberField(ctx, created.MemberID, profile.FieldLinkedIn, "https://www.linkedin.com/in/asha")
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/in/asha", updated.LinkedIn)
	assert.True(t, updated.EnhancedProfileCompleted())

	_, err = store.UpdateMemberField(ctx, "MEM-missing", profile.FieldAddress, "x")
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestMemoryStore_SearchMembers(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	seed := []*models.Member{
		{Name: "Asha Menon", Phone: "+911", Profession: "Architect", Address: "Kochi", LinkedIn: "https://www.linkedin.com/in/asha", Verified: true, IsActive: true},
		{Name: "Ravi Das", Phone: "+912", Profession: "Doctor", Address: "Kochi", Instagram: "ravi.das", Verified: true, IsActive: true},
		{Name: "Unverified Architect", Phone: "+913", Profession: "Architect", Verified: false, IsActive: true},
		{Name: "Inactive Architect", Phone: "+914", Profession: "Architect", Verified: true, IsActive: false},
	}
	for _, m := range seed {
		_, err := store.CreateMember(ctx, m)
		require.NoError(t, err)
	}

	byTerm, err := store.SearchMembers(ctx, models.MemberSearch{Terms: []string{"architect"}})
	require.NoError(t, err)
	require.Len(t, byTerm, 1)
	assert.Equal(t, "Asha Menon", byTerm[0].Name)

	byCity, err := store.SearchMembers(ctx, models.MemberSearch{Terms: []string{"KOCHI"}, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, byCity, 1)

	byLinkedIn, err := store.SearchMembers(ctx, models.MemberSearch{LinkedIn: "https://www.linkedin.com/in/asha", Terms: []string{"doctor"}})
	require.NoError(t, err)
	require.Len(t, byLinkedIn, 1)
	assert.Equal(t, "Asha Menon", byLinkedIn[0].Name)

	byInstagram, err := store.SearchMembers(ctx, models.MemberSearch{Instagram: "ravi.das"})
	require.NoError(t, err)
	require.Len(t, byInstagram, 1)
	assert.Equal(t, "Ravi Das", byInstagram[0].Name)

	asha, err := store.GetMemberByPhone(ctx, "+911")
	require.NoError(t, err)
	withoutSelf, err := store.SearchMembers(ctx, models.MemberSearch{Terms: []string{"kochi"}, ExcludeMemberID: asha.MemberID})
	require.NoError(t, err)
	require.Len(t, withoutSelf, 1)
	assert.Equal(t, "Ravi Das", withoutSelf[0].Name)

	ownLink, err := store.SearchMembers(ctx, models.MemberSearch{LinkedIn: asha.LinkedIn, ExcludeMemberID: asha.MemberID})
	require.NoError(t, err)
	assert.Empty(t, ownLink)
}

func TestMemoryStore_QueryLogs(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	require.NoError(t, store.RecordQuery(ctx, &models.QueryLog{SessionID: "s1", Query: "architects", Success: true}))
	require.NoError(t, store.RecordQuery(ctx, &models.QueryLog{SessionID: "s2", Query: "doctors"}))

	s1, err := store.GetQueryLogs(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, s1, 1)
	assert.Equal(t, "architects", s1[0].Query)

	all, err := store.GetQueryLogs(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryStore_UpdateMemberStatus(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	created, err := store.CreateMember(ctx, &models.Member{Name: "Jane", Phone: "+15551230000", IsActive: true})
	require.NoError(t, err)

	verified := true
	updated, err := store.UpdateMemberStatus(ctx, created.MemberID, &verified, nil)
	require.NoError(t, err)
	assert.True(t, updated.Verified)
	assert.True(t, updated.IsActive)

	inactive := false
	updated, err = store.UpdateMemberStatus(ctx, created.MemberID, nil, &inactive)
	require.NoError(t, err)
	assert.True(t, updated.Verified)
	assert.False(t, updated.IsActive)

	_, err = store.UpdateMemberStatus(ctx, "MEM-missing", &verified, nil)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}
