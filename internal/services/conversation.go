package services

import (
	"context"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Ananth-NQI/communitybot/internal/intent"
	"github.com/Ananth-NQI/communitybot/internal/models"
	"github.com/Ananth-NQI/communitybot/internal/profile"
	"github.com/Ananth-NQI/communitybot/internal/storage"
)

// words that carry no search meaning on their own
var searchStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "in": true, "at": true, "of": true,
	"for": true, "and": true, "or": true, "from": true, "near": true, "with": true,
	"is": true, "are": true, "who": true, "any": true, "anyone": true, "someone": true,
	"me": true, "my": true, "find": true, "looking": true, "need": true, "people": true,
	"working": true, "works": true, "search": true, "please": true,
}

// words the member sends to leave a pending field update
var cancelWords = map[string]bool{
	"cancel": true, "/cancel": true, "!cancel": true, "stop": true,
}

// ConversationService runs one WhatsApp turn: load context, classify,
// act and persist
type ConversationService struct {
	sessions *SessionManager
	members  storage.MemberStore
	queries  *QueryLogger
	logger   *zap.Logger
	now      func() time.Time
}

// NewConversationService creates a new conversation service
func NewConversationService(sessions *SessionManager, members storage.MemberStore, queries *QueryLogger, logger *zap.Logger) *ConversationService {
	return &ConversationService{
		sessions: sessions,
		members:  members,
		queries:  queries,
		logger:   logger.Named("conversation"),
		now:      time.Now,
	}
}

// HandleMessage processes one inbound message and returns the reply. The
// reply is valid even when err is non-nil: err reports that the turn could
// not be persisted.
func (s *ConversationService) HandleMessage(ctx context.Context, phone, message string) (string, error) {
	conv := s.sessions.Load(ctx, phone)
	in := intent.Classify(message, conv.Context)

	s.logger.Debug("message classified",
		zap.String("session_id", conv.SessionID),
		zap.String("state", conv.Context.WaitingFor.String()),
		zap.String("intent", string(in.Type)),
		zap.Bool("blocked", in.Blocked))

	next, reply := s.dispatch(ctx, conv, in)
	if err := s.sessions.Persist(ctx, conv, next, message, reply); err != nil {
		return reply, err
	}
	return reply, nil
}

func (s *ConversationService) dispatch(ctx context.Context, conv *Conversation, in intent.Intent) (intent.ConversationContext, string) {
	next := conv.Context

	if in.Blocked {
		// a pending update cannot be completed without a verified member
		if !next.WaitingFor.Free() {
			next.WaitingFor = intent.WaitReady
		}
		return next, blockedMessage(in)
	}

	switch in.Type {
	case intent.TypeProfileInput:
		return s.handleProfileInput(ctx, conv, in)
	case intent.TypeSearch:
		next.WaitingFor = intent.WaitReady
		return next, s.handleSearch(ctx, conv, in)
	case intent.TypeCommand:
		return s.handleCommand(conv, in)
	}

	if next.WaitingFor == intent.WaitNone {
		next.WaitingFor = intent.WaitReady
		return next, helpMessage()
	}
	return next, unknownMessage()
}

func (s *ConversationService) handleCommand(conv *Conversation, in intent.Intent) (intent.ConversationContext, string) {
	next := conv.Context
	next.WaitingFor = intent.WaitReady

	switch in.Command {
	case intent.CommandProfile:
		return next, profileMessage(conv.Member)
	case intent.CommandUpdate:
		if in.Target == "" {
			return next, updateChoiceMessage()
		}
		next.WaitingFor = intent.Updating(in.Target)
		return next, fieldPrompt(in.Target, conv.Member.FieldValue(in.Target))
	case intent.CommandCancel:
		return next, cancelledMessage()
	}
	return next, helpMessage()
}

func (s *ConversationService) handleProfileInput(ctx context.Context, conv *Conversation, in intent.Intent) (intent.ConversationContext, string) {
	next := conv.Context

	if cancelWords[strings.ToLower(in.Value)] {
		next.WaitingFor = intent.WaitReady
		return next, cancelledMessage()
	}

	result := profile.ValidateField(in.Field, in.Value)
	if !result.Valid {
		// stay in the same state so the next message is another attempt
		return next, invalidFieldMessage(in.Field, result.Message)
	}

	wasComplete := conv.Member.EnhancedProfileCompleted()
	updated, err := s.members.UpdateMemberField(ctx, conv.Member.MemberID, in.Field, result.Value)
	if err != nil {
		s.logger.Error("failed to update member field",
			zap.String("member_id", conv.Member.MemberID),
			zap.String("field", in.Field.String()),
			zap.Error(err))
		return next, errorMessage()
	}

	conv.Member = updated
	next.WaitingFor = intent.WaitReady
	next.Profile = updated.Snapshot()
	return next, fieldSavedMessage(in.Field, result.Value, !wasComplete && updated.EnhancedProfileCompleted())
}

func (s *ConversationService) handleSearch(ctx context.Context, conv *Conversation, in intent.Intent) string {
	start := s.now()
	search, metadata := buildSearch(in)
	if conv.Member != nil {
		search.ExcludeMemberID = conv.Member.MemberID
	}

	members, err := s.members.SearchMembers(ctx, search)
	var reply string
	if err != nil {
		s.logger.Error("member search failed", zap.String("session_id", conv.SessionID), zap.Error(err))
		reply = errorMessage()
	} else {
		reply = searchResultsMessage(in.Query, members)
	}

	results := make([]models.QueryResult, 0, len(members))
	for _, m := range members {
		results = append(results, models.QueryResult{
			UserID:  m.MemberID,
			Score:   1,
			Matched: matchedFields(m, search),
		})
	}

	s.queries.Record(&models.QueryLog{
		SessionID:        conv.SessionID,
		Query:            in.Query,
		Intent:           string(in.Type),
		Results:          datatypes.NewJSONType(results),
		Response:         reply,
		Success:          err == nil,
		ProcessingTimeMs: s.now().Sub(start).Milliseconds(),
		Metadata:         datatypes.NewJSONType(metadata),
	})
	return reply
}

// buildSearch turns a search intent into directory search parameters
func buildSearch(in intent.Intent) (models.MemberSearch, models.QueryMetadata) {
	metadata := models.QueryMetadata{SearchType: string(in.SearchKind)}

	switch in.SearchKind {
	case intent.SearchLinkedIn:
		if r := profile.ValidateLinkedIn(in.Query); r.Valid {
			metadata.Filters = map[string]string{"linkedin": r.Value}
			return models.MemberSearch{LinkedIn: r.Value}, metadata
		}
	case intent.SearchInstagram:
		if r := profile.ValidateInstagram(in.Query); r.Valid && r.Value != "" {
			metadata.Filters = map[string]string{"instagram": r.Value}
			return models.MemberSearch{Instagram: r.Value}, metadata
		}
	}

	metadata.SearchType = string(intent.SearchText)
	return models.MemberSearch{Terms: searchTerms(in.Query)}, metadata
}

// searchTerms splits a free text query into lowercased words, dropping
// stop words and plural endings
func searchTerms(query string) []string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r)
	})

	seen := make(map[string]bool)
	var terms []string
	for _, w := range words {
		if searchStopWords[w] || len([]rune(w)) < 2 {
			continue
		}
		if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
			w = strings.TrimSuffix(w, "s")
		}
		if !seen[w] {
			seen[w] = true
			terms = append(terms, w)
		}
	}
	return terms
}

func matchedFields(m *models.Member, search models.MemberSearch) []string {
	switch {
	case search.LinkedIn != "":
		return []string{"linkedin"}
	case search.Instagram != "":
		return []string{"instagram"}
	}

	var matched []string
	fields := []struct {
		name, value string
	}{
		{"name", m.Name},
		{"profession", m.Profession},
		{"company", m.Company},
		{"address", m.Address},
	}
	for _, f := range fields {
		value := strings.ToLower(f.value)
		for _, term := range search.Terms {
			if strings.Contains(value, term) {
				matched = append(matched, f.name)
				break
			}
		}
	}
	return matched
}
