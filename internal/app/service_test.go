package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Derecoder4/Rugguard-bot/internal/adapter/memory"
	"github.com/Derecoder4/Rugguard-bot/internal/adapter/metrics"
	"github.com/Derecoder4/Rugguard-bot/internal/analyzer"
	"github.com/Derecoder4/Rugguard-bot/internal/domain"
	"github.com/Derecoder4/Rugguard-bot/internal/trustlist"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type publishedReply struct {
	inReplyTo string
	text      string
}

// fakePlatform implements AccountSource, MentionSource and ReplyPublisher
// from canned data.
type fakePlatform struct {
	profiles  map[string]*domain.AccountProfile
	posts     map[string][]domain.Post
	followers map[string][]string
	authors   map[string]*domain.PostAuthor
	mentions  []domain.TriggerEvent

	replies      []publishedReply
	replyErr     error
	profileCalls int
	searchCalls  int
}

func (f *fakePlatform) GetProfile(_ context.Context, handle string) (*domain.AccountProfile, error) {
	f.profileCalls++
	profile, ok := f.profiles[handle]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return profile, nil
}

func (f *fakePlatform) GetRecentPosts(_ context.Context, accountID string, _ int) ([]domain.Post, error) {
	return f.posts[accountID], nil
}

func (f *fakePlatform) GetFollowerSample(_ context.Context, accountID string, _ int) ([]string, error) {
	return f.followers[accountID], nil
}

func (f *fakePlatform) SearchMentions(_ context.Context, _ string, _ int) ([]domain.TriggerEvent, error) {
	f.searchCalls++
	return f.mentions, nil
}

func (f *fakePlatform) GetPostAuthor(_ context.Context, postID string) (*domain.PostAuthor, error) {
	author, ok := f.authors[postID]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	return author, nil
}

func (f *fakePlatform) Reply(_ context.Context, inReplyToID, text string) (string, error) {
	if f.replyErr != nil {
		return "", f.replyErr
	}
	f.replies = append(f.replies, publishedReply{inReplyTo: inReplyToID, text: text})
	return "reply1", nil
}

type stubFetcher struct{ raw string }

func (s stubFetcher) Fetch(context.Context) (string, error) { return s.raw, nil }

type testHarness struct {
	service  *Service
	platform *fakePlatform
	store    *memory.Store
	clock    *clockwork.FakeClock
	metrics  *metrics.AnalysisMetrics
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	clock := clockwork.NewFakeClockAt(testNow)
	store := memory.NewStore(clock)
	m := metrics.NewAnalysisMetrics(prometheus.NewRegistry())

	platform := &fakePlatform{
		profiles: map[string]*domain.AccountProfile{
			"project_x": {
				ID:             "77",
				Handle:         "project_x",
				Bio:            "Building the next generation of solana tooling for serious defi teams",
				CreatedAt:      testNow.AddDate(-2, 0, 0),
				FollowersCount: 900,
				FollowingCount: 300,
				Verified:       true,
			},
		},
		posts: map[string][]domain.Post{
			"77": {
				{ID: "p1", Text: "shipping update", Likes: 30, Reposts: 5},
				{ID: "p2", Text: "devnet is live", Likes: 20, Reposts: 2},
			},
		},
		followers: map[string][]string{
			"77": {"trusted_one", "trusted_two", "somebody"},
		},
		authors: map[string]*domain.PostAuthor{
			"orig1": {AccountID: "77", Handle: "project_x"},
		},
	}

	cache := trustlist.NewCache(
		stubFetcher{raw: "trusted_one\ntrusted_two\ntrusted_three"},
		store.Trusted(), time.Hour, clock)

	service := NewService(Deps{
		Analyzer:           analyzer.New(analyzer.DefaultConfig()),
		Trusted:            cache,
		Analyses:           store,
		Events:             store.Events(),
		TrustedRepo:        store.Trusted(),
		Accounts:           platform,
		Mentions:           platform,
		Replies:            platform,
		Cooldown:           store.Cooldown(24 * time.Hour),
		Metrics:            m,
		Clock:              clock,
		PostSampleSize:     20,
		FollowerSampleSize: 100,
	})

	return &testHarness{service: service, platform: platform, store: store, clock: clock, metrics: m}
}

func triggerEvent(id, referencedPostID string) domain.TriggerEvent {
	return domain.TriggerEvent{
		ID:               id,
		Text:             "riddle me this",
		AuthorID:         "99",
		ReferencedPostID: referencedPostID,
		CreatedAt:        testNow,
	}
}

func TestProcessEvent_HappyPath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.service.ProcessEvent(ctx, triggerEvent("m1", "orig1"))
	require.NoError(t, err)

	require.Len(t, h.platform.replies, 1)
	assert.Equal(t, "m1", h.platform.replies[0].inReplyTo)
	assert.Contains(t, h.platform.replies[0].text, "RUGGUARD ANALYSIS: @project_x")
	assert.Contains(t, h.platform.replies[0].text, "Analysis by @projectrugguard")

	done, err := h.store.Events().HasProcessed(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, done)

	stored, err := h.store.GetByAccountID(ctx, "77")
	require.NoError(t, err)
	assert.Equal(t, "project_x", stored.Handle)
	assert.Equal(t, 2, stored.TrustedFollowerCount)
	assert.Equal(t, testNow, stored.AnalyzedAt)
}

func TestProcessEvent_DuplicateEventSkipped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.service.ProcessEvent(ctx, triggerEvent("m1", "orig1")))
	require.NoError(t, h.service.ProcessEvent(ctx, triggerEvent("m1", "orig1")))

	assert.Len(t, h.platform.replies, 1)
}

func TestProcessEvent_NotAReply(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.service.ProcessEvent(ctx, triggerEvent("m2", ""))
	require.NoError(t, err)

	assert.Empty(t, h.platform.replies)
	done, err := h.store.Events().HasProcessed(ctx, "m2")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestProcessEvent_ReferencedPostGone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.service.ProcessEvent(ctx, triggerEvent("m3", "deleted_post"))
	require.NoError(t, err)

	assert.Empty(t, h.platform.replies)
	done, err := h.store.Events().HasProcessed(ctx, "m3")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestProcessEvent_AccountGone(t *testing.T) {
	h := newHarness(t)
	h.platform.authors["orig2"] = &domain.PostAuthor{AccountID: "404", Handle: "vanished"}
	ctx := context.Background()

	err := h.service.ProcessEvent(ctx, triggerEvent("m4", "orig2"))
	require.NoError(t, err)

	assert.Empty(t, h.platform.replies)
	done, err := h.store.Events().HasProcessed(ctx, "m4")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestProcessEvent_ReplyFailureLeavesEventUnprocessed(t *testing.T) {
	h := newHarness(t)
	h.platform.replyErr = errors.New("platform unavailable")
	ctx := context.Background()

	err := h.service.ProcessEvent(ctx, triggerEvent("m5", "orig1"))
	require.Error(t, err)

	done, err := h.store.Events().HasProcessed(ctx, "m5")
	require.NoError(t, err)
	assert.False(t, done)

	// next cycle retries the same event successfully
	h.platform.replyErr = nil
	require.NoError(t, h.service.ProcessEvent(ctx, triggerEvent("m5", "orig1")))
	assert.Len(t, h.platform.replies, 1)
}

func TestProcessEvent_ReplyTargetDeletedIsTerminal(t *testing.T) {
	h := newHarness(t)
	h.platform.replyErr = domain.ErrPostNotFound
	ctx := context.Background()

	err := h.service.ProcessEvent(ctx, triggerEvent("m8", "orig1"))
	require.NoError(t, err)

	done, err := h.store.Events().HasProcessed(ctx, "m8")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestProcessEvent_CooldownReusesStoredAnalysis(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.service.ProcessEvent(ctx, triggerEvent("m1", "orig1")))
	callsAfterFirst := h.platform.profileCalls

	// distinct event, same analyzed account, inside the cooldown window
	require.NoError(t, h.service.ProcessEvent(ctx, triggerEvent("m6", "orig1")))

	assert.Equal(t, callsAfterFirst, h.platform.profileCalls)
	assert.Len(t, h.platform.replies, 2)
	assert.Equal(t, h.platform.replies[0].text, h.platform.replies[1].text)
}

func TestProcessEvent_CooldownExpiryAnalyzesAgain(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.service.ProcessEvent(ctx, triggerEvent("m1", "orig1")))
	callsAfterFirst := h.platform.profileCalls

	h.clock.Advance(25 * time.Hour)
	require.NoError(t, h.service.ProcessEvent(ctx, triggerEvent("m7", "orig1")))

	assert.Equal(t, callsAfterFirst+1, h.platform.profileCalls)
}

func TestStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.service.ProcessEvent(ctx, triggerEvent("m1", "orig1")))

	stats, err := h.service.Status(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalProcessed)
	assert.Equal(t, 1, stats.RecentProcessed)
	assert.Equal(t, 1, stats.TotalAnalyses)
	assert.Equal(t, 1, stats.RecentAnalyses)
	assert.Equal(t, 3, stats.TrustedAccounts)
	assert.True(t, stats.HasActivity)
	assert.Equal(t, testNow, stats.LastProcessedAt)
}

func TestStatus_NoActivity(t *testing.T) {
	h := newHarness(t)

	stats, err := h.service.Status(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.TotalProcessed)
	assert.False(t, stats.HasActivity)
}

func TestRefreshTrusted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.service.RefreshTrusted(ctx))

	count, err := h.store.Trusted().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
