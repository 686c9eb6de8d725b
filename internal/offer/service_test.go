package offer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumina-beauty/lumina-offer/internal/geo"
	"github.com/lumina-beauty/lumina-offer/internal/line"
	"github.com/lumina-beauty/lumina-offer/internal/ranking"
	"github.com/lumina-beauty/lumina-offer/internal/salon"
	"github.com/lumina-beauty/lumina-offer/internal/schedule"
	"github.com/lumina-beauty/lumina-offer/internal/store"
)

var jst = time.FixedZone("JST", 9*60*60)

type memUsers struct {
	users     map[string]*salon.UserWishes
	upsertErr error
}

func (m *memUsers) Get(_ context.Context, userID string) (*salon.UserWishes, error) {
	user, ok := m.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return user, nil
}

func (m *memUsers) Upsert(_ context.Context, user *salon.UserWishes) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.users[user.UserID] = user
	return nil
}

func (m *memUsers) SaveQuestionnaire(_ context.Context, userID string, _ *salon.Questionnaire) error {
	if _, ok := m.users[userID]; !ok {
		return store.ErrNotFound
	}
	return nil
}

type memPostings struct {
	items []*salon.Posting
	err   error
}

func (m *memPostings) All(context.Context) (*salon.Postings, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &salon.Postings{Items: append([]*salon.Posting(nil), m.items...)}, nil
}

func (m *memPostings) Get(_ context.Context, postingID string) (*salon.Posting, error) {
	for _, p := range m.items {
		if p.ID == postingID {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

type memHistory struct {
	entries []*salon.OfferHistoryEntry
}

func (m *memHistory) ListByUser(_ context.Context, userID string) ([]*salon.OfferHistoryEntry, error) {
	var out []*salon.OfferHistoryEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memHistory) Append(_ context.Context, entry *salon.OfferHistoryEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memHistory) MarkScheduling(context.Context, string, string, *salon.Interview) error {
	return store.ErrNotFound
}

type memQueue struct {
	entries []*salon.QueueEntry
}

func (m *memQueue) Enqueue(_ context.Context, entries []*salon.QueueEntry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memQueue) PendingBefore(context.Context, string) ([]*salon.QueueEntry, error) {
	return nil, nil
}

func (m *memQueue) MarkSent(context.Context, string) error  { return nil }
func (m *memQueue) MarkError(context.Context, string) error { return nil }

type stubResolver struct {
	coords geo.Coordinates
	err    error
}

func (s *stubResolver) Resolve(context.Context, string, string) (geo.Coordinates, error) {
	return s.coords, s.err
}

type fakeRanker struct {
	ids []string
	err error
}

func (f *fakeRanker) Rank(_ context.Context, _ *salon.UserWishes, _ *salon.Postings, _ int) ([]string, error) {
	return f.ids, f.err
}

type fakePusher struct {
	pushed []string
	err    error
}

func (f *fakePusher) Push(_ context.Context, userID string, _ ...line.Message) error {
	if f.err != nil {
		return f.err
	}
	f.pushed = append(f.pushed, userID)
	return nil
}

// Shibuya station coordinates for the origin and nearby postings.
func recruitingPosting(id string, lat, lng float64) *salon.Posting {
	return &salon.Posting{
		ID:        id,
		Status:    salon.StatusRecruiting,
		Roles:     "スタイリスト",
		License:   salon.LicenseRequired,
		Latitude:  lat,
		Longitude: lng,
	}
}

type serviceFixture struct {
	users    *memUsers
	postings *memPostings
	history  *memHistory
	queue    *memQueue
	resolver *stubResolver
	ranker   *fakeRanker
	pusher   *fakePusher
	service  *Service
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		users:    &memUsers{users: map[string]*salon.UserWishes{}},
		postings: &memPostings{},
		history:  &memHistory{},
		queue:    &memQueue{},
		resolver: &stubResolver{coords: geo.Coordinates{Latitude: 35.658034, Longitude: 139.701636}},
		ranker:   &fakeRanker{},
		pusher:   &fakePusher{},
	}

	logger := zap.NewNop()
	f.service = NewService(
		f.users, f.postings, f.history, f.queue,
		f.resolver, ranking.New(f.ranker, logger), schedule.NewBuilder(jst),
		f.pusher, logger,
	)
	return f
}

func registeringUser() *salon.UserWishes {
	return &salon.UserWishes{
		UserID:     "U1",
		FullName:   "山田 花子",
		Role:       "スタイリスト",
		License:    salon.LicenseHeld,
		Birthdate:  "2000-04-01",
		Prefecture: "東京都",
		DetailArea: "渋谷",
	}
}

func TestRegisterSchedulesOffers(t *testing.T) {
	f := newServiceFixture()
	f.postings.items = []*salon.Posting{
		recruitingPosting("S1", 35.658034, 139.701636),
		recruitingPosting("S2", 35.690921, 139.700258),
	}
	f.ranker.ids = []string{"S2"}

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, jst)
	f.service.Register(context.Background(), registeringUser(), now)

	assert.Equal(t, []string{"U1"}, f.pusher.pushed, "welcome message goes out first")

	saved := f.users.users["U1"]
	require.NotNil(t, saved)
	assert.Equal(t, "20代", saved.AgeBand)

	require.Len(t, f.queue.entries, 2)
	assert.Equal(t, "S1", f.queue.entries[0].PostingID, "nearest posting takes the first slot")
	assert.Equal(t, "S2", f.queue.entries[1].PostingID)
	for _, e := range f.queue.entries {
		assert.Equal(t, salon.QueuePending, e.Status)
	}
}

func TestRegisterStopsWhenGeocodingFindsNothing(t *testing.T) {
	f := newServiceFixture()
	f.resolver.err = geo.ErrNotFound
	f.postings.items = []*salon.Posting{recruitingPosting("S1", 35.658034, 139.701636)}

	f.service.Register(context.Background(), registeringUser(), time.Now())

	assert.Empty(t, f.queue.entries)
	assert.Len(t, f.pusher.pushed, 1, "welcome already sent before geocoding")
}

func TestRegisterContinuesWhenProfileWriteFails(t *testing.T) {
	f := newServiceFixture()
	f.users.upsertErr = errors.New("store unavailable")
	f.postings.items = []*salon.Posting{recruitingPosting("S1", 35.658034, 139.701636)}

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, jst)
	f.service.Register(context.Background(), registeringUser(), now)

	require.Len(t, f.queue.entries, 1, "matching still runs from the in-memory profile")
}

func TestRegisterAbortsWhenPostingReadFails(t *testing.T) {
	f := newServiceFixture()
	f.postings.err = errors.New("store unavailable")

	f.service.Register(context.Background(), registeringUser(), time.Now())

	assert.Empty(t, f.queue.entries)
}

func TestRegisterSkipsAlreadyOfferedPostings(t *testing.T) {
	f := newServiceFixture()
	f.postings.items = []*salon.Posting{recruitingPosting("S1", 35.658034, 139.701636)}
	f.history.entries = []*salon.OfferHistoryEntry{
		{UserID: "U1", PostingID: "S1", Status: salon.OfferSent},
	}

	f.service.Register(context.Background(), registeringUser(), time.Now())

	assert.Empty(t, f.queue.entries, "an exhausted filter pipeline schedules nothing")
}

func TestRegisterWelcomeFailureDoesNotStopPipeline(t *testing.T) {
	f := newServiceFixture()
	f.pusher.err = errors.New("line unavailable")
	f.postings.items = []*salon.Posting{recruitingPosting("S1", 35.658034, 139.701636)}

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, jst)
	f.service.Register(context.Background(), registeringUser(), now)

	require.Len(t, f.queue.entries, 1)
}
