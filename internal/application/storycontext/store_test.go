package storycontext

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestStore_HistoryIsBoundedFIFO(t *testing.T) {
	s := NewStore(WithHistoryCapacity(10))

	for i := 1; i <= 11; i++ {
		s.AddToHistory(fmt.Sprintf("entry %d", i), nil)
	}

	h := s.History()
	require.Len(t, h, 10)
	assert.Equal(t, "entry 2", h[0].Text)
	assert.Equal(t, "entry 11", h[9].Text)
}

func TestStore_HistoryKeepsChapterAndTimestamp(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s := NewStore(WithClock(func() time.Time { return fixed }))

	id := int64(7)
	s.AddToHistory("text", &id)
	id = 8

	h := s.History()
	require.Len(t, h, 1)
	require.NotNil(t, h[0].ChapterID)
	assert.Equal(t, int64(7), *h[0].ChapterID)
	assert.Equal(t, fixed, h[0].Timestamp)
}

func TestStore_UnknownStyleKeyIgnored(t *testing.T) {
	s := NewStore()
	before := s.StylePreferences()

	s.SetStylePreference("unknown_key", "x")

	assert.Equal(t, before, s.StylePreferences())
	assert.Len(t, s.StylePreferences(), 4)

	s.SetStylePreference(StyleTone, "dark")
	assert.Equal(t, "dark", s.StylePreferences()[StyleTone])
}

func TestStore_AddCharacterReplacesWithoutMerge(t *testing.T) {
	s := NewStore()
	s.AddCharacter("Anna", "a doctor", []string{"calm", "tired"})
	s.AddCharacter("Anna", "a pilot", nil)

	c := s.Snapshot().Characters["Anna"]
	assert.Equal(t, "a pilot", c.Description)
	assert.Empty(t, c.Traits)
}

func TestStore_ExportImportRoundTrip(t *testing.T) {
	s := NewStore()
	s.AddCharacter("Anna", "a doctor", []string{"calm"})
	s.UpdateWorldInfo("city", "Riverside")
	s.UpdateWorldInfo("era", "1920s")
	s.UpdateWorldInfo("year", 1924)
	s.UpdateWorldInfo("districts", []string{"docks", "old town"})
	s.UpdateWorldInfo("ports", map[string]int{"north": 2})
	s.SetStylePreference(StyleGenre, "noir")
	s.AddChapterSummary(3, "Anna meets the stranger.")
	s.SetCurrentScene("A rainy station platform")
	s.AddToHistory("first", nil)
	s.AddToHistory("second", int64Ptr(3))

	before := s.Snapshot()
	history := s.History()

	exported, err := s.Export()
	require.NoError(t, err)
	require.NoError(t, s.Import(exported))

	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, history, s.History())
	assert.NotContains(t, exported, "second")
	assert.Equal(t, float64(1924), s.Snapshot().WorldInfo["year"])
	assert.Equal(t, []any{"docks", "old town"}, s.Snapshot().WorldInfo["districts"])
}

func TestStore_ExportIsDeterministic(t *testing.T) {
	s := NewStore()
	for _, k := range []string{"z", "a", "m"} {
		s.UpdateWorldInfo(k, k+"-value")
	}
	first, err := s.Export()
	require.NoError(t, err)
	second, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStore_ImportRejectsMalformedPayloadWithoutMutation(t *testing.T) {
	s := NewStore()
	s.AddCharacter("Anna", "a doctor", nil)
	s.SetCurrentScene("station")
	before := s.Snapshot()

	for _, payload := range []string{
		"",
		"{not json",
		`{"characters": ["Anna"]}`,
		`{"chapter_summaries": {"one": "bad key"}}`,
		"null",
		" null ",
		"[]",
		`"x"`,
		"42",
	} {
		assert.Error(t, s.Import(payload), payload)
		assert.Equal(t, before, s.Snapshot(), payload)
	}
}

func TestStore_ImportKeepsStyleWhenAbsent(t *testing.T) {
	s := NewStore()
	s.SetStylePreference(StyleTone, "dark")

	require.NoError(t, s.Import(`{"current_scene": "harbor"}`))

	snap := s.Snapshot()
	assert.Equal(t, "dark", snap.StylePreferences[StyleTone])
	assert.Equal(t, "harbor", snap.CurrentScene)
	assert.Empty(t, snap.Characters)
}

func TestStore_ImportStyleKeepsFixedKeySet(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.Import(`{"style_preferences": {"tone": "warm", "mood": "x"}}`))

	style := s.StylePreferences()
	assert.Len(t, style, 4)
	assert.Equal(t, "warm", style[StyleTone])
	assert.Equal(t, "third_person", style[StylePOV])
	_, ok := style["mood"]
	assert.False(t, ok)
}

func TestStore_Reset(t *testing.T) {
	s := NewStore()
	s.AddCharacter("Anna", "a doctor", nil)
	s.AddToHistory("text", nil)
	s.SetStylePreference(StyleTone, "dark")

	s.Reset()

	assert.Empty(t, s.Snapshot().Characters)
	assert.Empty(t, s.History())
	assert.Equal(t, DefaultStylePreferences(), s.StylePreferences())
}

func TestStore_FullContext(t *testing.T) {
	s := NewStore()
	s.AddCharacter("Anna", "a doctor", []string{"calm"})
	s.AddCharacter("Boris", "a sailor", nil)
	s.AddChapterSummary(2, "The storm begins.")
	for i := 1; i <= 5; i++ {
		s.AddToHistory(fmt.Sprintf("h%d", i), nil)
	}

	b := s.FullContext("Then ANNA opened the door.", int64Ptr(2))

	require.Len(t, b.RecentHistory, 3)
	assert.Equal(t, "h3", b.RecentHistory[0].Text)
	require.Len(t, b.MentionedCharacters, 1)
	assert.Equal(t, "Anna", b.MentionedCharacters[0].Name)
	assert.Equal(t, "The storm begins.", b.ChapterSummary)

	short := NewStore().FullContext("nobody here", nil)
	assert.Empty(t, short.RecentHistory)
	assert.Empty(t, short.MentionedCharacters)
	assert.Empty(t, short.ChapterSummary)
}

func TestBuildPromptContext_SectionOrder(t *testing.T) {
	s := NewStore()
	s.SetStylePreference(StyleGenre, "fantasy")
	s.UpdateWorldInfo("magic", "rare")
	s.SetCurrentScene("The tower at dusk")
	s.AddCharacter("Anna", "a mage", []string{"proud", "curious"})
	s.AddChapterSummary(1, "Anna arrives.")
	s.AddToHistory("one", nil)
	s.AddToHistory("two", nil)
	s.AddToHistory(strings.Repeat("x", 250), nil)

	out := BuildPromptContext(s.FullContext("Anna looked up.", int64Ptr(1)))

	want := strings.Join([]string{
		"Style: fantasy, tense: past, tone: neutral",
		"World: magic: rare",
		"Current scene: The tower at dusk",
		"Characters in scene:\n- Anna: a mage (traits: proud, curious)",
		"Chapter context: Anna arrives.",
		"Recently written:\n- two\n- " + strings.Repeat("x", 200) + "...",
	}, "\n\n")
	assert.Equal(t, want, out)
}

func TestBuildPromptContext_OmitsEmptySections(t *testing.T) {
	out := BuildPromptContext(NewStore().FullContext("text", nil))
	assert.Equal(t, "Style: general, tense: past, tone: neutral", out)
	assert.NotContains(t, out, "\n\n\n")
}

type memCache struct {
	data map[string][]byte
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	return m.data[key], nil
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = data
	return nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func TestRegistry_PerOwnerIsolationAndSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	cache := &memCache{data: map[string][]byte{}}

	r := NewRegistry(cache, time.Hour)
	r.Get(ctx, "u1").AddCharacter("Anna", "a doctor", nil)
	r.Get(ctx, "u1").AddToHistory("ephemeral", nil)
	require.NoError(t, r.Persist(ctx, "u1", r.Get(ctx, "u1")))

	assert.Empty(t, r.Get(ctx, "u2").Snapshot().Characters)
	assert.Same(t, r.Get(ctx, ""), r.Get(ctx, AnonymousOwner))

	restarted := NewRegistry(cache, time.Hour)
	restored := restarted.Get(ctx, "u1")
	assert.Contains(t, restored.Snapshot().Characters, "Anna")
	assert.Empty(t, restored.History())

	require.NoError(t, restarted.Reset(ctx, "u1"))
	assert.Empty(t, restarted.Get(ctx, "u1").Snapshot().Characters)
	assert.Empty(t, cache.data)
}

func TestRegistry_LoadBypassesResidentStores(t *testing.T) {
	ctx := context.Background()
	cache := &memCache{data: map[string][]byte{}}
	gateway := NewRegistry(cache, time.Hour)
	worker := NewRegistry(cache, time.Hour)

	s := gateway.Get(ctx, "u1")
	s.SetCurrentScene("harbor")
	require.NoError(t, gateway.Persist(ctx, "u1", s))
	assert.Equal(t, "harbor", worker.Get(ctx, "u1").Snapshot().CurrentScene)

	s.SetCurrentScene("lighthouse")
	require.NoError(t, gateway.Persist(ctx, "u1", s))

	assert.Equal(t, "harbor", worker.Get(ctx, "u1").Snapshot().CurrentScene, "resident store is kept")
	fresh := worker.Load(ctx, "u1")
	assert.Equal(t, "lighthouse", fresh.Snapshot().CurrentScene)
	assert.NotSame(t, fresh, worker.Load(ctx, "u1"))
}

func TestRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	cache := &memCache{data: map[string][]byte{}}
	r := NewRegistry(cache, time.Hour, WithMaxStores(2))

	u1 := r.Get(ctx, "u1")
	u1.AddCharacter("Anna", "a doctor", nil)
	require.NoError(t, r.Persist(ctx, "u1", u1))
	u1.AddToHistory("not persisted", nil)

	r.Get(ctx, "u2")
	assert.Same(t, u1, r.Get(ctx, "u1"))
	r.Get(ctx, "u3")

	assert.Len(t, r.stores, 2)
	assert.Contains(t, r.stores, "u1")
	assert.NotContains(t, r.stores, "u2")

	r.Get(ctx, "u2")
	r.Get(ctx, "u3")
	reloaded := r.Get(ctx, "u1")
	assert.NotSame(t, u1, reloaded)
	assert.Contains(t, reloaded.Snapshot().Characters, "Anna")
	assert.Empty(t, reloaded.History())
}

func TestRegistry_KeepsAllStoresWithoutSnapshotCache(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(nil, time.Hour, WithMaxStores(1))

	first := r.Get(ctx, "u1")
	r.Get(ctx, "u2")
	assert.Same(t, first, r.Get(ctx, "u1"))
	assert.Len(t, r.stores, 2)
}

type blockingCache struct {
	memCache
	release chan struct{}
	blocked chan struct{}
	once    sync.Once
}

func (c *blockingCache) Get(ctx context.Context, key string) ([]byte, error) {
	if key == snapshotKey("slow") {
		c.once.Do(func() { close(c.blocked) })
		<-c.release
	}
	return c.memCache.Get(ctx, key)
}

func TestRegistry_SlowSnapshotDoesNotBlockOtherOwners(t *testing.T) {
	ctx := context.Background()
	cache := &blockingCache{
		memCache: memCache{data: map[string][]byte{}},
		release:  make(chan struct{}),
		blocked:  make(chan struct{}),
	}
	r := NewRegistry(cache, time.Hour)
	warm := r.Get(ctx, "u1")

	done := make(chan *Store)
	go func() { done <- r.Get(ctx, "slow") }()
	<-cache.blocked

	got := make(chan *Store)
	go func() { got <- r.Get(ctx, "u1") }()
	select {
	case s := <-got:
		assert.Same(t, warm, s)
	case <-time.After(time.Second):
		t.Fatal("resident store lookup waited on another owner's snapshot load")
	}

	close(cache.release)
	assert.NotNil(t, <-done)
}
