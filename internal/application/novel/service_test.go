package novel

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-copilot-api/internal/domain/entity"
	"novel-copilot-api/internal/domain/repository"
	apperrors "novel-copilot-api/pkg/errors"
)

type novelRepo struct {
	items    map[int64]*entity.Novel
	nextID   int64
	gets     int
	chapters *chapterRepo
}

func (r *novelRepo) Create(_ context.Context, n *entity.Novel) error {
	r.nextID++
	n.ID = r.nextID
	cp := *n
	r.items[n.ID] = &cp
	return nil
}

func (r *novelRepo) GetByID(_ context.Context, id int64) (*entity.Novel, error) {
	r.gets++
	n, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (r *novelRepo) Update(_ context.Context, n *entity.Novel) error {
	cp := *n
	r.items[n.ID] = &cp
	return nil
}

func (r *novelRepo) Delete(_ context.Context, id int64) error {
	delete(r.items, id)
	for cid, ch := range r.chapters.items {
		if ch.NovelID == id {
			delete(r.chapters.items, cid)
		}
	}
	return nil
}

func (r *novelRepo) ListByAuthor(_ context.Context, authorID string, _ *repository.NovelFilter, p repository.Pagination) (*repository.PagedResult[*entity.Novel], error) {
	var out []*entity.Novel
	for _, n := range r.items {
		if n.AuthorID == authorID {
			out = append(out, n)
		}
	}
	return repository.NewPagedResult(out, int64(len(out)), p), nil
}

func (r *novelRepo) RefreshWordCount(_ context.Context, id int64) error {
	total := 0
	for _, ch := range r.chapters.items {
		if ch.NovelID == id {
			total += ch.WordCount
		}
	}
	r.items[id].WordCount = total
	return nil
}

type chapterRepo struct {
	items  map[int64]*entity.Chapter
	nextID int64
}

func (r *chapterRepo) Create(_ context.Context, c *entity.Chapter) error {
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.items[c.ID] = &cp
	return nil
}

func (r *chapterRepo) GetByID(_ context.Context, id int64) (*entity.Chapter, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *chapterRepo) Update(_ context.Context, c *entity.Chapter) error {
	cp := *c
	r.items[c.ID] = &cp
	return nil
}

func (r *chapterRepo) Delete(_ context.Context, id int64) error {
	delete(r.items, id)
	return nil
}

func (r *chapterRepo) ListByNovel(_ context.Context, novelID int64, p repository.Pagination) (*repository.PagedResult[*entity.Chapter], error) {
	var out []*entity.Chapter
	for _, c := range r.items {
		if c.NovelID == novelID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChapterNumber < out[j].ChapterNumber })
	return repository.NewPagedResult(out, int64(len(out)), p), nil
}

func (r *chapterRepo) GetNextNumber(_ context.Context, novelID int64) (int, error) {
	next := 1
	for _, c := range r.items {
		if c.NovelID == novelID && c.ChapterNumber >= next {
			next = c.ChapterNumber + 1
		}
	}
	return next, nil
}

type directTx struct{}

func (directTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mapCache struct {
	data map[string][]byte
}

func (c *mapCache) GetOrLoadSafe(_ context.Context, key string, _ time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	v, err := loader()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	c.data[key] = data
	return data, nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func newTestService() (*Service, *novelRepo, *mapCache) {
	chapters := &chapterRepo{items: map[int64]*entity.Chapter{}}
	novels := &novelRepo{items: map[int64]*entity.Novel{}, chapters: chapters}
	cache := &mapCache{data: map[string][]byte{}}
	return NewService(novels, chapters, directTx{}, cache, time.Minute), novels, cache
}

func TestService_CreateNovelRequiresTitle(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateNovel(context.Background(), "u1", NovelInput{Title: "   "})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeInvalidParam, appErr.Code)

	n, err := svc.CreateNovel(context.Background(), "u1", NovelInput{Title: " Tides ", Genre: "fantasy"})
	require.NoError(t, err)
	assert.Equal(t, "Tides", n.Title)
	assert.Equal(t, "u1", n.AuthorID)
	assert.Equal(t, entity.NovelStatusDraft, n.Status)
}

func TestService_NovelReadAccess(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	n, err := svc.CreateNovel(ctx, "u1", NovelInput{Title: "Tides"})
	require.NoError(t, err)

	_, err = svc.GetNovel(ctx, "u1", n.ID)
	assert.NoError(t, err)

	_, err = svc.GetNovel(ctx, "u2", n.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	public := true
	_, err = svc.UpdateNovel(ctx, "u1", n.ID, NovelPatch{IsPublic: &public})
	require.NoError(t, err)
	_, err = svc.GetNovel(ctx, "u2", n.ID)
	assert.NoError(t, err)

	_, err = svc.UpdateNovel(ctx, "u2", n.ID, NovelPatch{IsPublic: &public})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.GetNovel(ctx, "u1", 999)
	assert.ErrorIs(t, err, apperrors.ErrNovelNotFound)
}

func TestService_ChapterLifecycleKeepsCounts(t *testing.T) {
	ctx := context.Background()
	svc, novels, _ := newTestService()
	n, err := svc.CreateNovel(ctx, "u1", NovelInput{Title: "Tides"})
	require.NoError(t, err)

	first, err := svc.CreateChapter(ctx, "u1", n.ID, ChapterInput{Title: "One", Content: "The rain fell."})
	require.NoError(t, err)
	assert.Equal(t, 1, first.ChapterNumber)
	assert.Equal(t, 3, first.WordCount)

	second, err := svc.CreateChapter(ctx, "u1", n.ID, ChapterInput{Title: "Two", Content: "It stopped at dawn."})
	require.NoError(t, err)
	assert.Equal(t, 2, second.ChapterNumber)
	assert.Equal(t, 7, novels.items[n.ID].WordCount)

	content := "Silence."
	updated, err := svc.UpdateChapter(ctx, "u1", second.ID, ChapterPatch{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.WordCount)
	assert.Equal(t, 0.01, updated.ReadingTime)
	assert.Equal(t, 4, novels.items[n.ID].WordCount)

	got, err := svc.GetNovel(ctx, "u1", n.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.WordCount, "cached novel must be invalidated")

	require.NoError(t, svc.DeleteChapter(ctx, "u1", first.ID))
	assert.Equal(t, 1, novels.items[n.ID].WordCount)

	list, err := svc.ListChapters(ctx, "u1", n.ID, repository.NewPagination(1, 20))
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Two", list.Items[0].Title)
}

func TestService_ChapterWritesRequireOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	n, err := svc.CreateNovel(ctx, "u1", NovelInput{Title: "Tides", IsPublic: true})
	require.NoError(t, err)
	ch, err := svc.CreateChapter(ctx, "u1", n.ID, ChapterInput{Content: "text"})
	require.NoError(t, err)

	_, err = svc.CreateChapter(ctx, "u2", n.ID, ChapterInput{Content: "intrusion"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	title := "Mine now"
	_, err = svc.UpdateChapter(ctx, "u2", ch.ID, ChapterPatch{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteChapter(ctx, "u2", ch.ID), apperrors.ErrForbidden)

	got, err := svc.GetChapter(ctx, "u2", ch.ID)
	require.NoError(t, err, "public novels are readable")
	assert.Equal(t, "text", got.Content)

	_, err = svc.GetChapter(ctx, "u1", 404)
	assert.ErrorIs(t, err, apperrors.ErrChapterNotFound)
}

func TestService_LookupUsesCacheAndSkipsMissing(t *testing.T) {
	ctx := context.Background()
	svc, novels, cache := newTestService()
	n, err := svc.CreateNovel(ctx, "u1", NovelInput{Title: "Tides", Genre: "fantasy"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := svc.LookupNovel(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, "fantasy", got.Genre)
	}
	assert.Equal(t, 1, novels.gets)
	assert.Contains(t, cache.data, NovelKey(n.ID))

	_, err = svc.LookupNovel(ctx, 42)
	assert.ErrorIs(t, err, apperrors.ErrNovelNotFound)
	assert.NotContains(t, cache.data, NovelKey(42))

	require.NoError(t, svc.DeleteNovel(ctx, "u1", n.ID))
	assert.NotContains(t, cache.data, NovelKey(n.ID))
	_, err = svc.LookupNovel(ctx, n.ID)
	assert.ErrorIs(t, err, apperrors.ErrNovelNotFound)
}

func TestService_WithoutCache(t *testing.T) {
	ctx := context.Background()
	chapters := &chapterRepo{items: map[int64]*entity.Chapter{}}
	novels := &novelRepo{items: map[int64]*entity.Novel{}, chapters: chapters}
	svc := NewService(novels, chapters, directTx{}, nil, 0)

	n, err := svc.CreateNovel(ctx, "u1", NovelInput{Title: "Tides"})
	require.NoError(t, err)
	got, err := svc.LookupNovel(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tides", got.Title)

	_, err = svc.LookupChapter(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrChapterNotFound)
}
