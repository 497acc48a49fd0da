// Package novel 提供小说与章节的业务逻辑
package novel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"novel-copilot-api/internal/domain/entity"
	"novel-copilot-api/internal/domain/repository"
	apperrors "novel-copilot-api/pkg/errors"
	"novel-copilot-api/pkg/logger"
)

// DefaultLookupTTL 查询缓存默认保存时间
const DefaultLookupTTL = 5 * time.Minute

// Cache 查询缓存的最小依赖
type Cache interface {
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
}

// NovelKey 小说查询缓存键
func NovelKey(id int64) string {
	return fmt.Sprintf("novel:%d", id)
}

// ChapterKey 章节查询缓存键
func ChapterKey(id int64) string {
	return fmt.Sprintf("chapter:%d", id)
}

// Service 小说与章节服务
type Service struct {
	novels   repository.NovelRepository
	chapters repository.ChapterRepository
	tx       repository.Transactor
	cache    Cache
	ttl      time.Duration
}

// NewService 创建服务，cache 可以为 nil
func NewService(
	novels repository.NovelRepository,
	chapters repository.ChapterRepository,
	tx repository.Transactor,
	cache Cache,
	ttl time.Duration,
) *Service {
	if ttl <= 0 {
		ttl = DefaultLookupTTL
	}
	return &Service{
		novels:   novels,
		chapters: chapters,
		tx:       tx,
		cache:    cache,
		ttl:      ttl,
	}
}

// NovelInput 创建小说参数
type NovelInput struct {
	Title         string
	Description   string
	Genre         string
	Status        entity.NovelStatus
	IsPublic      bool
	CoverImageURL string
}

// NovelPatch 更新小说参数，nil 字段保持不变
type NovelPatch struct {
	Title         *string
	Description   *string
	Genre         *string
	Status        *entity.NovelStatus
	IsPublic      *bool
	CoverImageURL *string
}

// ChapterInput 创建章节参数，ChapterNumber 为 0 时取下一个章节号
type ChapterInput struct {
	Title         string
	Content       string
	ChapterNumber int
	IsPublished   bool
}

// ChapterPatch 更新章节参数
type ChapterPatch struct {
	Title         *string
	Content       *string
	ChapterNumber *int
	IsPublished   *bool
}

func dbError(err error, action string) error {
	return apperrors.ErrDatabase.WithDetail(action).WithError(err)
}

// CreateNovel 创建小说
func (s *Service) CreateNovel(ctx context.Context, userID string, in NovelInput) (*entity.Novel, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("title is required")
	}

	n := entity.NewNovel(userID, title)
	n.Description = in.Description
	n.Genre = in.Genre
	n.IsPublic = in.IsPublic
	n.CoverImageURL = in.CoverImageURL
	if in.Status != "" {
		n.Status = in.Status
	}

	if err := s.novels.Create(ctx, n); err != nil {
		return nil, dbError(err, "create novel")
	}
	logger.Info(ctx, "novel created", "novel_id", n.ID)
	return n, nil
}

// GetNovel 获取小说，作者或公开作品可读
func (s *Service) GetNovel(ctx context.Context, userID string, id int64) (*entity.Novel, error) {
	n, err := s.loadNovel(ctx, id)
	if err != nil {
		return nil, err
	}
	if !n.CanRead(userID) {
		return nil, apperrors.ErrForbidden
	}
	return n, nil
}

// ListNovels 获取用户自己的小说
func (s *Service) ListNovels(ctx context.Context, userID string, filter *repository.NovelFilter, p repository.Pagination) (*repository.PagedResult[*entity.Novel], error) {
	result, err := s.novels.ListByAuthor(ctx, userID, filter, p)
	if err != nil {
		return nil, dbError(err, "list novels")
	}
	return result, nil
}

// UpdateNovel 更新小说，仅作者可写
func (s *Service) UpdateNovel(ctx context.Context, userID string, id int64, patch NovelPatch) (*entity.Novel, error) {
	n, err := s.ownedNovel(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperrors.ErrInvalidParam.WithDetail("title must not be empty")
		}
		n.Title = title
	}
	if patch.Description != nil {
		n.Description = *patch.Description
	}
	if patch.Genre != nil {
		n.Genre = *patch.Genre
	}
	if patch.Status != nil {
		n.Status = *patch.Status
	}
	if patch.IsPublic != nil {
		n.IsPublic = *patch.IsPublic
	}
	if patch.CoverImageURL != nil {
		n.CoverImageURL = *patch.CoverImageURL
	}

	if err := s.novels.Update(ctx, n); err != nil {
		return nil, dbError(err, "update novel")
	}
	s.invalidate(ctx, NovelKey(id))
	return n, nil
}

// DeleteNovel 删除小说及其章节
func (s *Service) DeleteNovel(ctx context.Context, userID string, id int64) error {
	if _, err := s.ownedNovel(ctx, userID, id); err != nil {
		return err
	}
	if err := s.novels.Delete(ctx, id); err != nil {
		return dbError(err, "delete novel")
	}
	s.invalidate(ctx, NovelKey(id))
	logger.Info(ctx, "novel deleted", "novel_id", id)
	return nil
}

// CreateChapter 在小说下创建章节并刷新小说字数
func (s *Service) CreateChapter(ctx context.Context, userID string, novelID int64, in ChapterInput) (*entity.Chapter, error) {
	if _, err := s.ownedNovel(ctx, userID, novelID); err != nil {
		return nil, err
	}

	var ch *entity.Chapter
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		number := in.ChapterNumber
		if number <= 0 {
			next, err := s.chapters.GetNextNumber(txCtx, novelID)
			if err != nil {
				return err
			}
			number = next
		}

		ch = entity.NewChapter(novelID, strings.TrimSpace(in.Title), number)
		ch.IsPublished = in.IsPublished
		ch.SetContent(in.Content)
		if err := s.chapters.Create(txCtx, ch); err != nil {
			return err
		}
		return s.novels.RefreshWordCount(txCtx, novelID)
	})
	if err != nil {
		return nil, dbError(err, "create chapter")
	}

	s.invalidate(ctx, NovelKey(novelID))
	return ch, nil
}

// GetChapter 获取章节，权限随所属小说
func (s *Service) GetChapter(ctx context.Context, userID string, id int64) (*entity.Chapter, error) {
	ch, err := s.loadChapter(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := s.loadNovel(ctx, ch.NovelID)
	if err != nil {
		return nil, err
	}
	if !n.CanRead(userID) {
		return nil, apperrors.ErrForbidden
	}
	return ch, nil
}

// ListChapters 按章节号列出小说章节
func (s *Service) ListChapters(ctx context.Context, userID string, novelID int64, p repository.Pagination) (*repository.PagedResult[*entity.Chapter], error) {
	if _, err := s.GetNovel(ctx, userID, novelID); err != nil {
		return nil, err
	}
	result, err := s.chapters.ListByNovel(ctx, novelID, p)
	if err != nil {
		return nil, dbError(err, "list chapters")
	}
	return result, nil
}

// UpdateChapter 更新章节，内容变化时重算字数与阅读时长
func (s *Service) UpdateChapter(ctx context.Context, userID string, id int64, patch ChapterPatch) (*entity.Chapter, error) {
	ch, err := s.ownedChapter(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		ch.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.ChapterNumber != nil && *patch.ChapterNumber > 0 {
		ch.ChapterNumber = *patch.ChapterNumber
	}
	if patch.IsPublished != nil {
		ch.IsPublished = *patch.IsPublished
	}
	if patch.Content != nil {
		ch.SetContent(*patch.Content)
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.chapters.Update(txCtx, ch); err != nil {
			return err
		}
		if patch.Content == nil {
			return nil
		}
		return s.novels.RefreshWordCount(txCtx, ch.NovelID)
	})
	if err != nil {
		return nil, dbError(err, "update chapter")
	}

	s.invalidate(ctx, NovelKey(ch.NovelID), ChapterKey(id))
	return ch, nil
}

// DeleteChapter 删除章节并刷新小说字数
func (s *Service) DeleteChapter(ctx context.Context, userID string, id int64) error {
	ch, err := s.ownedChapter(ctx, userID, id)
	if err != nil {
		return err
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.chapters.Delete(txCtx, id); err != nil {
			return err
		}
		return s.novels.RefreshWordCount(txCtx, ch.NovelID)
	})
	if err != nil {
		return dbError(err, "delete chapter")
	}

	s.invalidate(ctx, NovelKey(ch.NovelID), ChapterKey(id))
	return nil
}

// LookupNovel 读取小说（经查询缓存），不做权限检查
func (s *Service) LookupNovel(ctx context.Context, id int64) (*entity.Novel, error) {
	return s.loadNovel(ctx, id)
}

// LookupChapter 读取章节（经查询缓存），不做权限检查
func (s *Service) LookupChapter(ctx context.Context, id int64) (*entity.Chapter, error) {
	return s.loadChapter(ctx, id)
}

func (s *Service) ownedNovel(ctx context.Context, userID string, id int64) (*entity.Novel, error) {
	n, err := s.loadNovel(ctx, id)
	if err != nil {
		return nil, err
	}
	if !n.IsOwnedBy(userID) {
		return nil, apperrors.ErrForbidden
	}
	return n, nil
}

func (s *Service) ownedChapter(ctx context.Context, userID string, id int64) (*entity.Chapter, error) {
	ch, err := s.loadChapter(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedNovel(ctx, userID, ch.NovelID); err != nil {
		return nil, err
	}
	return ch, nil
}

func (s *Service) loadNovel(ctx context.Context, id int64) (*entity.Novel, error) {
	var n entity.Novel
	found, err := load(ctx, s, NovelKey(id), &n, func() (interface{}, error) {
		return s.novels.GetByID(ctx, id)
	})
	if err != nil {
		return nil, dbError(err, "get novel")
	}
	if !found {
		return nil, apperrors.ErrNovelNotFound
	}
	return &n, nil
}

func (s *Service) loadChapter(ctx context.Context, id int64) (*entity.Chapter, error) {
	var ch entity.Chapter
	found, err := load(ctx, s, ChapterKey(id), &ch, func() (interface{}, error) {
		return s.chapters.GetByID(ctx, id)
	})
	if err != nil {
		return nil, dbError(err, "get chapter")
	}
	if !found {
		return nil, apperrors.ErrChapterNotFound
	}
	return &ch, nil
}

// load 读取实体到 dst；仓储返回 nil 时 found 为 false，且不写入缓存
func load[T any](ctx context.Context, s *Service, key string, dst *T, fetch func() (interface{}, error)) (bool, error) {
	if s.cache == nil {
		v, err := fetch()
		if err != nil {
			return false, err
		}
		return copyEntity(v, dst)
	}

	data, err := s.cache.GetOrLoadSafe(ctx, key, s.ttl, func() (interface{}, error) {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		if isNil(v) {
			return nil, errMissing
		}
		return v, nil
	})
	if errors.Is(err, errMissing) {
		return false, nil
	}
	if err != nil {
		logger.Warn(ctx, "lookup cache unavailable, reading repository", "key", key, "error", err.Error())
		v, ferr := fetch()
		if ferr != nil {
			return false, ferr
		}
		return copyEntity(v, dst)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached entity: %w", err)
	}
	return true, nil
}

var errMissing = errors.New("entity not found")

func isNil(v interface{}) bool {
	switch e := v.(type) {
	case nil:
		return true
	case *entity.Novel:
		return e == nil
	case *entity.Chapter:
		return e == nil
	}
	return false
}

func copyEntity[T any](v interface{}, dst *T) (bool, error) {
	if isNil(v) {
		return false, nil
	}
	src, ok := v.(*T)
	if !ok {
		return false, fmt.Errorf("unexpected entity type %T", v)
	}
	*dst = *src
	return true, nil
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Warn(ctx, "failed to invalidate lookup cache", "keys", keys, "error", err.Error())
	}
}
