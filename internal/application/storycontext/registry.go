package storycontext

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"novel-copilot-api/pkg/logger"
	"novel-copilot-api/pkg/metrics"
)

// AnonymousOwner 未认证请求共用的上下文归属
const AnonymousOwner = "anonymous"

// DefaultSnapshotTTL 快照默认保存时间
const DefaultSnapshotTTL = 7 * 24 * time.Hour

// KVCache 快照存储的最小依赖，Get 在键不存在时返回 nil, nil
type KVCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RegistryOption Registry 构造选项
type RegistryOption func(*Registry)

// WithStoreOptions 新建 Store 时使用的选项
func WithStoreOptions(opts ...Option) RegistryOption {
	return func(r *Registry) {
		r.storeOpts = append(r.storeOpts, opts...)
	}
}

// WithMaxStores 常驻 Store 数量上限，仅在配置了快照缓存时生效，
// 超出后淘汰最久未访问的用户，下次访问从快照恢复
func WithMaxStores(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxStores = n
		}
	}
}

type registryEntry struct {
	owner string
	store *Store
}

// Registry 按用户维护叙事上下文，可选地将持久事实快照到 KV 缓存
type Registry struct {
	mu     sync.Mutex
	stores map[string]*list.Element
	recent *list.List
	loads  singleflight.Group

	cache     KVCache
	ttl       time.Duration
	maxStores int
	storeOpts []Option
}

// NewRegistry 创建上下文注册表，cache 可以为 nil
func NewRegistry(cache KVCache, ttl time.Duration, opts ...RegistryOption) *Registry {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	r := &Registry{
		stores: make(map[string]*list.Element),
		recent: list.New(),
		cache:  cache,
		ttl:    ttl,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get 返回用户常驻的上下文存储，首次访问时从快照恢复。
// 快照读取不持有注册表锁，同一用户的并发首次访问只读取一次。
func (r *Registry) Get(ctx context.Context, owner string) *Store {
	owner = normalizeOwner(owner)
	if s, ok := r.lookup(owner); ok {
		return s
	}

	v, _, _ := r.loads.Do(owner, func() (interface{}, error) {
		if s, ok := r.lookup(owner); ok {
			return s, nil
		}
		return r.insert(owner, r.Load(context.WithoutCancel(ctx), owner)), nil
	})
	return v.(*Store)
}

// Load 直接从快照构建一个独立的 Store，不读写常驻表。
// 与网关不共享内存的进程用它读取用户最新的上下文。
func (r *Registry) Load(ctx context.Context, owner string) *Store {
	s := NewStore(r.storeOpts...)
	r.restore(ctx, normalizeOwner(owner), s)
	return s
}

func (r *Registry) lookup(owner string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.stores[owner]
	if !ok {
		return nil, false
	}
	r.recent.MoveToFront(el)
	return el.Value.(*registryEntry).store, true
}

func (r *Registry) insert(owner string, s *Store) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.stores[owner]; ok {
		r.recent.MoveToFront(el)
		return el.Value.(*registryEntry).store
	}

	r.stores[owner] = r.recent.PushFront(&registryEntry{owner: owner, store: s})
	if r.cache != nil && r.maxStores > 0 {
		for r.recent.Len() > r.maxStores {
			oldest := r.recent.Back()
			r.recent.Remove(oldest)
			delete(r.stores, oldest.Value.(*registryEntry).owner)
		}
	}
	metrics.StoryContextStores.Set(float64(len(r.stores)))
	return s
}

func (r *Registry) restore(ctx context.Context, owner string, s *Store) {
	if r.cache == nil {
		return
	}

	data, err := r.cache.Get(ctx, snapshotKey(owner))
	if err != nil {
		metrics.StoryContextSnapshots.WithLabelValues("load", "error").Inc()
		logger.Warn(ctx, "story context snapshot unavailable", "owner", owner, "error", err.Error())
		return
	}
	if len(data) == 0 {
		return
	}
	if err := s.Import(string(data)); err != nil {
		metrics.StoryContextSnapshots.WithLabelValues("load", "error").Inc()
		logger.Warn(ctx, "discarding unreadable story context snapshot", "owner", owner, "error", err.Error())
		return
	}
	metrics.StoryContextSnapshots.WithLabelValues("load", "success").Inc()
}

// Persist 将 s 的持久事实写入 owner 的快照
func (r *Registry) Persist(ctx context.Context, owner string, s *Store) error {
	if r.cache == nil || s == nil {
		return nil
	}

	if err := r.cache.Set(ctx, snapshotKey(normalizeOwner(owner)), s.Snapshot(), r.ttl); err != nil {
		metrics.StoryContextSnapshots.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("failed to persist story context: %w", err)
	}
	metrics.StoryContextSnapshots.WithLabelValues("save", "success").Inc()
	return nil
}

// Reset 清空用户上下文并删除快照
func (r *Registry) Reset(ctx context.Context, owner string) error {
	owner = normalizeOwner(owner)
	if s, ok := r.lookup(owner); ok {
		s.Reset()
	}

	if r.cache == nil {
		return nil
	}
	if err := r.cache.Delete(ctx, snapshotKey(owner)); err != nil {
		return fmt.Errorf("failed to delete story context snapshot: %w", err)
	}
	return nil
}

func normalizeOwner(owner string) string {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return AnonymousOwner
	}
	return owner
}

func snapshotKey(owner string) string {
	return fmt.Sprintf("storyctx:%s:snapshot", owner)
}
