package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"crafting-planner/internal/core/planner"
	"crafting-planner/internal/infrastructure/config"
	"crafting-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrSessionNotFound 工作階段不存在或已過期
var ErrSessionNotFound = errors.New("planning session not found or expired")

// Manager 工作階段管理器
// 工作階段只存在於記憶體，逾時或淘汰後即捨棄
type Manager struct {
	config *config.SessionConfig
	now    func() time.Time

	recipes    planner.RecipeListReducer
	components planner.ComponentListReducer

	mu       sync.RWMutex
	sessions map[string]*Session
	stats    managerStats

	done      chan struct{}
	closeOnce sync.Once
}

// managerStats 管理器統計
type managerStats struct {
	created   int64
	expired   int64
	evictions int64
	misses    int64
}

// Stats 管理器統計快照
type Stats struct {
	Active    int   `json:"active"`
	Max       int   `json:"max"`
	Created   int64 `json:"created"`
	Expired   int64 `json:"expired"`
	Evictions int64 `json:"evictions"`
	Misses    int64 `json:"misses"`
}

// NewManager 創建新的工作階段管理器並啟動清理協程
func NewManager(cfg *config.Config) *Manager {
	m := newManager(cfg, time.Now)
	go m.startCleanup()

	common.LogInfo("工作階段管理員已初始化",
		zap.Int("最大數量", cfg.Session.MaxSessions),
		zap.Duration("存活時間", cfg.Session.TTL),
		zap.Duration("清理間隔", cfg.Session.CleanupInterval),
		zap.Bool("trace", cfg.Trace.Enabled),
	)
	return m
}

func newManager(cfg *config.Config, now func() time.Time) *Manager {
	m := &Manager{
		config:     &cfg.Session,
		now:        now,
		recipes:    planner.ReduceRecipeList,
		components: planner.ReduceComponentList,
		sessions:   make(map[string]*Session),
		done:       make(chan struct{}),
	}

	if cfg.Trace.Enabled {
		tracer := common.Named("trace")
		m.recipes = planner.TraceRecipeList(m.recipes, tracer)
		m.components = planner.TraceComponentList(m.components, tracer)
	}
	return m
}

// Create 建立新的工作階段，達上限時淘汰最久未使用者
func (m *Manager) Create() *Session {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.config.MaxSessions {
		m.cleanup(now)
		if len(m.sessions) >= m.config.MaxSessions {
			m.evictLRU()
		}
	}

	s := newSession(common.GenerateUUID(), now, m.recipes, m.components)
	m.sessions[s.id] = s
	m.stats.created++

	common.LogDebug("工作階段已建立",
		zap.String("session_id", s.id),
		zap.Int("active", len(m.sessions)),
	)
	return s
}

// Get 取得工作階段並更新存取時間
func (m *Manager) Get(id string) (*Session, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		m.stats.misses++
		return nil, notFound(id)
	}
	if m.expired(s, now) {
		delete(m.sessions, id)
		m.stats.expired++
		common.LogInfo("工作階段已過期", zap.String("session_id", id))
		return nil, notFound(id)
	}

	s.touch(now)
	return s, nil
}

func notFound(id string) error {
	return common.ErrNotFound.WithErr(fmt.Errorf("%w: %s", ErrSessionNotFound, id))
}

// Delete 結束工作階段
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Len 目前的工作階段數量
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	return now.Sub(s.lastAccess()) > m.config.TTL
}

// startCleanup 定期清理過期工作階段
func (m *Manager) startCleanup() {
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanup(m.now())
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}

// cleanup 清理過期工作階段，呼叫端需持有寫鎖
func (m *Manager) cleanup(now time.Time) int {
	count := 0
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
			count++
			m.stats.expired++
		}
	}

	if count > 0 {
		common.LogInfo("Cleaned up expired sessions",
			zap.Int("count", count),
			zap.Int64("total_expired", m.stats.expired),
			zap.Int("remaining", len(m.sessions)),
		)
	}
	return count
}

// evictLRU 淘汰最久未使用的工作階段
func (m *Manager) evictLRU() {
	var oldestID string
	var oldest time.Time

	for id, s := range m.sessions {
		last := s.lastAccess()
		if oldestID == "" || last.Before(oldest) {
			oldestID = id
			oldest = last
		}
	}

	if oldestID != "" {
		delete(m.sessions, oldestID)
		m.stats.evictions++
		common.LogInfo("工作階段已淘汰(LRU)",
			zap.String("session_id", oldestID),
		)
	}
}

// Stats 獲取統計信息
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{
		Active:    len(m.sessions),
		Max:       m.config.MaxSessions,
		Created:   m.stats.created,
		Expired:   m.stats.expired,
		Evictions: m.stats.evictions,
		Misses:    m.stats.misses,
	}
}

// Close 停止清理協程並捨棄所有工作階段
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions = make(map[string]*Session)
	common.LogInfo("工作階段管理員已關閉",
		zap.Int64("建立次數", m.stats.created),
		zap.Int64("過期次數", m.stats.expired),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
	return nil
}
