package session

import (
	"sync"
	"sync/atomic"
	"time"

	"crafting-planner/internal/core/planner"
	"crafting-planner/internal/pkg/common"
)

// Session 一個 UI 工作階段的規劃狀態
// 同一工作階段的意圖依取得鎖的順序逐一套用
type Session struct {
	id        string
	createdAt time.Time
	lastTouch atomic.Int64

	mu               sync.Mutex
	recipes          planner.RecipeListState
	components       planner.ComponentListState
	selected         *planner.Recipe
	available        int
	reduceRecipes    planner.RecipeListReducer
	reduceComponents planner.ComponentListReducer
	validation       planner.ValidationEngine
	status           planner.StatusEngine
}

// View 工作階段的唯讀快照
type View struct {
	ID            string                     `json:"id"`
	CreatedAt     time.Time                  `json:"created_at"`
	RecipeList    planner.RecipeListState    `json:"recipe_list"`
	ComponentList planner.ComponentListState `json:"component_list"`
	Selected      *planner.Recipe            `json:"selected"`
	Available     int                        `json:"available"`
}

func newSession(id string, now time.Time, recipes planner.RecipeListReducer, components planner.ComponentListReducer) *Session {
	s := &Session{
		id:               id,
		createdAt:        now,
		recipes:          planner.NewRecipeListState(),
		components:       planner.NewComponentListState(),
		reduceRecipes:    recipes,
		reduceComponents: components,
	}
	s.touch(now)
	return s
}

// ID 工作階段識別碼
func (s *Session) ID() string {
	return s.id
}

func (s *Session) touch(now time.Time) {
	s.lastTouch.Store(now.UnixNano())
}

func (s *Session) lastAccess() time.Time {
	return time.Unix(0, s.lastTouch.Load())
}

// DispatchRecipe 套用食譜清單意圖，回傳新快照與是否有變更
func (s *Session) DispatchRecipe(intent planner.RecipeIntent) (planner.RecipeListState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.reduceRecipes(s.recipes, intent)
	changed := !planner.SameRecipeList(s.recipes, next)
	s.recipes = next
	common.LogIntent(s.id, intent.String(), changed)
	return next, changed
}

// DispatchComponent 套用原料清單意圖
func (s *Session) DispatchComponent(intent planner.ComponentIntent) (planner.ComponentListState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.reduceComponents(s.components, intent)
	changed := !planner.SameComponentList(s.components, next)
	s.components = next
	common.LogIntent(s.id, intent.String(), changed)
	return next, changed
}

// SetCalculating 由原料計算流程切換計算中旗標
func (s *Session) SetCalculating(calculating bool) planner.ComponentListState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.components = s.components.WithCalculating(calculating)
	return s.components
}

// Select 設定目前選取的食譜，nil 表示取消選取
func (s *Session) Select(recipe *planner.Recipe) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if recipe == nil {
		s.selected = nil
		return
	}
	r := *recipe
	s.selected = &r
}

// SetAvailable 設定可選食譜數量
func (s *Session) SetAvailable(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.available = max(0, n)
}

// RecipeList 目前食譜清單快照
func (s *Session) RecipeList() planner.RecipeListState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recipes
}

// ComponentList 目前原料清單快照
func (s *Session) ComponentList() planner.ComponentListState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.components
}

// Validation 目前選取食譜的驗證結果
func (s *Session) Validation() planner.ValidationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validation.Evaluate(s.selected, s.recipes)
}

// Status 目前的狀態訊息
func (s *Session) Status() planner.StatusResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.Evaluate(s.available, s.selected, s.recipes.Count)
}

// View 取得唯讀快照
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	var selected *planner.Recipe
	if s.selected != nil {
		r := *s.selected
		selected = &r
	}
	return View{
		ID:            s.id,
		CreatedAt:     s.createdAt,
		RecipeList:    s.recipes,
		ComponentList: s.components,
		Selected:      selected,
		Available:     s.available,
	}
}
