package planner

import (
	"fmt"
	"unsafe"
)

// Component 彙總後的原料需求
type Component struct {
	ID       ID      `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// ComponentListState 原料清單快照
type ComponentListState struct {
	Components    []Component `json:"components"`
	IsCalculating bool        `json:"is_calculating"`
}

// NewComponentListState 建立空清單
func NewComponentListState() ComponentListState {
	return ComponentListState{Components: []Component{}}
}

// WithCalculating 回傳更新計算旗標後的快照
// 僅供聚合流程使用，意圖不會改變此旗標
func (s ComponentListState) WithCalculating(calculating bool) ComponentListState {
	return ComponentListState{Components: s.Components, IsCalculating: calculating}
}

// SameComponentList 判斷兩個快照是否為同一份
func SameComponentList(a, b ComponentListState) bool {
	return a.IsCalculating == b.IsCalculating &&
		len(a.Components) == len(b.Components) &&
		unsafe.SliceData(a.Components) == unsafe.SliceData(b.Components)
}

// ComponentIntent 原料清單的變更意圖
type ComponentIntent interface {
	componentIntent()
	fmt.Stringer
}

// SetComponents 以新集合整批取代
// nil 會被正規化為空集合
type SetComponents struct {
	Components []Component
}

// AddComponent 加入原料，Quantity 為 nil 時預設 1
type AddComponent struct {
	Component Component
	Quantity  *float64
}

// RemoveComponent 移除原料
type RemoveComponent struct {
	ComponentID ID
}

// UpdateComponentQuantity 更新數量，最小為 0
type UpdateComponentQuantity struct {
	ComponentID ID
	Quantity    float64
}

// ClearComponents 清空清單
type ClearComponents struct{}

func (SetComponents) componentIntent()           {}
func (AddComponent) componentIntent()            {}
func (RemoveComponent) componentIntent()         {}
func (UpdateComponentQuantity) componentIntent() {}
func (ClearComponents) componentIntent()         {}

func (i SetComponents) String() string {
	return fmt.Sprintf("set_components(n=%d)", len(i.Components))
}

func (i AddComponent) String() string {
	if i.Quantity == nil {
		return fmt.Sprintf("add_component(id=%s, name=%q)", i.Component.ID, i.Component.Name)
	}
	return fmt.Sprintf("add_component(id=%s, name=%q, quantity=%g)", i.Component.ID, i.Component.Name, *i.Quantity)
}

func (i RemoveComponent) String() string {
	return fmt.Sprintf("remove_component(id=%s)", i.ComponentID)
}

func (i UpdateComponentQuantity) String() string {
	return fmt.Sprintf("update_component_quantity(id=%s, quantity=%g)", i.ComponentID, i.Quantity)
}

func (ClearComponents) String() string { return "clear_components" }

// ComponentListReducer 原料清單轉移函式簽名
type ComponentListReducer func(ComponentListState, ComponentIntent) ComponentListState

// ReduceComponentList 套用意圖並回傳新快照
// IsCalculating 一律沿用原值
func ReduceComponentList(state ComponentListState, intent ComponentIntent) ComponentListState {
	switch in := intent.(type) {
	case SetComponents:
		components := make([]Component, len(in.Components))
		copy(components, in.Components)
		return ComponentListState{Components: components, IsCalculating: state.IsCalculating}

	case AddComponent:
		component := in.Component
		if in.Quantity != nil {
			component.Quantity = *in.Quantity
		} else {
			component.Quantity = 1
		}
		components := make([]Component, len(state.Components), len(state.Components)+1)
		copy(components, state.Components)
		components = append(components, component)
		return ComponentListState{Components: components, IsCalculating: state.IsCalculating}

	case RemoveComponent:
		if !containsComponent(state.Components, in.ComponentID) {
			return state
		}
		components := make([]Component, 0, len(state.Components))
		for _, c := range state.Components {
			if c.ID != in.ComponentID {
				components = append(components, c)
			}
		}
		return ComponentListState{Components: components, IsCalculating: state.IsCalculating}

	case UpdateComponentQuantity:
		quantity := max(0, in.Quantity)
		if !needsQuantityUpdate(state.Components, in.ComponentID, quantity) {
			return state
		}
		components := make([]Component, len(state.Components))
		copy(components, state.Components)
		for i := range components {
			if components[i].ID == in.ComponentID {
				components[i].Quantity = quantity
			}
		}
		return ComponentListState{Components: components, IsCalculating: state.IsCalculating}

	case ClearComponents:
		return ComponentListState{Components: []Component{}, IsCalculating: state.IsCalculating}

	default:
		return state
	}
}

// needsQuantityUpdate 是否有符合 ID 且數量不同的原料
func needsQuantityUpdate(components []Component, id ID, quantity float64) bool {
	for _, c := range components {
		if c.ID == id && c.Quantity != quantity {
			return true
		}
	}
	return false
}

func containsComponent(components []Component, id ID) bool {
	for _, c := range components {
		if c.ID == id {
			return true
		}
	}
	return false
}
