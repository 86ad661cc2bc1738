package planner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"crafting-planner/internal/pkg/common"
)

// 意圖名稱
const (
	TypeAddRecipe               = "add_recipe"
	TypeRemoveRecipe            = "remove_recipe"
	TypeClearList               = "clear_list"
	TypeUpdateQuantity          = "update_quantity"
	TypeSetComponents           = "set_components"
	TypeAddComponent            = "add_component"
	TypeRemoveComponent         = "remove_component"
	TypeUpdateComponentQuantity = "update_component_quantity"
	TypeClearComponents         = "clear_components"
)

var (
	// ErrUnknownIntent 無法辨識的意圖類型
	ErrUnknownIntent = errors.New("unknown intent type")
	// ErrMissingTarget 缺少目標 ID
	ErrMissingTarget = errors.New("intent target id is required")
)

// intentEnvelope 所有意圖共用的外層格式
type intentEnvelope struct {
	Type        string          `json:"type"`
	Recipe      *Recipe         `json:"recipe,omitempty"`
	RecipeID    *ID             `json:"recipe_id,omitempty"`
	Quantity    json.Number     `json:"quantity,omitempty"`
	Components  json.RawMessage `json:"components,omitempty"`
	Component   *wireComponent  `json:"component,omitempty"`
	ComponentID *ID             `json:"component_id,omitempty"`
}

type wireComponent struct {
	ID       ID       `json:"id"`
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
}

func decodeEnvelope(data []byte) (*intentEnvelope, error) {
	var env intentEnvelope
	if err := common.ParseJSONBytes(data, &env); err != nil {
		return nil, fmt.Errorf("invalid intent: %w", err)
	}
	return &env, nil
}

// DecodeRecipeIntent 解析食譜清單意圖
func DecodeRecipeIntent(data []byte) (RecipeIntent, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case TypeAddRecipe:
		if env.Recipe == nil {
			return nil, fmt.Errorf("%s: recipe is required", env.Type)
		}
		return AddRecipe{Recipe: *env.Recipe}, nil
	case TypeRemoveRecipe:
		if env.RecipeID == nil {
			return nil, fmt.Errorf("%s: %w", env.Type, ErrMissingTarget)
		}
		return RemoveRecipe{RecipeID: *env.RecipeID}, nil
	case TypeClearList:
		return ClearList{}, nil
	case TypeUpdateQuantity:
		if env.RecipeID == nil {
			return nil, fmt.Errorf("%s: %w", env.Type, ErrMissingTarget)
		}
		q, err := env.Quantity.Int64()
		if err != nil {
			return nil, fmt.Errorf("%s: invalid quantity %q", env.Type, env.Quantity)
		}
		return UpdateQuantity{RecipeID: *env.RecipeID, Quantity: int(q)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, env.Type)
	}
}

// DecodeComponentIntent 解析原料清單意圖
func DecodeComponentIntent(data []byte) (ComponentIntent, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case TypeSetComponents:
		return SetComponents{Components: DecodeComponents(env.Components)}, nil
	case TypeAddComponent:
		if env.Component == nil {
			return nil, fmt.Errorf("%s: component is required", env.Type)
		}
		return AddComponent{
			Component: Component{ID: env.Component.ID, Name: env.Component.Name},
			Quantity:  env.Component.Quantity,
		}, nil
	case TypeRemoveComponent:
		if env.ComponentID == nil {
			return nil, fmt.Errorf("%s: %w", env.Type, ErrMissingTarget)
		}
		return RemoveComponent{ComponentID: *env.ComponentID}, nil
	case TypeUpdateComponentQuantity:
		if env.ComponentID == nil {
			return nil, fmt.Errorf("%s: %w", env.Type, ErrMissingTarget)
		}
		q, err := env.Quantity.Float64()
		if err != nil {
			return nil, fmt.Errorf("%s: invalid quantity %q", env.Type, env.Quantity)
		}
		return UpdateComponentQuantity{ComponentID: *env.ComponentID, Quantity: q}, nil
	case TypeClearComponents:
		return ClearComponents{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, env.Type)
	}
}

// DecodeComponents 將外部計算結果轉為原料集合
// 不是 JSON 陣列或內容格式錯誤時回傳空集合
func DecodeComponents(raw json.RawMessage) []Component {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []Component{}
	}
	var components []Component
	if err := json.Unmarshal(trimmed, &components); err != nil {
		return []Component{}
	}
	if components == nil {
		return []Component{}
	}
	return components
}
