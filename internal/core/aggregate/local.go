package aggregate

import (
	"context"
	"encoding/json"

	"crafting-planner/internal/core/planner"
)

// LocalAggregator 依食譜內的 ingredients 加總原料
// 同 ID 的原料合併，順序依第一次出現
type LocalAggregator struct{}

// Name 計算方式名稱
func (LocalAggregator) Name() string { return "local" }

// Aggregate 每筆食譜的原料數量乘上食譜數量後加總
func (a LocalAggregator) Aggregate(ctx context.Context, list planner.RecipeListState) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return json.Marshal(Sum(list))
}

// Sum 計算原料總需求
func Sum(list planner.RecipeListState) []planner.Component {
	components := []planner.Component{}
	index := make(map[planner.ID]int)

	for _, entry := range list.Recipes {
		for _, ing := range entry.Recipe.Ingredients {
			need := ing.Quantity * float64(entry.Quantity)
			if i, ok := index[ing.ID]; ok {
				components[i].Quantity += need
				continue
			}
			index[ing.ID] = len(components)
			components = append(components, planner.Component{
				ID:       ing.ID,
				Name:     ing.Name,
				Quantity: need,
			})
		}
	}
	return components
}
