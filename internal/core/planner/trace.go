package planner

import "go.uber.org/zap"

// TraceRecipeList 包裝轉移函式，記錄意圖與結果
// logger 為 nil 時回傳原函式
func TraceRecipeList(next RecipeListReducer, logger *zap.Logger) RecipeListReducer {
	if logger == nil {
		return next
	}
	return func(state RecipeListState, intent RecipeIntent) RecipeListState {
		result := next(state, intent)
		logger.Debug("recipe list intent applied",
			zap.Stringer("intent", intent),
			zap.Bool("changed", !SameRecipeList(state, result)),
			zap.Int("count_before", state.Count),
			zap.Int("count", result.Count),
		)
		return result
	}
}

// TraceComponentList 包裝原料清單轉移函式
func TraceComponentList(next ComponentListReducer, logger *zap.Logger) ComponentListReducer {
	if logger == nil {
		return next
	}
	return func(state ComponentListState, intent ComponentIntent) ComponentListState {
		result := next(state, intent)
		logger.Debug("component list intent applied",
			zap.Stringer("intent", intent),
			zap.Bool("changed", !SameComponentList(state, result)),
			zap.Int("components_before", len(state.Components)),
			zap.Int("components", len(result.Components)),
			zap.Bool("is_calculating", result.IsCalculating),
		)
		return result
	}
}
