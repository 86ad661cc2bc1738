package planner

import "fmt"

// RecipeIntent 食譜清單的變更意圖
// 只有本套件內的型別能實作此介面
type RecipeIntent interface {
	recipeIntent()
	fmt.Stringer
}

// AddRecipe 加入食譜，數量為 1
type AddRecipe struct {
	Recipe Recipe
}

// RemoveRecipe 移除食譜
type RemoveRecipe struct {
	RecipeID ID
}

// ClearList 清空清單
type ClearList struct{}

// UpdateQuantity 更新數量，最小為 1
type UpdateQuantity struct {
	RecipeID ID
	Quantity int
}

func (AddRecipe) recipeIntent()      {}
func (RemoveRecipe) recipeIntent()   {}
func (ClearList) recipeIntent()      {}
func (UpdateQuantity) recipeIntent() {}

func (i AddRecipe) String() string {
	return fmt.Sprintf("add_recipe(id=%s, name=%q)", i.Recipe.ID, i.Recipe.Name)
}

func (i RemoveRecipe) String() string {
	return fmt.Sprintf("remove_recipe(id=%s)", i.RecipeID)
}

func (ClearList) String() string { return "clear_list" }

func (i UpdateQuantity) String() string {
	return fmt.Sprintf("update_quantity(id=%s, quantity=%d)", i.RecipeID, i.Quantity)
}

// RecipeListReducer 食譜清單轉移函式簽名
type RecipeListReducer func(RecipeListState, RecipeIntent) RecipeListState

// ReduceRecipeList 套用意圖並回傳新快照
// 找不到目標或重複加入時回傳原快照
func ReduceRecipeList(state RecipeListState, intent RecipeIntent) RecipeListState {
	switch in := intent.(type) {
	case AddRecipe:
		if state.Contains(in.Recipe.ID) {
			return state
		}
		recipes := make([]RecipeListEntry, len(state.Recipes), len(state.Recipes)+1)
		copy(recipes, state.Recipes)
		recipes = append(recipes, RecipeListEntry{Recipe: in.Recipe, Quantity: 1})
		return RecipeListState{Recipes: recipes, Count: len(recipes)}

	case RemoveRecipe:
		idx := state.indexOf(in.RecipeID)
		if idx < 0 {
			return state
		}
		recipes := make([]RecipeListEntry, 0, len(state.Recipes)-1)
		recipes = append(recipes, state.Recipes[:idx]...)
		recipes = append(recipes, state.Recipes[idx+1:]...)
		return RecipeListState{Recipes: recipes, Count: len(recipes)}

	case ClearList:
		return RecipeListState{Recipes: []RecipeListEntry{}, Count: 0}

	case UpdateQuantity:
		idx := state.indexOf(in.RecipeID)
		quantity := max(1, in.Quantity)
		if idx < 0 || state.Recipes[idx].Quantity == quantity {
			return state
		}
		recipes := make([]RecipeListEntry, len(state.Recipes))
		copy(recipes, state.Recipes)
		recipes[idx].Quantity = quantity
		// 數量變更不影響筆數，沿用原本的 Count
		return RecipeListState{Recipes: recipes, Count: state.Count}

	default:
		return state
	}
}
