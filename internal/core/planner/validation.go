package planner

import "unsafe"

// 驗證訊息
const (
	MessageSelectRecipe  = "Select a recipe to add"
	MessageAlreadyInList = "Recipe already in list"
	MessageReadyToAdd    = "Ready to add recipe"
)

// ValidationResult 目前選取食譜能否加入清單
type ValidationResult struct {
	HasSelection      bool   `json:"has_selection"`
	IsAlreadySelected bool   `json:"is_already_selected"`
	CanAddSelected    bool   `json:"can_add_selected"`
	CanClearList      bool   `json:"can_clear_list"`
	ValidationMessage string `json:"validation_message"`
}

// Validate 依據選取的食譜與目前清單計算驗證結果
// 以 ID 或名稱比對是否已在清單中，名稱用於缺少 ID 的資料
func Validate(selected *Recipe, list RecipeListState) ValidationResult {
	result := ValidationResult{
		HasSelection: selected != nil,
		CanClearList: len(list.Recipes) > 0,
	}

	if result.HasSelection {
		for _, entry := range list.Recipes {
			if entry.Recipe.ID == selected.ID || entry.Recipe.Name == selected.Name {
				result.IsAlreadySelected = true
				break
			}
		}
	}
	result.CanAddSelected = result.HasSelection && !result.IsAlreadySelected

	switch {
	case !result.HasSelection:
		result.ValidationMessage = MessageSelectRecipe
	case result.IsAlreadySelected:
		result.ValidationMessage = MessageAlreadyInList
	default:
		result.ValidationMessage = MessageReadyToAdd
	}
	return result
}

// validationKey 以參照識別輸入
type validationKey struct {
	selected *Recipe
	data     *RecipeListEntry
	n        int
	count    int
}

// ValidationEngine 快取上一次的驗證結果
// 非並行安全，由持有者負責同步
type ValidationEngine struct {
	key    validationKey
	result ValidationResult
	valid  bool
	hits   int // 命中次數
}

// Evaluate 輸入與上次相同時直接回傳快取結果
func (e *ValidationEngine) Evaluate(selected *Recipe, list RecipeListState) ValidationResult {
	key := validationKey{
		selected: selected,
		data:     unsafe.SliceData(list.Recipes),
		n:        len(list.Recipes),
		count:    list.Count,
	}
	if e.valid && e.key == key {
		e.hits++
		return e.result
	}
	e.key = key
	e.result = Validate(selected, list)
	e.valid = true
	return e.result
}
