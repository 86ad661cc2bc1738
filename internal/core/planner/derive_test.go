package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	list := listOf(bread)

	tests := []struct {
		name     string
		selected *Recipe
		list     RecipeListState
		want     ValidationResult
	}{
		{
			name:     "no selection, empty list",
			selected: nil,
			list:     NewRecipeListState(),
			want: ValidationResult{
				ValidationMessage: MessageSelectRecipe,
			},
		},
		{
			name:     "no selection, non-empty list",
			selected: nil,
			list:     list,
			want: ValidationResult{
				CanClearList:      true,
				ValidationMessage: MessageSelectRecipe,
			},
		},
		{
			name:     "selected by id",
			selected: &Recipe{ID: "1", Name: "Bread"},
			list:     list,
			want: ValidationResult{
				HasSelection:      true,
				IsAlreadySelected: true,
				CanClearList:      true,
				ValidationMessage: MessageAlreadyInList,
			},
		},
		{
			name:     "selected by name only",
			selected: &Recipe{ID: "77", Name: "Bread"},
			list:     list,
			want: ValidationResult{
				HasSelection:      true,
				IsAlreadySelected: true,
				CanClearList:      true,
				ValidationMessage: MessageAlreadyInList,
			},
		},
		{
			name:     "selected by id with different name",
			selected: &Recipe{ID: "1", Name: "Rye"},
			list:     list,
			want: ValidationResult{
				HasSelection:      true,
				IsAlreadySelected: true,
				CanClearList:      true,
				ValidationMessage: MessageAlreadyInList,
			},
		},
		{
			name:     "new selection",
			selected: &soup,
			list:     list,
			want: ValidationResult{
				HasSelection:      true,
				CanAddSelected:    true,
				CanClearList:      true,
				ValidationMessage: MessageReadyToAdd,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.selected, tt.list))
		})
	}
}

func TestValidate_DoesNotMutateList(t *testing.T) {
	list := listOf(bread, soup)
	before := append([]RecipeListEntry(nil), list.Recipes...)

	Validate(&stew, list)

	assert.Equal(t, before, list.Recipes)
}

func TestValidationEngine_Memoizes(t *testing.T) {
	var engine ValidationEngine
	list := listOf(bread)
	selected := &Recipe{ID: "2", Name: "Soup"}

	first := engine.Evaluate(selected, list)
	second := engine.Evaluate(selected, list)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, engine.hits)

	// 新快照必須重新計算
	list = ReduceRecipeList(list, AddRecipe{Recipe: soup})
	third := engine.Evaluate(selected, list)
	assert.True(t, third.IsAlreadySelected)
	assert.Equal(t, 1, engine.hits)

	// 不同的選取指標必須重新計算
	fourth := engine.Evaluate(&Recipe{ID: "3", Name: "Stew"}, list)
	assert.True(t, fourth.CanAddSelected)
	assert.Equal(t, 1, engine.hits)
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name        string
		recipeCount int
		selected    *Recipe
		listCount   int
		want        StatusResult
	}{
		{"list wins over available", 5, nil, 2, StatusResult{StatusSuccess, "2 recipes in your list", 1}},
		{"single recipe in list", 5, &bread, 1, StatusResult{StatusSuccess, "1 recipe in your list", 1}},
		{"selection", 5, &bread, 0, StatusResult{StatusSuccess, "Selected: Bread", 2}},
		{"selection without name", 5, &Recipe{ID: "1"}, 0, StatusResult{StatusInfo, "5 recipes available", 3}},
		{"single available", 1, nil, 0, StatusResult{StatusInfo, "1 recipe available", 3}},
		{"empty", 0, nil, 0, StatusResult{StatusEmpty, "No recipes available", 4}},
		{"unnamed selection and nothing available", 0, &Recipe{ID: "1"}, 0, StatusResult{StatusEmpty, "No recipes available", 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.recipeCount, tt.selected, tt.listCount))
		})
	}
}

func TestStatusEngine_RecomputesOnChange(t *testing.T) {
	var engine StatusEngine

	assert.Equal(t, 4, engine.Evaluate(0, nil, 0).Priority)
	assert.Equal(t, 3, engine.Evaluate(2, nil, 0).Priority)
	assert.Equal(t, 2, engine.Evaluate(2, &bread, 0).Priority)
	assert.Equal(t, 1, engine.Evaluate(2, &bread, 1).Priority)
	assert.Equal(t, "1 recipe in your list", engine.Evaluate(2, &bread, 1).Message)
}
