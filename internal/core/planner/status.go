package planner

import "fmt"

// StatusType 狀態類型
type StatusType string

const (
	StatusSuccess StatusType = "success"
	StatusInfo    StatusType = "info"
	StatusEmpty   StatusType = "empty"
)

// StatusResult 顯示給使用者的單一狀態訊息
type StatusResult struct {
	Type     StatusType `json:"type"`
	Message  string     `json:"message"`
	Priority int        `json:"priority"`
}

// Status 依優先順序產生狀態訊息，第一個符合的規則勝出
func Status(recipeCount int, selected *Recipe, recipeListCount int) StatusResult {
	switch {
	case recipeListCount > 0:
		return StatusResult{
			Type:     StatusSuccess,
			Message:  fmt.Sprintf("%d %s in your list", recipeListCount, pluralize("recipe", recipeListCount)),
			Priority: 1,
		}
	case selected != nil && selected.Name != "":
		return StatusResult{
			Type:     StatusSuccess,
			Message:  "Selected: " + selected.Name,
			Priority: 2,
		}
	case recipeCount > 0:
		return StatusResult{
			Type:     StatusInfo,
			Message:  fmt.Sprintf("%d %s available", recipeCount, pluralize("recipe", recipeCount)),
			Priority: 3,
		}
	default:
		return StatusResult{
			Type:     StatusEmpty,
			Message:  "No recipes available",
			Priority: 4,
		}
	}
}

func pluralize(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

type statusKey struct {
	recipeCount int
	selected    *Recipe
	name        string
	listCount   int
}

// StatusEngine 快取上一次的狀態結果
type StatusEngine struct {
	key    statusKey
	result StatusResult
	valid  bool
}

// Evaluate 三個輸入皆未變時回傳快取結果
func (e *StatusEngine) Evaluate(recipeCount int, selected *Recipe, recipeListCount int) StatusResult {
	key := statusKey{recipeCount: recipeCount, selected: selected, listCount: recipeListCount}
	if selected != nil {
		key.name = selected.Name
	}
	if e.valid && e.key == key {
		return e.result
	}
	e.key = key
	e.result = Status(recipeCount, selected, recipeListCount)
	e.valid = true
	return e.result
}
