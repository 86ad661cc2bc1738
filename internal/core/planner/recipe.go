package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unsafe"
)

// ID 食譜與材料的識別碼，JSON 可為數字或字串
type ID string

// UnmarshalJSON 同時接受 1 與 "1"
// 數字會正規化，字串則原樣保留
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*id = canonicalNumber(n)
	return nil
}

// canonicalNumber 數值相同的 ID 使用同一種寫法，1、1.0 與 1e0 皆為 "1"
func canonicalNumber(n json.Number) ID {
	if i, err := n.Int64(); err == nil {
		return ID(strconv.FormatInt(i, 10))
	}
	// 超出 int64 的整數寫法保留原文，避免轉成浮點數後失真
	if !strings.ContainsAny(n.String(), ".eE") {
		return ID(n.String())
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return ID(n.String())
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		return ID(strconv.FormatInt(int64(f), 10))
	}
	return ID(strconv.FormatFloat(f, 'f', -1, 64))
}

// Recipe 食譜
// 核心只讀取 ID 與 Name，其餘欄位由呼叫端定義
type Recipe struct {
	ID          ID             `json:"id"`
	Name        string         `json:"name"`
	Ingredients []Component    `json:"ingredients,omitempty"` // 單次製作所需材料，僅供聚合使用
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// RecipeListEntry 清單中的一筆食譜與數量
type RecipeListEntry struct {
	Recipe   Recipe `json:"recipe"`
	Quantity int    `json:"quantity"`
}

// RecipeListState 已選食譜清單快照
// 快照產生後不得修改，所有變更都透過 ReduceRecipeList 產生新快照
type RecipeListState struct {
	Recipes []RecipeListEntry `json:"recipes"`
	Count   int               `json:"count"`
}

// NewRecipeListState 建立空清單
func NewRecipeListState() RecipeListState {
	return RecipeListState{Recipes: []RecipeListEntry{}, Count: 0}
}

// Contains 清單內是否已有此 ID
func (s RecipeListState) Contains(id ID) bool {
	return s.indexOf(id) >= 0
}

func (s RecipeListState) indexOf(id ID) int {
	for i, entry := range s.Recipes {
		if entry.Recipe.ID == id {
			return i
		}
	}
	return -1
}

// SameRecipeList 判斷兩個快照是否為同一份（未發生變更）
func SameRecipeList(a, b RecipeListState) bool {
	return a.Count == b.Count &&
		len(a.Recipes) == len(b.Recipes) &&
		unsafe.SliceData(a.Recipes) == unsafe.SliceData(b.Recipes)
}
