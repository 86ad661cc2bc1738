package aggregate

import (
	"context"
	"encoding/json"

	"crafting-planner/internal/core/planner"
	"crafting-planner/internal/infrastructure/config"
	"crafting-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// Aggregator 將食譜清單換算成原料需求
// 回傳未經正規化的 JSON，由呼叫端交給 planner.DecodeComponents
type Aggregator interface {
	Aggregate(ctx context.Context, list planner.RecipeListState) (json.RawMessage, error)
	Name() string
}

// New 依設定選擇計算方式，未設定遠端服務時使用本地計算
func New(cfg *config.Config) Aggregator {
	if cfg.Aggregator.BaseURL == "" {
		common.LogInfo("使用本地原料計算")
		return LocalAggregator{}
	}

	common.LogInfo("使用遠端原料計算",
		zap.String("base_url", cfg.Aggregator.BaseURL),
		zap.String("api_key", config.MaskAPIKey(cfg.Aggregator.APIKey)),
		zap.Duration("timeout", cfg.Aggregator.Timeout),
	)
	return NewRemoteAggregator(&cfg.Aggregator)
}
