package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"crafting-planner/internal/core/planner"
	"crafting-planner/internal/infrastructure/config"
	"crafting-planner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// RemoteAggregator 呼叫外部原料計算服務
type RemoteAggregator struct {
	config *config.AggregatorConfig
	client *resty.Client
}

// aggregateRequest 送往計算服務的內容
type aggregateRequest struct {
	Recipes []planner.RecipeListEntry `json:"recipes"`
}

// aggregateResponse 計算服務回應，components 保留原始內容
type aggregateResponse struct {
	Components json.RawMessage `json:"components"`
}

// NewRemoteAggregator 創建遠端計算客戶端
func NewRemoteAggregator(cfg *config.AggregatorConfig) *RemoteAggregator {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Title", "Crafting Planner")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &RemoteAggregator{
		config: cfg,
		client: client,
	}
}

// Name 計算方式名稱
func (a *RemoteAggregator) Name() string { return "remote" }

// Aggregate 送出食譜清單並取回原料
func (a *RemoteAggregator) Aggregate(ctx context.Context, list planner.RecipeListState) (json.RawMessage, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(aggregateRequest{Recipes: list.Recipes}).
		Post("/aggregate")
	if err != nil {
		return nil, fmt.Errorf("failed to send request to aggregator: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("aggregator returned status %d: %s", resp.StatusCode(), resp.String())
	}

	var result aggregateResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		// 格式錯誤的結果視為空集合
		common.LogWarn("Aggregator returned malformed body",
			zap.Error(err),
			zap.Int("body_size", len(resp.Body())),
		)
		return nil, nil
	}
	return result.Components, nil
}
