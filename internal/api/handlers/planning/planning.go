package planning

import (
	"context"
	"errors"
	"net/http"

	"crafting-planner/internal/core/aggregate"
	"crafting-planner/internal/core/planner"
	"crafting-planner/internal/core/session"
	"crafting-planner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SelectionRequest 設定目前選取的食譜，recipe 為 null 表示取消選取
// 不接受未知欄位，自訂資料放在 recipe.attributes
type SelectionRequest struct {
	Recipe *planner.Recipe `json:"recipe"`
}

// AvailableRequest 設定可選食譜數量
type AvailableRequest struct {
	Count *int `json:"count" binding:"required,min=0"`
}

// RecipeIntentResponse 食譜清單意圖結果
type RecipeIntentResponse struct {
	RecipeList planner.RecipeListState  `json:"recipe_list"`
	Changed    bool                     `json:"changed"`
	Validation planner.ValidationResult `json:"validation"`
	Status     planner.StatusResult     `json:"status"`
}

// ComponentIntentResponse 原料清單意圖結果
type ComponentIntentResponse struct {
	ComponentList planner.ComponentListState `json:"component_list"`
	Changed       bool                       `json:"changed"`
}

// DerivedResponse 驗證與狀態
type DerivedResponse struct {
	Validation planner.ValidationResult `json:"validation"`
	Status     planner.StatusResult     `json:"status"`
}

// RecalculateResponse 原料重新計算結果
type RecalculateResponse struct {
	ComponentList planner.ComponentListState `json:"component_list"`
	Queue         aggregate.Status           `json:"queue"`
	Stale         bool                       `json:"stale,omitempty"`
}

// Handler 規劃工作階段處理程序
type Handler struct {
	sessions *session.Manager
	queue    *aggregate.Queue
	debug    bool
}

// NewHandler 創建新的處理程序
func NewHandler(sessions *session.Manager, queue *aggregate.Queue, debug bool) *Handler {
	return &Handler{
		sessions: sessions,
		queue:    queue,
		debug:    debug,
	}
}

// Register 註冊路由
func (h *Handler) Register(group *gin.RouterGroup) {
	sessions := group.Group("/sessions")
	{
		sessions.POST("", h.HandleCreateSession)
		sessions.GET("/:id", h.HandleGetSession)
		sessions.DELETE("/:id", h.HandleDeleteSession)

		sessions.POST("/:id/recipes/intents", h.HandleRecipeIntent)
		sessions.POST("/:id/components/intents", h.HandleComponentIntent)
		sessions.POST("/:id/components/recalculate", h.HandleRecalculate)

		sessions.PUT("/:id/selection", h.HandleSelect)
		sessions.PUT("/:id/available", h.HandleAvailable)

		sessions.GET("/:id/validation", h.HandleValidation)
		sessions.GET("/:id/status", h.HandleStatus)
	}
}

// fail 寫入錯誤響應
func (h *Handler) fail(c *gin.Context, err error) {
	ce := common.AsCustomError(err)
	fields := []zap.Field{
		zap.String("code", ce.Code),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
	}
	if ce.Err != nil {
		fields = append(fields, zap.Error(ce.Err))
	}
	if ce.Status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogWarn("請求無效", fields...)
	}
	c.AbortWithStatusJSON(ce.Status, ce.Response(h.debug))
}

// session 依路徑參數取得工作階段
func (h *Handler) session(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return s, true
}

// HandleCreateSession 建立規劃工作階段
func (h *Handler) HandleCreateSession(c *gin.Context) {
	s := h.sessions.Create()

	common.LogInfo("工作階段已建立",
		zap.String("session_id", s.ID()),
		zap.String("request_id", requestid.Get(c)),
	)
	c.JSON(http.StatusCreated, s.View())
}

// HandleGetSession 取得工作階段快照
func (h *Handler) HandleGetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// HandleDeleteSession 結束工作階段
func (h *Handler) HandleDeleteSession(c *gin.Context) {
	if !h.sessions.Delete(c.Param("id")) {
		h.fail(c, common.ErrNotFound.WithErr(session.ErrSessionNotFound))
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleRecipeIntent 套用食譜清單意圖
func (h *Handler) HandleRecipeIntent(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		h.fail(c, common.ErrInvalidRequest.WithErr(err))
		return
	}
	intent, err := planner.DecodeRecipeIntent(body)
	if err != nil {
		h.fail(c, common.ErrInvalidRequest.WithErr(err))
		return
	}

	state, changed := s.DispatchRecipe(intent)
	c.JSON(http.StatusOK, RecipeIntentResponse{
		RecipeList: state,
		Changed:    changed,
		Validation: s.Validation(),
		Status:     s.Status(),
	})
}

// HandleComponentIntent 套用原料清單意圖
func (h *Handler) HandleComponentIntent(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		h.fail(c, common.ErrInvalidRequest.WithErr(err))
		return
	}
	intent, err := planner.DecodeComponentIntent(body)
	if err != nil {
		h.fail(c, common.ErrInvalidRequest.WithErr(err))
		return
	}

	state, changed := s.DispatchComponent(intent)
	c.JSON(http.StatusOK, ComponentIntentResponse{ComponentList: state, Changed: changed})
}

// HandleRecalculate 將原料重新計算加入隊列
// 帶 ?wait=true 時等待計算完成再回應
func (h *Handler) HandleRecalculate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	result, err := h.queue.Enqueue(s)
	if err != nil {
		h.fail(c, err)
		return
	}

	if c.Query("wait") != "true" {
		c.JSON(http.StatusAccepted, RecalculateResponse{
			ComponentList: s.ComponentList(),
			Queue:         h.queue.Status(),
		})
		return
	}

	select {
	case res := <-result:
		if res.Error != nil {
			h.fail(c, res.Error)
			return
		}
		c.JSON(http.StatusOK, RecalculateResponse{
			ComponentList: res.Components,
			Queue:         h.queue.Status(),
			Stale:         res.Stale,
		})
	case <-c.Request.Context().Done():
		err := c.Request.Context().Err()
		if errors.Is(err, context.DeadlineExceeded) {
			h.fail(c, common.ErrGatewayTimeout.WithErr(err))
			return
		}
		h.fail(c, common.ErrRequestTimeout.WithErr(err))
	}
}

// HandleSelect 設定目前選取的食譜
func (h *Handler) HandleSelect(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req SelectionRequest
	if err := common.DecodeJSONStrict(c.Request.Body, &req); err != nil {
		h.fail(c, common.ErrInvalidRequest.WithErr(err))
		return
	}

	s.Select(req.Recipe)
	c.JSON(http.StatusOK, DerivedResponse{Validation: s.Validation(), Status: s.Status()})
}

// HandleAvailable 設定可選食譜數量
func (h *Handler) HandleAvailable(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req AvailableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.ErrInvalidRequest.WithErr(err))
		return
	}

	s.SetAvailable(*req.Count)
	c.JSON(http.StatusOK, DerivedResponse{Validation: s.Validation(), Status: s.Status()})
}

// HandleValidation 取得驗證結果
func (h *Handler) HandleValidation(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Validation())
}

// HandleStatus 取得狀態訊息
func (h *Handler) HandleStatus(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Status())
}
