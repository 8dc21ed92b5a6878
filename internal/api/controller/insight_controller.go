package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kiyon21/Finsight-AI/internal/api/middleware"
	"github.com/kiyon21/Finsight-AI/internal/api/response"
	"github.com/kiyon21/Finsight-AI/internal/logger"
	"github.com/kiyon21/Finsight-AI/internal/model"
	"github.com/kiyon21/Finsight-AI/internal/repository"
	"github.com/kiyon21/Finsight-AI/internal/service"
	"github.com/rs/zerolog"
)

// timeLayout 与原接口保持一致的 ISO 8601 格式（微秒精度）
const timeLayout = "2006-01-02T15:04:05.999999Z07:00"

const (
	msgAnalysisNotFound = "Analysis not found"
	msgUserIDRequired   = "user_id is required"
	msgArraysRequired   = "goals, income, and transactions must be arrays"
	msgInvalidLimit     = "limit must be a non-negative integer"
)

type InsightController struct {
	service *service.AnalysisService
	log     zerolog.Logger
}

func NewInsightController(s *service.AnalysisService, log zerolog.Logger) *InsightController {
	useJSONFieldNames()
	return &InsightController{service: s, log: log}
}

// ==========================================
// DTOs (请求/响应参数定义)
// ==========================================

type InsightRequest struct {
	UserID            string           `json:"user_id" binding:"required"`
	AnalysisType      string           `json:"analysis_type" binding:"required,oneof=spending_analysis goal_recommendation budget_suggestion savings_advice spending_pattern"`
	Goals             []map[string]any `json:"goals" binding:"required"`
	Income            []map[string]any `json:"income" binding:"required"`
	Transactions      []map[string]any `json:"transactions" binding:"required"`
	AdditionalContext map[string]any   `json:"additional_context"`
}

type AccountInsightRequest struct {
	UserID            string         `json:"user_id" binding:"required"`
	AnalysisType      string         `json:"analysis_type" binding:"required,oneof=spending_analysis goal_recommendation budget_suggestion savings_advice spending_pattern"`
	AdditionalContext map[string]any `json:"additional_context"`
}

type InsightResponse struct {
	UserID          string         `json:"user_id"`
	AnalysisType    string         `json:"analysis_type"`
	Insights        service.Result `json:"insights"`
	Recommendations []string       `json:"recommendations"`
	ModelUsed       *string        `json:"model_used,omitempty"`
	AnalysisID      uint           `json:"analysis_id"`
	CreatedAt       string         `json:"created_at"`
}

type QuickInsightResponse struct {
	UserID string `json:"user_id"`
	*service.QuickInsightResult
	AnalysisID uint   `json:"analysis_id"`
	CreatedAt  string `json:"created_at"`
}

// ==========================================
// Handlers
// ==========================================

// Insights 生成指定类型的理财分析
// @Summary 理财分析
// @Description 根据目标、收入和交易数据生成 AI 分析，并保存分析记录
// @Tags Insight
// @Accept json
// @Produce json
// @Param request body InsightRequest true "分析参数"
// @Success 200 {object} InsightResponse
// @Failure 400 {object} map[string][]string "字段校验失败"
// @Failure 500 {object} response.ErrorBody
// @Router /insights/ [post]
func (ctrl *InsightController) Insights(c *gin.Context) {
	var req InsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.reqLog(c).Warn().Err(err).Msg("insight params invalid")
		response.FieldErrors(c, bindErrors(err))
		return
	}

	outcome, err := ctrl.service.GenerateInsight(c.Request.Context(), service.InsightRequest{
		UserID:            req.UserID,
		AnalysisType:      model.AnalysisType(req.AnalysisType),
		Data:              toFinancialData(req.Goals, req.Income, req.Transactions),
		AdditionalContext: req.AdditionalContext,
	})
	ctrl.writeInsight(c, req.UserID, req.AnalysisType, outcome, err)
}

// AccountInsights 从账户数据 API 拉取用户数据后生成分析，Authorization 头原样透传
// @Summary 基于账户数据的理财分析
// @Tags Insight
// @Accept json
// @Produce json
// @Param request body AccountInsightRequest true "分析参数"
// @Success 200 {object} InsightResponse
// @Router /account-insights/ [post]
func (ctrl *InsightController) AccountInsights(c *gin.Context) {
	var req AccountInsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.reqLog(c).Warn().Err(err).Msg("account insight params invalid")
		response.FieldErrors(c, bindErrors(err))
		return
	}

	token := c.GetString(middleware.BearerTokenKey)
	outcome, err := ctrl.service.AccountInsight(c.Request.Context(), req.UserID, token,
		model.AnalysisType(req.AnalysisType), req.AdditionalContext)
	ctrl.writeInsight(c, req.UserID, req.AnalysisType, outcome, err)
}

func (ctrl *InsightController) writeInsight(c *gin.Context, userID, analysisType string, outcome *service.InsightOutcome, err error) {
	if err != nil {
		if errors.Is(err, service.ErrUnknownAnalysisType) {
			response.Error(c, http.StatusBadRequest, "Unknown analysis type: "+analysisType)
			return
		}
		ctrl.reqLog(c).Error().Err(err).Str("user_id", userID).Str("analysis_type", analysisType).Msg("generate insight failed")
		response.Error(c, http.StatusInternalServerError, "Error generating insights: "+err.Error())
		return
	}

	response.Success(c, InsightResponse{
		UserID:          userID,
		AnalysisType:    analysisType,
		Insights:        outcome.Result,
		Recommendations: service.PrimaryRecommendations(outcome.Result),
		ModelUsed:       outcome.Record.ModelUsed,
		AnalysisID:      outcome.Record.ID,
		CreatedAt:       formatTime(outcome.Record.CreatedAt),
	})
}

// QuickInsight 快速总览，校验比 Insights 宽松：缺失的列表按空列表处理
// @Summary 快速理财总览
// @Tags Insight
// @Accept json
// @Produce json
// @Success 200 {object} QuickInsightResponse
// @Failure 400 {object} response.ErrorBody
// @Router /quick-insight/ [post]
func (ctrl *InsightController) QuickInsight(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	userID, _ := body["user_id"].(string)
	if userID == "" {
		response.Error(c, http.StatusBadRequest, msgUserIDRequired)
		return
	}

	goals, okGoals := objectList(body, "goals")
	income, okIncome := objectList(body, "income")
	txs, okTxs := objectList(body, "transactions")
	if !okGoals || !okIncome || !okTxs {
		response.Error(c, http.StatusBadRequest, msgArraysRequired)
		return
	}

	outcome, err := ctrl.service.QuickInsight(c.Request.Context(), userID, toFinancialData(goals, income, txs))
	if err != nil {
		ctrl.reqLog(c).Error().Err(err).Str("user_id", userID).Msg("quick insight failed")
		response.Error(c, http.StatusInternalServerError, "Error generating insights: "+err.Error())
		return
	}

	response.Success(c, QuickInsightResponse{
		UserID:             userID,
		QuickInsightResult: outcome.Insight,
		AnalysisID:         outcome.Record.ID,
		CreatedAt:          formatTime(outcome.Record.CreatedAt),
	})
}

// History 查询用户的分析历史
// @Summary 分析历史
// @Tags Insight
// @Produce json
// @Param user_id path string true "用户 ID"
// @Param analysis_type query string false "分析类型"
// @Param limit query int false "返回条数，默认 10"
// @Success 200 {array} model.AnalysisRecord
// @Router /history/{user_id}/ [get]
func (ctrl *InsightController) History(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(repository.DefaultHistoryLimit)))
	if err != nil || limit < 0 {
		response.Error(c, http.StatusBadRequest, msgInvalidLimit)
		return
	}

	records, err := ctrl.service.History(c.Request.Context(), repository.HistoryFilter{
		UserID:       c.Param("user_id"),
		AnalysisType: c.Query("analysis_type"),
		Limit:        limit,
	})
	if err != nil {
		ctrl.reqLog(c).Error().Err(err).Msg("load analysis history failed")
		response.Error(c, http.StatusInternalServerError, "Failed to load analysis history")
		return
	}
	response.Success(c, records)
}

// Detail 查询单条分析记录
// @Summary 分析详情
// @Tags Insight
// @Produce json
// @Param id path int true "分析 ID"
// @Success 200 {object} model.AnalysisRecord
// @Failure 404 {object} response.ErrorBody
// @Router /analysis/{id}/ [get]
func (ctrl *InsightController) Detail(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusNotFound, msgAnalysisNotFound)
		return
	}

	record, err := ctrl.service.Detail(c.Request.Context(), uint(id))
	if errors.Is(err, repository.ErrAnalysisNotFound) {
		response.Error(c, http.StatusNotFound, msgAnalysisNotFound)
		return
	}
	if err != nil {
		ctrl.reqLog(c).Error().Err(err).Uint64("analysis_id", id).Msg("load analysis failed")
		response.Error(c, http.StatusInternalServerError, "Failed to load analysis")
		return
	}
	response.Success(c, record)
}

func (ctrl *InsightController) reqLog(c *gin.Context) *zerolog.Logger {
	l := logger.FromContext(c.Request.Context(), ctrl.log)
	return &l
}

// objectList 缺失时视为空列表；存在但不是对象数组时返回 false
func objectList(body map[string]any, key string) ([]map[string]any, bool) {
	raw, ok := body[key]
	if !ok {
		return []map[string]any{}, true
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			return nil, false
		}
		out = append(out, obj)
	}
	return out, true
}

func toFinancialData(goals, income, txs []map[string]any) model.FinancialData {
	data := model.FinancialData{
		Goals:        make([]model.Goal, 0, len(goals)),
		Income:       make([]model.IncomeSource, 0, len(income)),
		Transactions: make([]model.Transaction, 0, len(txs)),
	}
	for _, g := range goals {
		data.Goals = append(data.Goals, model.Goal(g))
	}
	for _, i := range income {
		data.Income = append(data.Income, model.IncomeSource(i))
	}
	for _, t := range txs {
		data.Transactions = append(data.Transactions, model.Transaction(t))
	}
	return data
}

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}
