package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kiyon21/Finsight-AI/internal/infrastructure/accountdata"
	"github.com/kiyon21/Finsight-AI/internal/metrics"
	"github.com/kiyon21/Finsight-AI/internal/model"
	"github.com/kiyon21/Finsight-AI/internal/repository"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
)

// InsightRequest /insights/ 校验通过后的参数
type InsightRequest struct {
	UserID            string
	AnalysisType      model.AnalysisType
	Data              model.FinancialData
	AdditionalContext map[string]any
}

// InsightOutcome 分析结果及其落库记录
type InsightOutcome struct {
	Record *model.AnalysisRecord
	Result Result
}

type QuickSummary struct {
	TotalIncome       float64 `json:"total_income"`
	TotalExpenses     float64 `json:"total_expenses"`
	NetIncome         float64 `json:"net_income"`
	GoalsCount        int     `json:"goals_count"`
	TransactionsCount int     `json:"transactions_count"`
}

// QuickInsightResult 快速洞察落库的结果结构，同时也是接口返回的主体
type QuickInsightResult struct {
	Summary            QuickSummary       `json:"summary"`
	AIInsights         string             `json:"ai_insights"`
	Recommendations    []string           `json:"recommendations"`
	SpendingByCategory map[string]float64 `json:"spending_by_category"`
}

type QuickInsightOutcome struct {
	Record  *model.AnalysisRecord
	Insight *QuickInsightResult
}

// inputSnapshot 记录分析时使用的输入，交易只存数量
type inputSnapshot struct {
	Goals             []model.Goal         `json:"goals"`
	Income            []model.IncomeSource `json:"income"`
	TransactionsCount int                  `json:"transactions_count"`
	AdditionalContext any                  `json:"additional_context,omitempty"`
}

// AnalysisService 串起分析引擎、记录存储和账户数据拉取
type AnalysisService struct {
	engine  *InsightEngine
	repo    repository.AnalysisRepo
	fetcher accountdata.Fetcher
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewAnalysisService(engine *InsightEngine, repo repository.AnalysisRepo, fetcher accountdata.Fetcher, m *metrics.Metrics, log zerolog.Logger) *AnalysisService {
	if m == nil {
		m = metrics.Nop()
	}
	return &AnalysisService{
		engine:  engine,
		repo:    repo,
		fetcher: fetcher,
		metrics: m,
		log:     log.With().Str("component", "analysis_service").Logger(),
	}
}

// GenerateInsight 运行指定分析并落库。分析或落库失败时返回错误，不会留下部分记录。
func (s *AnalysisService) GenerateInsight(ctx context.Context, req InsightRequest) (*InsightOutcome, error) {
	if !req.AnalysisType.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAnalysisType, req.AnalysisType)
	}
	s.log.Info().Str("user_id", req.UserID).Str("analysis_type", req.AnalysisType.String()).
		Int("transactions", len(req.Data.Transactions)).Msg("generating insight")

	result, err := s.engine.Run(ctx, req.AnalysisType, req.Data)
	if err != nil {
		return nil, err
	}

	additional := req.AdditionalContext
	if additional == nil {
		additional = map[string]any{}
	}
	input := inputSnapshot{
		Goals:             nonNilGoals(req.Data.Goals),
		Income:            nonNilIncome(req.Data.Income),
		TransactionsCount: len(req.Data.Transactions),
		AdditionalContext: additional,
	}

	record, err := s.save(ctx, req.UserID, req.AnalysisType, input, result, result.ModelUsed())
	if err != nil {
		return nil, err
	}
	return &InsightOutcome{Record: record, Result: result}, nil
}

// AccountInsight 先从账户数据 API 拉取用户数据，再走 GenerateInsight。拉取失败时按空数据分析。
func (s *AnalysisService) AccountInsight(ctx context.Context, userID, token string, t model.AnalysisType, additional map[string]any) (*InsightOutcome, error) {
	data := s.fetcher.UserData(ctx, userID, token)
	return s.GenerateInsight(ctx, InsightRequest{
		UserID:            userID,
		AnalysisType:      t,
		Data:              data,
		AdditionalContext: additional,
	})
}

// QuickInsight 总是运行支出模式分析，以 quick_insight 类型落库
func (s *AnalysisService) QuickInsight(ctx context.Context, userID string, data model.FinancialData) (*QuickInsightOutcome, error) {
	totals, err := ComputeTotals(data)
	if err != nil {
		return nil, err
	}

	spending, err := s.engine.AnalyzeSpendingPatterns(ctx, data)
	if err != nil {
		return nil, err
	}

	recommendations := spending.Recommendations()
	if recommendations == nil {
		recommendations = []string{}
	}
	insight := &QuickInsightResult{
		Summary: QuickSummary{
			TotalIncome:       toFloat(totals.TotalIncome),
			TotalExpenses:     toFloat(totals.TotalExpenses),
			NetIncome:         toFloat(totals.NetIncome()),
			GoalsCount:        len(data.Goals),
			TransactionsCount: len(data.Transactions),
		},
		AIInsights:         spending.Analysis,
		Recommendations:    recommendations,
		SpendingByCategory: spending.SpendingByCategory,
	}
	input := inputSnapshot{
		Goals:             nonNilGoals(data.Goals),
		Income:            nonNilIncome(data.Income),
		TransactionsCount: len(data.Transactions),
	}

	record, err := s.save(ctx, userID, model.QuickInsight, input, insight, spending.ModelUsed())
	if err != nil {
		return nil, err
	}
	return &QuickInsightOutcome{Record: record, Insight: insight}, nil
}

// History limit 为 0 时返回空列表
func (s *AnalysisService) History(ctx context.Context, filter repository.HistoryFilter) ([]model.AnalysisRecord, error) {
	if filter.Limit == 0 {
		return []model.AnalysisRecord{}, nil
	}
	return s.repo.ListByUser(ctx, filter)
}

func (s *AnalysisService) Detail(ctx context.Context, id uint) (*model.AnalysisRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *AnalysisService) save(ctx context.Context, userID string, t model.AnalysisType, input inputSnapshot, result any, modelUsed string) (*model.AnalysisRecord, error) {
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode input snapshot: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode analysis result: %w", err)
	}

	record := &model.AnalysisRecord{
		UserID:       userID,
		AnalysisType: t.String(),
		InputData:    datatypes.JSON(inputJSON),
		Result:       datatypes.JSON(resultJSON),
	}
	if modelUsed != "" {
		record.ModelUsed = &modelUsed
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	s.metrics.AnalysesStored.WithLabelValues(t.String()).Inc()
	s.log.Info().Uint("analysis_id", record.ID).Str("user_id", userID).Str("analysis_type", t.String()).Msg("analysis saved")
	return record, nil
}

func nonNilIncome(income []model.IncomeSource) []model.IncomeSource {
	if income == nil {
		return []model.IncomeSource{}
	}
	return income
}
