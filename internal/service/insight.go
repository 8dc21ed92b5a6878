package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/kiyon21/Finsight-AI/internal/infrastructure/llm"
	"github.com/kiyon21/Finsight-AI/internal/model"
)

// ErrUnknownAnalysisType 请求的分析类型不在支持范围内
var ErrUnknownAnalysisType = errors.New("unknown analysis type")

// 各分析的生成长度上限
const (
	spendingPatternMaxTokens    = 800
	goalRecommendationMaxTokens = 600
	budgetSuggestionMaxTokens   = 700
	spendingAdviceMaxTokens     = 600

	topCategoryCount = 5
)

// 模型不可用时的兜底内容
var (
	defaultSpendingRecommendations = []string{
		"Review your spending categories regularly",
		"Set up automatic savings transfers",
		"Track progress towards your financial goals",
	}
	defaultGoalRecommendations = []string{
		"Build an emergency fund covering 3-6 months of expenses",
		"Maximize contributions to retirement accounts",
		"Pay off high-interest debt first",
	}
	defaultSpendingTips = []string{
		"Review subscriptions and cancel unused services",
		"Use cashback credit cards for regular purchases",
		"Meal plan to reduce food waste and spending",
	}
)

const (
	fallbackAnalysis        = "Unable to generate analysis at this time."
	fallbackRecommendations = "Unable to generate recommendations at this time."
	fallbackBudgetPlan      = "Unable to generate budget plan at this time."
	fallbackAdvice          = "Unable to generate advice at this time."
)

// Result 四种分析结果的共同视图。Recommendations 与 Tips 至多一个有值。
type Result interface {
	Type() model.AnalysisType
	ModelUsed() string
	Recommendations() []string
	Tips() []string
}

// PrimaryRecommendations 依次取 Recommendations、Tips 中第一个非空的列表
func PrimaryRecommendations(r Result) []string {
	if recs := r.Recommendations(); len(recs) > 0 {
		return recs
	}
	if tips := r.Tips(); len(tips) > 0 {
		return tips
	}
	return []string{}
}

type SpendingPatternResult struct {
	analysisType       model.AnalysisType
	Analysis           string             `json:"analysis"`
	RecommendationList []string           `json:"recommendations"`
	TotalIncome        float64            `json:"total_income"`
	TotalExpenses      float64            `json:"total_expenses"`
	NetIncome          float64            `json:"net_income"`
	SpendingByCategory map[string]float64 `json:"spending_by_category"`
	Model              string             `json:"model_used"`
}

func (r *SpendingPatternResult) Type() model.AnalysisType {
	if r.analysisType == "" {
		return model.SpendingAnalysis
	}
	return r.analysisType
}
func (r *SpendingPatternResult) ModelUsed() string         { return r.Model }
func (r *SpendingPatternResult) Recommendations() []string { return r.RecommendationList }
func (r *SpendingPatternResult) Tips() []string            { return nil }

type GoalRecommendationResult struct {
	RecommendationList  []string `json:"recommendations"`
	RecommendationsText string   `json:"recommendations_text"`
	CurrentSavings      float64  `json:"current_savings"`
	Model               string   `json:"model_used"`
}

func (r *GoalRecommendationResult) Type() model.AnalysisType  { return model.GoalRecommendation }
func (r *GoalRecommendationResult) ModelUsed() string         { return r.Model }
func (r *GoalRecommendationResult) Recommendations() []string { return r.RecommendationList }
func (r *GoalRecommendationResult) Tips() []string            { return nil }

type BudgetSuggestionResult struct {
	BudgetPlan                string  `json:"budget_plan"`
	MonthlyIncome             float64 `json:"monthly_income"`
	AvgMonthlyExpenses        float64 `json:"avg_monthly_expenses"`
	MonthlyGoalContributions  float64 `json:"monthly_goal_contributions"`
	AvailableForDiscretionary float64 `json:"available_for_discretionary"`
	Model                     string  `json:"model_used"`
}

func (r *BudgetSuggestionResult) Type() model.AnalysisType  { return model.BudgetSuggestion }
func (r *BudgetSuggestionResult) ModelUsed() string         { return r.Model }
func (r *BudgetSuggestionResult) Recommendations() []string { return nil }
func (r *BudgetSuggestionResult) Tips() []string            { return nil }

type SpendingAdviceResult struct {
	Advice         string             `json:"advice"`
	ActionableTips []string           `json:"actionable_tips"`
	TopCategories  map[string]float64 `json:"top_categories"`
	Model          string             `json:"model_used"`
}

func (r *SpendingAdviceResult) Type() model.AnalysisType  { return model.SavingsAdvice }
func (r *SpendingAdviceResult) ModelUsed() string         { return r.Model }
func (r *SpendingAdviceResult) Recommendations() []string { return nil }
func (r *SpendingAdviceResult) Tips() []string            { return r.ActionableTips }

// InsightEngine 汇总数值、拼 prompt、调用模型并解析回复
type InsightEngine struct {
	llm llm.Provider // 依赖接口，方便测试替换
}

func NewInsightEngine(provider llm.Provider) *InsightEngine {
	return &InsightEngine{llm: provider}
}

// Run 按分析类型分发。spending_pattern 与 spending_analysis 走同一个分析函数。
func (e *InsightEngine) Run(ctx context.Context, t model.AnalysisType, data model.FinancialData) (Result, error) {
	switch t {
	case model.SpendingAnalysis, model.SpendingPattern:
		r, err := e.AnalyzeSpendingPatterns(ctx, data)
		if err != nil {
			return nil, err
		}
		r.analysisType = t
		return r, nil
	case model.GoalRecommendation:
		return e.GenerateGoalRecommendations(ctx, data)
	case model.BudgetSuggestion:
		return e.GenerateBudgetSuggestions(ctx, data)
	case model.SavingsAdvice:
		return e.AnalyzeSpendingAdvice(ctx, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAnalysisType, t)
	}
}

// AnalyzeSpendingPatterns 收支总览 + 分类支出分析
func (e *InsightEngine) AnalyzeSpendingPatterns(ctx context.Context, data model.FinancialData) (*SpendingPatternResult, error) {
	totals, err := ComputeTotals(data)
	if err != nil {
		return nil, err
	}
	byCategory, err := SpendingByCategory(data.Transactions)
	if err != nil {
		return nil, err
	}

	income := toFloat(totals.TotalIncome)
	expenses := toFloat(totals.TotalExpenses)
	net := toFloat(totals.NetIncome())
	categories := toFloatMap(byCategory)

	prompt := buildSpendingPatternPrompt(income, expenses, net, categories, data.Goals)
	analysis, ok := e.llm.Generate(ctx, llm.GenerateRequest{Prompt: prompt, MaxTokens: spendingPatternMaxTokens})

	var recommendations []string
	if ok {
		recommendations = ExtractNumberedLines(analysis)
	} else {
		analysis = fallbackAnalysis
	}
	if len(recommendations) == 0 {
		recommendations = clone(defaultSpendingRecommendations)
	}

	return &SpendingPatternResult{
		Analysis:           analysis,
		RecommendationList: recommendations,
		TotalIncome:        income,
		TotalExpenses:      expenses,
		NetIncome:          net,
		SpendingByCategory: categories,
		Model:              e.llm.DefaultModel(),
	}, nil
}

// GenerateGoalRecommendations 根据收入和已有储蓄推荐新的理财目标
func (e *InsightEngine) GenerateGoalRecommendations(ctx context.Context, data model.FinancialData) (*GoalRecommendationResult, error) {
	income, err := SumIncome(data.Income)
	if err != nil {
		return nil, err
	}
	savings, err := SumCurrentSavings(data.Goals)
	if err != nil {
		return nil, err
	}

	prompt := buildGoalRecommendationPrompt(toFloat(income), toFloat(savings), len(data.Goals))
	text, ok := e.llm.Generate(ctx, llm.GenerateRequest{Prompt: prompt, MaxTokens: goalRecommendationMaxTokens})

	var recommendations []string
	if ok {
		recommendations = ExtractListItems(text)
	} else {
		text = fallbackRecommendations
	}
	if len(recommendations) == 0 {
		recommendations = clone(defaultGoalRecommendations)
	}

	return &GoalRecommendationResult{
		RecommendationList:  recommendations,
		RecommendationsText: text,
		CurrentSavings:      toFloat(savings),
		Model:               e.llm.DefaultModel(),
	}, nil
}

// GenerateBudgetSuggestions 基于周期性收入、平均支出和目标月供给出预算方案
func (e *InsightEngine) GenerateBudgetSuggestions(ctx context.Context, data model.FinancialData) (*BudgetSuggestionResult, error) {
	monthlyIncome, err := SumRecurringIncome(data.Income)
	if err != nil {
		return nil, err
	}
	avgExpenses, err := AverageExpense(data.Transactions)
	if err != nil {
		return nil, err
	}
	contributions, err := SumMonthlyContributions(data.Goals)
	if err != nil {
		return nil, err
	}
	// 可以为负
	discretionary := monthlyIncome.Sub(avgExpenses).Sub(contributions)

	prompt := buildBudgetSuggestionPrompt(toFloat(monthlyIncome), toFloat(avgExpenses), toFloat(contributions))
	plan, ok := e.llm.Generate(ctx, llm.GenerateRequest{Prompt: prompt, MaxTokens: budgetSuggestionMaxTokens})
	if !ok {
		plan = fallbackBudgetPlan
	}

	return &BudgetSuggestionResult{
		BudgetPlan:                plan,
		MonthlyIncome:             toFloat(monthlyIncome),
		AvgMonthlyExpenses:        toFloat(avgExpenses),
		MonthlyGoalContributions:  toFloat(contributions),
		AvailableForDiscretionary: toFloat(discretionary),
		Model:                     e.llm.DefaultModel(),
	}, nil
}

// AnalyzeSpendingAdvice 针对支出最高的 5 个分类给出省钱建议
func (e *InsightEngine) AnalyzeSpendingAdvice(ctx context.Context, data model.FinancialData) (*SpendingAdviceResult, error) {
	byCategory, err := SpendingByCategory(data.Transactions)
	if err != nil {
		return nil, err
	}
	top := TopCategories(byCategory, topCategoryCount)

	prompt := buildSpendingAdvicePrompt(top, data.Goals)
	advice, ok := e.llm.Generate(ctx, llm.GenerateRequest{Prompt: prompt, MaxTokens: spendingAdviceMaxTokens})

	var tips []string
	if ok {
		tips = ExtractListItems(advice)
	} else {
		advice = fallbackAdvice
	}
	if len(tips) == 0 {
		tips = clone(defaultSpendingTips)
	}

	topMap := make(map[string]float64, len(top))
	for _, ct := range top {
		topMap[ct.Category] = toFloat(ct.Amount)
	}

	return &SpendingAdviceResult{
		Advice:         advice,
		ActionableTips: tips,
		TopCategories:  topMap,
		Model:          e.llm.DefaultModel(),
	}, nil
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
