package model

// AnalysisType 分析类型
type AnalysisType string

const (
	SpendingAnalysis   AnalysisType = "spending_analysis"
	GoalRecommendation AnalysisType = "goal_recommendation"
	BudgetSuggestion   AnalysisType = "budget_suggestion"
	SavingsAdvice      AnalysisType = "savings_advice"
	SpendingPattern    AnalysisType = "spending_pattern"

	// QuickInsight 只由 quick-insight 接口写入，不能通过 /insights/ 请求
	QuickInsight AnalysisType = "quick_insight"
)

// RequestableTypes 可以在 /insights/ 中请求的分析类型
var RequestableTypes = []AnalysisType{
	SpendingAnalysis,
	GoalRecommendation,
	BudgetSuggestion,
	SavingsAdvice,
	SpendingPattern,
}

func (t AnalysisType) Valid() bool {
	for _, rt := range RequestableTypes {
		if t == rt {
			return true
		}
	}
	return false
}

func (t AnalysisType) String() string {
	return string(t)
}
