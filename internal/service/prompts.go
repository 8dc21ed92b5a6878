package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kiyon21/Finsight-AI/internal/model"
)

const spendingPatternPrompt = `Here's a user's financial summary:

Monthly Income: $%.2f
Monthly Expenses: $%.2f
Net Income: $%.2f

Spending breakdown by category:
%s

Financial goals:
%s

Please analyze this financial situation and provide:
1. Key insights about their spending patterns
2. Specific areas where they could reduce expenses
3. How their current spending aligns with their goals
4. Practical recommendations to improve their financial health

Write a clear, helpful analysis:`

const goalRecommendationPrompt = `A user has the following financial situation:

Monthly Income: $%.2f
Current Savings: $%.2f
Number of existing goals: %d

Please suggest 3-5 specific financial goals that would be appropriate for this person. For each goal, include:
- The goal name
- Target amount
- Recommended timeline
- Monthly contribution needed
- Priority level (high/medium/low)

Provide practical, achievable recommendations:`

const budgetSuggestionPrompt = `Create a monthly budget plan for someone with:

Monthly Income: $%.2f
Average Monthly Expenses: $%.2f
Monthly Goal Contributions: $%.2f

Please provide a detailed budget breakdown that includes:
1. Essential expenses (should be 50-60%% of income)
2. Savings and goal contributions (should be 20-30%% of income)
3. Discretionary spending (should be 10-20%% of income)
4. Specific allocations for different spending categories
5. Practical tips for staying within this budget

Write a clear, actionable budget plan:`

const spendingAdvicePrompt = `A user's top spending categories are:
%s

Their financial goals are:
%s

Please provide personalized spending advice that includes:
1. Analysis of their current spending habits
2. Specific areas where they could reduce expenses
3. Actionable tips to cut costs in their top spending categories
4. How to better align their spending with their financial goals

Provide practical, helpful advice:`

func buildSpendingPatternPrompt(income, expenses, net float64, byCategory map[string]float64, goals []model.Goal) string {
	return fmt.Sprintf(spendingPatternPrompt, income, expenses, net, indentJSON(byCategory), indentJSON(nonNilGoals(goals)))
}

func buildGoalRecommendationPrompt(income, savings float64, goalCount int) string {
	return fmt.Sprintf(goalRecommendationPrompt, income, savings, goalCount)
}

func buildBudgetSuggestionPrompt(income, avgExpenses, contributions float64) string {
	return fmt.Sprintf(budgetSuggestionPrompt, income, avgExpenses, contributions)
}

func buildSpendingAdvicePrompt(top []CategoryTotal, goals []model.Goal) string {
	return fmt.Sprintf(spendingAdvicePrompt, rankedJSON(top), indentJSON(nonNilGoals(goals)))
}

// indentJSON 两格缩进，序列化失败时退回 %v
func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// rankedJSON 按排名顺序输出分类对象，map 序列化会按 key 排序丢掉排名
func rankedJSON(top []CategoryTotal) string {
	if len(top) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, ct := range top {
		key, _ := json.Marshal(ct.Category)
		fmt.Fprintf(&buf, "  %s: %s", key, ct.Amount.String())
		if i < len(top)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}")
	return buf.String()
}

func nonNilGoals(goals []model.Goal) []model.Goal {
	if goals == nil {
		return []model.Goal{}
	}
	return goals
}
