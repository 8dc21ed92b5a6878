package service

import (
	"sort"

	"github.com/kiyon21/Finsight-AI/internal/model"
	"github.com/shopspring/decimal"
)

// recurringFrequencies 预算建议只统计这些频率的收入
var recurringFrequencies = map[string]bool{
	"monthly":   true,
	"weekly":    true,
	"bi-weekly": true,
}

// CategoryTotal 单个分类的支出合计
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
}

// Totals 收支汇总
type Totals struct {
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
}

func (t Totals) NetIncome() decimal.Decimal {
	return t.TotalIncome.Sub(t.TotalExpenses)
}

// ComputeTotals 总收入为全部收入之和；总支出只统计 isExpense 为真（或缺省）的交易
func ComputeTotals(data model.FinancialData) (Totals, error) {
	income, err := SumIncome(data.Income)
	if err != nil {
		return Totals{}, err
	}
	expenses, _, err := SumExpenses(data.Transactions)
	if err != nil {
		return Totals{}, err
	}
	return Totals{TotalIncome: income, TotalExpenses: expenses}, nil
}

func SumIncome(income []model.IncomeSource) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, inc := range income {
		amt, err := inc.Amount()
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amt)
	}
	return total, nil
}

// SumRecurringIncome 只统计 monthly / weekly / bi-weekly 的收入
func SumRecurringIncome(income []model.IncomeSource) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, inc := range income {
		if !recurringFrequencies[inc.Frequency()] {
			continue
		}
		amt, err := inc.Amount()
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amt)
	}
	return total, nil
}

// SumExpenses 返回支出总额和支出笔数
func SumExpenses(txs []model.Transaction) (decimal.Decimal, int, error) {
	total := decimal.Zero
	count := 0
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		amt, err := tx.Amount()
		if err != nil {
			return decimal.Zero, 0, err
		}
		total = total.Add(amt)
		count++
	}
	return total, count, nil
}

// AverageExpense 支出均值，笔数下限为 1 以避免除零
func AverageExpense(txs []model.Transaction) (decimal.Decimal, error) {
	total, count, err := SumExpenses(txs)
	if err != nil {
		return decimal.Zero, err
	}
	if count < 1 {
		count = 1
	}
	return total.Div(decimal.NewFromInt(int64(count))), nil
}

// SpendingByCategory 按 personalFinanceCategory.primary 汇总支出
func SpendingByCategory(txs []model.Transaction) (map[string]decimal.Decimal, error) {
	byCategory := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		amt, err := tx.Amount()
		if err != nil {
			return nil, err
		}
		cat := tx.Category()
		byCategory[cat] = byCategory[cat].Add(amt)
	}
	return byCategory, nil
}

// TopCategories 按金额降序取前 n 个，金额相同按分类名排序保证结果稳定
func TopCategories(byCategory map[string]decimal.Decimal, n int) []CategoryTotal {
	ranked := make([]CategoryTotal, 0, len(byCategory))
	for cat, amt := range byCategory {
		ranked = append(ranked, CategoryTotal{Category: cat, Amount: amt})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if c := ranked[i].Amount.Cmp(ranked[j].Amount); c != 0 {
			return c > 0
		}
		return ranked[i].Category < ranked[j].Category
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func SumCurrentSavings(goals []model.Goal) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, g := range goals {
		amt, err := g.CurrentAmount()
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amt)
	}
	return total, nil
}

func SumMonthlyContributions(goals []model.Goal) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, g := range goals {
		amt, err := g.MonthlyContribution()
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amt)
	}
	return total, nil
}

func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func toFloatMap(m map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = toFloat(v)
	}
	return out
}
