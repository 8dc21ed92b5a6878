package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount 金额字段无法解析为数字
var ErrInvalidAmount = errors.New("invalid amount")

// Goal / IncomeSource / Transaction 都是外部系统给的原始 JSON 对象，
// 这里只按需读取字段，不做结构校验。
type (
	Goal         map[string]any
	IncomeSource map[string]any
	Transaction  map[string]any
)

// FinancialData 一次分析所需的全部输入
type FinancialData struct {
	Goals        []Goal
	Income       []IncomeSource
	Transactions []Transaction
}

func (i IncomeSource) Amount() (decimal.Decimal, error) {
	return decimalField(i, "amount")
}

// Frequency 小写后的收入频率，缺失时为空串
func (i IncomeSource) Frequency() string {
	s, _ := i["frequency"].(string)
	return strings.ToLower(s)
}

func (t Transaction) Amount() (decimal.Decimal, error) {
	return decimalField(t, "amount")
}

// IsExpense 缺省视为支出；存在时按 JSON 真值判断
func (t Transaction) IsExpense() bool {
	v, ok := t["isExpense"]
	if !ok {
		return true
	}
	return truthy(v)
}

// Category personalFinanceCategory.primary，缺失时归入 OTHER
func (t Transaction) Category() string {
	pfc, ok := t["personalFinanceCategory"].(map[string]any)
	if !ok {
		return "OTHER"
	}
	if primary, ok := pfc["primary"].(string); ok && primary != "" {
		return primary
	}
	return "OTHER"
}

func (g Goal) CurrentAmount() (decimal.Decimal, error) {
	return decimalField(g, "current_amount")
}

func (g Goal) MonthlyContribution() (decimal.Decimal, error) {
	return decimalField(g, "monthly_contribution")
}

// decimalField 字段缺失返回 0；数字或数字字符串都接受
func decimalField(obj map[string]any, key string) (decimal.Decimal, error) {
	v, ok := obj[key]
	if !ok {
		return decimal.Zero, nil
	}
	switch x := v.(type) {
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %s=%q", ErrInvalidAmount, key, x.String())
		}
		return d, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %s=%q", ErrInvalidAmount, key, x)
		}
		return d, nil
	case bool:
		if x {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %s has type %T", ErrInvalidAmount, key, v)
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}
