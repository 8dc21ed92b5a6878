package accountdata

import (
	"context"

	"github.com/kiyon21/Finsight-AI/internal/model"
)

// TransactionQuery 交易列表的可选过滤条件，零值表示不传
type TransactionQuery struct {
	Limit     int
	StartDate string
	EndDate   string
}

// Fetcher 从主业务 API 拉取用户的财务数据。
// 所有方法都不会返回错误：任何失败都退化为空列表。
type Fetcher interface {
	Goals(ctx context.Context, userID, token string) []model.Goal
	Income(ctx context.Context, userID, token string) []model.IncomeSource
	Transactions(ctx context.Context, userID, token string, q TransactionQuery) []model.Transaction
	UserData(ctx context.Context, userID, token string) model.FinancialData
}
