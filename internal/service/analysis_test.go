package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kiyon21/Finsight-AI/internal/infrastructure/accountdata"
	"github.com/kiyon21/Finsight-AI/internal/metrics"
	"github.com/kiyon21/Finsight-AI/internal/model"
	"github.com/kiyon21/Finsight-AI/internal/repository"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

// mockAnalysisRepo 内存实现，CreateFunc 可用来注入错误
type mockAnalysisRepo struct {
	CreateFunc func(ctx context.Context, record *model.AnalysisRecord) error
	records    []*model.AnalysisRecord
	listCalls  int
}

func (m *mockAnalysisRepo) Create(ctx context.Context, record *model.AnalysisRecord) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, record); err != nil {
			return err
		}
	}
	record.ID = uint(len(m.records) + 1)
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	m.records = append(m.records, record)
	return nil
}

func (m *mockAnalysisRepo) GetByID(ctx context.Context, id uint) (*model.AnalysisRecord, error) {
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, repository.ErrAnalysisNotFound
}

func (m *mockAnalysisRepo) ListByUser(ctx context.Context, filter repository.HistoryFilter) ([]model.AnalysisRecord, error) {
	m.listCalls++
	out := []model.AnalysisRecord{}
	for i := len(m.records) - 1; i >= 0 && len(out) < filter.Limit; i-- {
		if m.records[i].UserID == filter.UserID {
			out = append(out, *m.records[i])
		}
	}
	return out, nil
}

// mockFetcher 记录收到的 token，返回固定数据
type mockFetcher struct {
	data      model.FinancialData
	gotUserID string
	gotToken  string
}

func (f *mockFetcher) Goals(ctx context.Context, userID, token string) []model.Goal {
	return f.data.Goals
}

func (f *mockFetcher) Income(ctx context.Context, userID, token string) []model.IncomeSource {
	return f.data.Income
}

func (f *mockFetcher) Transactions(ctx context.Context, userID, token string, q accountdata.TransactionQuery) []model.Transaction {
	return f.data.Transactions
}

func (f *mockFetcher) UserData(ctx context.Context, userID, token string) model.FinancialData {
	f.gotUserID, f.gotToken = userID, token
	return f.data
}

func newTestService(provider *mockProvider, repo *mockAnalysisRepo, fetcher accountdata.Fetcher) (*AnalysisService, *metrics.Metrics) {
	m := metrics.Nop()
	return NewAnalysisService(NewInsightEngine(provider), repo, fetcher, m, zerolog.Nop()), m
}

func TestGenerateInsight_PersistsRecord(t *testing.T) {
	repo := &mockAnalysisRepo{}
	svc, m := newTestService(replyWith("1. Spend less"), repo, &mockFetcher{})

	outcome, err := svc.GenerateInsight(context.Background(), InsightRequest{
		UserID:            "user-1",
		AnalysisType:      model.SpendingAnalysis,
		Data:              sampleData(),
		AdditionalContext: map[string]any{"note": "saving for a car"},
	})
	if err != nil {
		t.Fatalf("GenerateInsight() failed: %v", err)
	}
	if len(repo.records) != 1 {
		t.Fatalf("records = %d, want 1", len(repo.records))
	}

	rec := outcome.Record
	if rec.UserID != "user-1" || rec.AnalysisType != "spending_analysis" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.ModelUsed == nil || *rec.ModelUsed != testModel {
		t.Errorf("ModelUsed = %v", rec.ModelUsed)
	}

	var input map[string]any
	if err := json.Unmarshal(rec.InputData, &input); err != nil {
		t.Fatal(err)
	}
	if input["transactions_count"] != float64(3) {
		t.Errorf("transactions_count = %v", input["transactions_count"])
	}
	if _, ok := input["transactions"]; ok {
		t.Error("raw transactions should not be stored")
	}
	if ctxMap, _ := input["additional_context"].(map[string]any); ctxMap["note"] != "saving for a car" {
		t.Errorf("additional_context = %v", input["additional_context"])
	}

	var result map[string]any
	if err := json.Unmarshal(rec.Result, &result); err != nil {
		t.Fatal(err)
	}
	if result["analysis"] != "1. Spend less" || result["model_used"] != testModel {
		t.Errorf("result = %v", result)
	}
	if got := testutil.ToFloat64(m.AnalysesStored.WithLabelValues("spending_analysis")); got != 1 {
		t.Errorf("analyses stored = %v, want 1", got)
	}
}

func TestGenerateInsight_DefaultsAdditionalContext(t *testing.T) {
	repo := &mockAnalysisRepo{}
	svc, _ := newTestService(&mockProvider{}, repo, &mockFetcher{})

	outcome, err := svc.GenerateInsight(context.Background(), InsightRequest{
		UserID:       "user-1",
		AnalysisType: model.BudgetSuggestion,
	})
	if err != nil {
		t.Fatal(err)
	}
	var input map[string]any
	if err := json.Unmarshal(outcome.Record.InputData, &input); err != nil {
		t.Fatal(err)
	}
	if ctxMap, ok := input["additional_context"].(map[string]any); !ok || len(ctxMap) != 0 {
		t.Errorf("additional_context = %#v, want {}", input["additional_context"])
	}
	if goals, ok := input["goals"].([]any); !ok || len(goals) != 0 {
		t.Errorf("goals = %#v, want []", input["goals"])
	}
}

func TestGenerateInsight_AuthFailureStillPersists(t *testing.T) {
	repo := &mockAnalysisRepo{}
	svc, _ := newTestService(&mockProvider{}, repo, &mockFetcher{})

	outcome, err := svc.GenerateInsight(context.Background(), InsightRequest{
		UserID:       "user-1",
		AnalysisType: model.GoalRecommendation,
		Data:         sampleData(),
	})
	if err != nil {
		t.Fatalf("GenerateInsight() failed: %v", err)
	}
	recs := PrimaryRecommendations(outcome.Result)
	if len(recs) != 3 || recs[0] != defaultGoalRecommendations[0] {
		t.Errorf("recommendations = %q", recs)
	}
	if *outcome.Record.ModelUsed != testModel {
		t.Errorf("ModelUsed = %q", *outcome.Record.ModelUsed)
	}
}

func TestGenerateInsight_RejectsQuickInsightType(t *testing.T) {
	repo := &mockAnalysisRepo{}
	svc, _ := newTestService(&mockProvider{}, repo, &mockFetcher{})

	_, err := svc.GenerateInsight(context.Background(), InsightRequest{UserID: "u", AnalysisType: model.QuickInsight})
	if !errors.Is(err, ErrUnknownAnalysisType) {
		t.Errorf("error = %v, want ErrUnknownAnalysisType", err)
	}
	if len(repo.records) != 0 {
		t.Error("nothing should be persisted")
	}
}

func TestGenerateInsight_EngineErrorPersistsNothing(t *testing.T) {
	repo := &mockAnalysisRepo{}
	svc, _ := newTestService(&mockProvider{}, repo, &mockFetcher{})

	_, err := svc.GenerateInsight(context.Background(), InsightRequest{
		UserID:       "user-1",
		AnalysisType: model.SpendingAnalysis,
		Data:         model.FinancialData{Transactions: []model.Transaction{{"amount": "n/a"}}},
	})
	if !errors.Is(err, model.ErrInvalidAmount) {
		t.Errorf("error = %v, want ErrInvalidAmount", err)
	}
	if len(repo.records) != 0 {
		t.Error("nothing should be persisted")
	}
}

func TestGenerateInsight_SaveError(t *testing.T) {
	dbErr := errors.New("disk full")
	repo := &mockAnalysisRepo{CreateFunc: func(context.Context, *model.AnalysisRecord) error { return dbErr }}
	svc, _ := newTestService(&mockProvider{}, repo, &mockFetcher{})

	_, err := svc.GenerateInsight(context.Background(), InsightRequest{UserID: "u", AnalysisType: model.SavingsAdvice})
	if !errors.Is(err, dbErr) {
		t.Errorf("error = %v, want wrapped disk full", err)
	}
}

func TestAccountInsight_UsesFetcher(t *testing.T) {
	fetcher := &mockFetcher{data: sampleData()}
	repo := &mockAnalysisRepo{}
	svc, _ := newTestService(&mockProvider{}, repo, fetcher)

	outcome, err := svc.AccountInsight(context.Background(), "user-9", "firebase-token", model.SpendingPattern, nil)
	if err != nil {
		t.Fatalf("AccountInsight() failed: %v", err)
	}
	if fetcher.gotUserID != "user-9" || fetcher.gotToken != "firebase-token" {
		t.Errorf("fetcher got user=%q token=%q", fetcher.gotUserID, fetcher.gotToken)
	}
	sp, ok := outcome.Result.(*SpendingPatternResult)
	if !ok {
		t.Fatalf("result type = %T", outcome.Result)
	}
	if sp.TotalIncome != 5000 || sp.Type() != model.SpendingPattern {
		t.Errorf("unexpected result: %+v", sp)
	}
	if outcome.Record.AnalysisType != "spending_pattern" {
		t.Errorf("AnalysisType = %q", outcome.Record.AnalysisType)
	}
}

func TestQuickInsight_EmptyData(t *testing.T) {
	repo := &mockAnalysisRepo{}
	svc, m := newTestService(&mockProvider{}, repo, &mockFetcher{})

	outcome, err := svc.QuickInsight(context.Background(), "user-1", model.FinancialData{})
	if err != nil {
		t.Fatalf("QuickInsight() failed: %v", err)
	}
	s := outcome.Insight.Summary
	if s.TotalIncome != 0 || s.TotalExpenses != 0 || s.NetIncome != 0 || s.GoalsCount != 0 || s.TransactionsCount != 0 {
		t.Errorf("summary = %+v, want zeros", s)
	}
	if outcome.Insight.AIInsights != fallbackAnalysis {
		t.Errorf("AIInsights = %q", outcome.Insight.AIInsights)
	}
	if len(outcome.Insight.Recommendations) != 3 {
		t.Errorf("recommendations = %q", outcome.Insight.Recommendations)
	}
	if len(repo.records) != 1 || repo.records[0].AnalysisType != "quick_insight" {
		t.Fatalf("expected one quick_insight record, got %+v", repo.records)
	}
	if got := testutil.ToFloat64(m.AnalysesStored.WithLabelValues("quick_insight")); got != 1 {
		t.Errorf("analyses stored = %v, want 1", got)
	}
}

func TestQuickInsight_Totals(t *testing.T) {
	repo := &mockAnalysisRepo{}
	svc, _ := newTestService(replyWith("Looks healthy.\n1. Keep going"), repo, &mockFetcher{})

	outcome, err := svc.QuickInsight(context.Background(), "user-1", sampleData())
	if err != nil {
		t.Fatal(err)
	}
	s := outcome.Insight.Summary
	if s.TotalIncome != 5000 || s.TotalExpenses != 1500 || s.NetIncome != 3500 || s.GoalsCount != 1 || s.TransactionsCount != 3 {
		t.Errorf("summary = %+v", s)
	}
	if outcome.Insight.SpendingByCategory["FOOD_AND_DRINK"] != 300 {
		t.Errorf("spending_by_category = %v", outcome.Insight.SpendingByCategory)
	}
	if outcome.Insight.Recommendations[0] != "1. Keep going" {
		t.Errorf("recommendations = %q", outcome.Insight.Recommendations)
	}

	var stored QuickInsightResult
	if err := json.Unmarshal(repo.records[0].Result, &stored); err != nil {
		t.Fatal(err)
	}
	if stored.AIInsights != "Looks healthy.\n1. Keep going" {
		t.Errorf("stored ai_insights = %q", stored.AIInsights)
	}
}

func TestHistory_ZeroLimit(t *testing.T) {
	repo := &mockAnalysisRepo{}
	svc, _ := newTestService(&mockProvider{}, repo, &mockFetcher{})

	records, err := svc.History(context.Background(), repository.HistoryFilter{UserID: "user-1", Limit: 0})
	if err != nil {
		t.Fatal(err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("records = %#v, want empty", records)
	}
	if repo.listCalls != 0 {
		t.Error("repository should not be queried for limit 0")
	}
}

func TestDetail(t *testing.T) {
	repo := &mockAnalysisRepo{}
	svc, _ := newTestService(&mockProvider{}, repo, &mockFetcher{})

	outcome, err := svc.QuickInsight(context.Background(), "user-1", model.FinancialData{})
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.Detail(context.Background(), outcome.Record.ID)
	if err != nil || got.ID != outcome.Record.ID {
		t.Errorf("Detail() = %+v, %v", got, err)
	}
	if _, err := svc.Detail(context.Background(), 42); !errors.Is(err, repository.ErrAnalysisNotFound) {
		t.Errorf("Detail(42) error = %v", err)
	}
}
