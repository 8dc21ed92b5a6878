package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kiyon21/Finsight-AI/internal/config"
	"github.com/kiyon21/Finsight-AI/internal/infrastructure/llm"
	"github.com/kiyon21/Finsight-AI/internal/logger"
	"github.com/kiyon21/Finsight-AI/internal/metrics"
	"github.com/kiyon21/Finsight-AI/internal/model"
	"github.com/kiyon21/Finsight-AI/internal/service"
)

// probe 用样例数据调一次真实模型，检查 token、路由地址和模型名是否可用
func main() {
	analysisType := flag.String("type", string(model.SpendingAnalysis), "analysis type to run")
	flag.Parse()

	conf, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法加载配置: %v\n", err)
		os.Exit(1)
	}
	log := logger.New("debug", "console")
	if conf.LLM.APIKey == "" {
		log.Fatal().Msg("请设置环境变量 HF_TOKEN 或 FINSIGHT_LLM_API_KEY")
	}

	client := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  conf.LLM.APIKey,
		BaseURL: conf.LLM.BaseURL,
		Model:   conf.LLM.Model,
		Timeout: conf.LLM.Timeout,
	}, log, metrics.Nop())

	// 1. 直接调一次模型
	ctx := context.Background()
	start := time.Now()
	text, ok := client.Generate(ctx, llm.GenerateRequest{Prompt: "Give one short tip for saving money."})
	fmt.Printf("-------- 直接调用 (耗时 %v, ok=%v) --------\n%s\n", time.Since(start), ok, text)

	// 2. 用样例数据跑一遍完整分析
	engine := service.NewInsightEngine(client)
	result, err := engine.Run(ctx, model.AnalysisType(*analysisType), sampleData())
	if err != nil {
		log.Fatal().Err(err).Msg("分析失败")
	}
	fmt.Printf("\n-------- 分析: %s --------\n", result.Type())
	for i, rec := range service.PrimaryRecommendations(result) {
		fmt.Printf("%d. %s\n", i+1, rec)
	}
}

func sampleData() model.FinancialData {
	return model.FinancialData{
		Goals: []model.Goal{
			{"name": "Emergency fund", "target_amount": 6000, "current_amount": 1500, "monthly_contribution": 250},
		},
		Income: []model.IncomeSource{
			{"source": "Salary", "amount": 4200, "frequency": "monthly"},
		},
		Transactions: []model.Transaction{
			{"amount": 62.5, "isExpense": true, "personalFinanceCategory": map[string]any{"primary": "FOOD_AND_DRINK"}},
			{"amount": 1400, "isExpense": true, "personalFinanceCategory": map[string]any{"primary": "RENT_AND_UTILITIES"}},
			{"amount": 38, "isExpense": true, "personalFinanceCategory": map[string]any{"primary": "TRANSPORTATION"}},
		},
	}
}
