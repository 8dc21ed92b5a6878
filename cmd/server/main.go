package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kiyon21/Finsight-AI/internal/api"
	"github.com/kiyon21/Finsight-AI/internal/api/controller"
	"github.com/kiyon21/Finsight-AI/internal/api/middleware"
	"github.com/kiyon21/Finsight-AI/internal/config"
	"github.com/kiyon21/Finsight-AI/internal/infrastructure/accountdata"
	"github.com/kiyon21/Finsight-AI/internal/infrastructure/database"
	"github.com/kiyon21/Finsight-AI/internal/infrastructure/llm"
	"github.com/kiyon21/Finsight-AI/internal/logger"
	"github.com/kiyon21/Finsight-AI/internal/metrics"
	"github.com/kiyon21/Finsight-AI/internal/repository"
	"github.com/kiyon21/Finsight-AI/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	gormlogger "gorm.io/gorm/logger"
)

// @title           Finsight AI API
// @version         1.0
// @description     基于 Go + Gin 的个人理财 AI 分析服务
// @BasePath        /api/ai

func main() {
	conf, err := config.Load()
	if err != nil {
		// logger 依赖配置，这里只能用默认 logger
		l := logger.New("info", "console")
		l.Fatal().Err(err).Msg("无法加载配置")
	}

	// 1. 初始化 Logger
	log := logger.New(conf.Log.Level, conf.Log.Format)
	log.Info().Str("model", conf.LLM.Model).Msg("Finsight AI 服务启动中...")

	if conf.Server.Mode != "" {
		gin.SetMode(conf.Server.Mode)
	}

	// 2. Infra Initialization
	gormLevel := gormlogger.Warn
	if gin.Mode() == gin.ReleaseMode {
		gormLevel = gormlogger.Error
	}
	db, err := database.Open(conf.Database, gormLevel)
	if err != nil {
		log.Fatal().Err(err).Str("driver", conf.Database.Driver).Msg("数据库初始化失败")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	llmClient := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  conf.LLM.APIKey,
		BaseURL: conf.LLM.BaseURL,
		Model:   conf.LLM.Model,
		Timeout: conf.LLM.Timeout,
	}, log, m)
	fetcher := accountdata.NewClient(accountdata.Config{
		BaseURL: conf.AccountAPI.BaseURL,
		Timeout: conf.AccountAPI.Timeout,
	}, log, m)

	// 3. Layer Wiring (依赖注入)
	repo := repository.NewAnalysisRepo(db)
	engine := service.NewInsightEngine(llmClient)
	svc := service.NewAnalysisService(engine, repo, fetcher, m, log)
	insightController := controller.NewInsightController(svc, log)

	// 4. Server Start
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log), middleware.Cors())
	api.RegisterRoutes(r, insightController, prometheus.DefaultGatherer)

	srv := &http.Server{
		Addr:              conf.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", conf.Server.Port).Msg("Finsight Web Server 启动中")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("服务器启动失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("服务关闭超时")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("服务已退出")
}
