package api

import (
	"github.com/gin-gonic/gin"
	"github.com/kiyon21/Finsight-AI/internal/api/controller"
	"github.com/kiyon21/Finsight-AI/internal/api/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes 注册所有路由。gatherer 为 nil 时不暴露 /metrics。
func RegisterRoutes(r *gin.Engine, insightCtrl *controller.InsightController, gatherer prometheus.Gatherer) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// API 组，路径保留末尾斜杠
	ai := r.Group("/api/ai")
	ai.Use(middleware.BearerToken())
	{
		ai.POST("/insights/", insightCtrl.Insights)
		ai.POST("/account-insights/", insightCtrl.AccountInsights)
		ai.POST("/quick-insight/", insightCtrl.QuickInsight)
		ai.GET("/history/:user_id/", insightCtrl.History)
		ai.GET("/analysis/:id/", insightCtrl.Detail)
	}
}
