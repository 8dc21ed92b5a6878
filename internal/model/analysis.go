package model

import (
	"time"

	"gorm.io/datatypes"
)

// AnalysisRecord 每次分析调用落库一条，创建后不再修改
type AnalysisRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID       string `gorm:"type:varchar(255);not null;index;index:idx_user_analysis_type,priority:1" json:"user_id"`
	AnalysisType string `gorm:"type:varchar(100);not null;index:idx_user_analysis_type,priority:2" json:"analysis_type"`

	// 输入快照: goals / income / transactions_count / additional_context
	InputData datatypes.JSON `json:"input_data"`
	// 引擎输出的结构化结果
	Result datatypes.JSON `json:"result"`

	ModelUsed *string `gorm:"type:varchar(255)" json:"model_used"`
}

// TableName 强制指定表名
func (AnalysisRecord) TableName() string {
	return "ai_analyses"
}
