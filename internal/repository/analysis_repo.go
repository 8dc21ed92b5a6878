package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kiyon21/Finsight-AI/internal/model"
	"gorm.io/gorm"
)

// ErrAnalysisNotFound 按 ID 查询不到记录
var ErrAnalysisNotFound = errors.New("analysis not found")

// DefaultHistoryLimit 历史查询未指定 limit 时的条数
const DefaultHistoryLimit = 10

// HistoryFilter 历史查询条件，AnalysisType 为空表示不过滤
type HistoryFilter struct {
	UserID       string
	AnalysisType string
	Limit        int
}

// AnalysisRepo 定义接口 (为了以后方便 Mock)
type AnalysisRepo interface {
	Create(ctx context.Context, record *model.AnalysisRecord) error
	GetByID(ctx context.Context, id uint) (*model.AnalysisRecord, error)
	ListByUser(ctx context.Context, filter HistoryFilter) ([]model.AnalysisRecord, error)
}

type analysisRepo struct {
	db *gorm.DB
}

func NewAnalysisRepo(db *gorm.DB) AnalysisRepo {
	return &analysisRepo{db: db}
}

// Create 插入一条记录，CreatedAt/UpdatedAt 由 gorm 填充
func (r *analysisRepo) Create(ctx context.Context, record *model.AnalysisRecord) error {
	// WithContext 确保请求超时能传递到数据库层
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *analysisRepo) GetByID(ctx context.Context, id uint) (*model.AnalysisRecord, error) {
	var record model.AnalysisRecord
	err := r.db.WithContext(ctx).First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id=%d", ErrAnalysisNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByUser 按创建时间倒序返回，Limit <= 0 时使用默认值
func (r *analysisRepo) ListByUser(ctx context.Context, filter HistoryFilter) ([]model.AnalysisRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := r.db.WithContext(ctx).Model(&model.AnalysisRecord{}).Where("user_id = ?", filter.UserID)
	if filter.AnalysisType != "" {
		query = query.Where("analysis_type = ?", filter.AnalysisType)
	}

	records := make([]model.AnalysisRecord, 0)
	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
