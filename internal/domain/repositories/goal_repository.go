package repositories

import (
	"time"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GoalRepository interface {
	Create(goal *entities.Goal) error
	// ListByUser ordena incompletas primeiro, depois por prazo.
	ListByUser(userID string) ([]entities.Goal, error)
	ListActive(userID string) ([]entities.Goal, error)
	Save(goal *entities.Goal) error
	// Update aplica campos parciais escopados pelo tenant; retorna o
	// número de linhas afetadas (0 = meta de outro tenant ou inexistente).
	Update(id, userID string, fields map[string]interface{}) (int64, error)
	Delete(id, userID string) (int64, error)
}

type goalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) GoalRepository {
	return &goalRepository{db}
}

func (r *goalRepository) Create(goal *entities.Goal) error {
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = time.Now()
	}
	goal.IsActive = true
	return r.db.Create(goal).Error
}

func (r *goalRepository) ListByUser(userID string) ([]entities.Goal, error) {
	var goals []entities.Goal
	err := r.db.
		Where("user_id = ?", userID).
		Order("is_completed asc, end_date asc").
		Find(&goals).Error
	return goals, err
}

func (r *goalRepository) ListActive(userID string) ([]entities.Goal, error) {
	var goals []entities.Goal
	err := r.db.
		Where("user_id = ? AND is_active = ? AND is_completed = ?", userID, true, false).
		Find(&goals).Error
	return goals, err
}

func (r *goalRepository) Save(goal *entities.Goal) error {
	return r.db.Save(goal).Error
}

func (r *goalRepository) Update(id, userID string, fields map[string]interface{}) (int64, error) {
	result := r.db.Model(&entities.Goal{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *goalRepository) Delete(id, userID string) (int64, error) {
	result := r.db.
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&entities.Goal{})
	return result.RowsAffected, result.Error
}
