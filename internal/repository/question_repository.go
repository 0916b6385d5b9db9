package repository

import (
	"github.com/examhall/examhall/internal/dto"
	"github.com/examhall/examhall/internal/model"
	"gorm.io/gorm"
)

type QuestionRepository interface {
	Create(question *model.Question) error
	FindByID(id string) (*model.Question, error)
	FindByIDs(ids []string) ([]model.Question, error)
	Search(filter dto.QuestionFilter) ([]model.Question, error)
	Delete(id string) error
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(question *model.Question) error {
	return r.db.Create(question).Error
}

func (r *questionRepository) FindByID(id string) (*model.Question, error) {
	var question model.Question
	if err := r.db.Where("id = ?", id).First(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepository) FindByIDs(ids []string) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.Where("id IN ?", ids).Find(&questions).Error
	return questions, err
}

func (r *questionRepository) Search(filter dto.QuestionFilter) ([]model.Question, error) {
	query := r.db.Model(&model.Question{})
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title LIKE ? OR complexity LIKE ?", pattern, pattern)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Complexity != "" {
		query = query.Where("complexity = ?", filter.Complexity)
	}
	if filter.Tag != "" {
		// Tags are stored as a JSON array; match the quoted label inside it.
		query = query.Where("tags LIKE ?", `%"`+filter.Tag+`"%`)
	}
	var questions []model.Question
	err := query.Order("created_at DESC").Find(&questions).Error
	return questions, err
}

// Delete removes the question together with its exam links, submitted
// answers and evaluations of those answers.
func (r *questionRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM evaluations WHERE answer_id IN (SELECT id FROM answers WHERE question_id = ?)", id,
		).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM exam_questions WHERE question_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.Question{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
