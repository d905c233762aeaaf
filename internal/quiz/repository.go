// backend/internal/quiz/repository.go
package quiz

import (
	"log"

	"elephant-quiz/internal/models"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SeedQuestions stores the bank only when the questions table is empty.
func (r *Repository) SeedQuestions(questions []models.Question) (int, error) {
	count, err := r.CountQuestions()
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Printf("Question bank already holds %d questions, skipping seed", count)
		return 0, nil
	}
	if err := r.db.Create(&questions).Error; err != nil {
		log.Printf("Error seeding questions: %v", err)
		return 0, err
	}
	log.Printf("Seeded %d questions", len(questions))
	return len(questions), nil
}

func (r *Repository) CountQuestions() (int64, error) {
	var count int64
	err := r.db.Model(&models.Question{}).Count(&count).Error
	return count, err
}

func (r *Repository) GetQuestions() ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.Order("id asc").Find(&questions).Error; err != nil {
		log.Printf("Error getting questions: %v", err)
		return nil, err
	}
	log.Printf("Found %d questions", len(questions))
	return questions, nil
}

// GetQuestionsByIDs returns the questions in the order of ids. Unknown ids are skipped.
func (r *Repository) GetQuestionsByIDs(ids []uint) ([]models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []models.Question
	if err := r.db.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	ordered := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

func (r *Repository) SaveRecord(record *models.PlayRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		log.Printf("Error saving play record for session %s: %v", record.SessionID, err)
		return err
	}
	log.Printf("Saved play record %d for session %s", record.ID, record.SessionID)
	return nil
}

func (r *Repository) GetRecordsByUser(userID uint, limit int) ([]models.PlayRecord, error) {
	var records []models.PlayRecord
	err := r.db.Where("user_id = ?", userID).
		Order("finished_at desc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		log.Printf("Error getting play records for user %d: %v", userID, err)
		return nil, err
	}
	return records, nil
}

func (r *Repository) GetRecord(id uint) (*models.PlayRecord, error) {
	var record models.PlayRecord
	if err := r.db.First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// GetBestScores is the leaderboard computed from play records, used when the
// redis leaderboard is unavailable.
func (r *Repository) GetBestScores(limit int) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	err := r.db.Model(&models.PlayRecord{}).
		Select("username, MAX(score) AS score").
		Group("username").
		Order("score desc").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		log.Printf("Error getting best scores: %v", err)
		return nil, err
	}
	return entries, nil
}
