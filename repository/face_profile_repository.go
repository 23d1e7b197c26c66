package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/attendsysbackend/models"
	"gorm.io/gorm"
)

// FaceProfileRepository handles database operations for FaceProfile entities
type FaceProfileRepository struct {
	DB *gorm.DB
}

// Ensure FaceProfileRepository implements FaceProfileRepositoryInterface
var _ FaceProfileRepositoryInterface = (*FaceProfileRepository)(nil)

// NewFaceProfileRepository creates a new instance of FaceProfileRepository
func NewFaceProfileRepository(db *gorm.DB) *FaceProfileRepository {
	return &FaceProfileRepository{DB: db}
}

// GetByUserID retrieves the face profile for a user
func (r *FaceProfileRepository) GetByUserID(userID uint) (*models.FaceProfile, error) {
	var profile models.FaceProfile
	err := r.DB.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get face profile for user %d: %w", userID, err)
	}
	return &profile, nil
}

// AppendDescriptors adds one registration batch to the user's face profile,
// creating the profile if it does not exist yet.
func (r *FaceProfileRepository) AppendDescriptors(userID uint, batch [][]float64) (*models.FaceProfile, error) {
	var profile models.FaceProfile
	now := time.Now().Unix()

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = models.FaceProfile{UserID: userID, CreatedAt: now}
		} else if err != nil {
			return fmt.Errorf("failed to load face profile for user %d: %w", userID, err)
		}

		if err := profile.AppendBatch(batch); err != nil {
			return fmt.Errorf("failed to append descriptor batch for user %d: %w", userID, err)
		}
		profile.UpdatedAt = now

		if err := tx.Save(&profile).Error; err != nil {
			return fmt.Errorf("failed to save face profile for user %d: %w", userID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// DeleteByUserID removes the face profile for a user
func (r *FaceProfileRepository) DeleteByUserID(userID uint) error {
	result := r.DB.Where("user_id = ?", userID).Delete(&models.FaceProfile{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete face profile for user %d: %w", userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
