package models

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// FaceProfile holds the stored face descriptor data for one user.
// It corresponds to the 'face_profiles' table.
//
// RawData is kept as an opaque JSON blob on purpose: several historical
// registration code paths wrote different shapes here (the current
// nested-group format, a legacy flat array, and a few ad-hoc objects), and
// the recognition package normalizes whatever it finds at read time rather
// than migrating old rows.
type FaceProfile struct {
	ID              uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	RawData         []byte         `gorm:"column:raw_data" json:"-"` // descriptor batches as JSON BLOB
	DescriptorCount int            `gorm:"not null;default:0" json:"descriptor_count"`
	CreatedAt       int64          `gorm:"not null" json:"created_at"` // Stored as INTEGER in SQLite, Unix timestamp
	UpdatedAt       int64          `gorm:"not null" json:"updated_at"` // Stored as INTEGER in SQLite, Unix timestamp
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (FaceProfile) TableName() string {
	return "face_profiles"
}

// storedFaceData is the shape new registrations write: one group of
// descriptors per registration session.
type storedFaceData struct {
	Descriptors [][][]float64 `json:"descriptors"`
}

// AppendBatch adds one registration batch of descriptors to the profile,
// rewriting RawData in the current nested-group format. Existing data that
// still parses as the current format is preserved; anything else is left to
// the read-time normalizer and the new batch starts a fresh store.
func (fp *FaceProfile) AppendBatch(batch [][]float64) error {
	if len(batch) == 0 {
		return fmt.Errorf("descriptor batch is empty")
	}

	var stored storedFaceData
	if len(fp.RawData) > 0 {
		// best effort; legacy shapes fail to parse and are superseded
		_ = json.Unmarshal(fp.RawData, &stored)
	}
	stored.Descriptors = append(stored.Descriptors, batch)

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode face data: %w", err)
	}
	fp.RawData = data

	count := 0
	for _, group := range stored.Descriptors {
		count += len(group)
	}
	fp.DescriptorCount = count
	return nil
}
