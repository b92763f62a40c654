package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Enrollment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LearnerID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_learner_course" json:"learner_id"`
	CourseID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_learner_course;index" json:"course_id"`
	Progress   int       `gorm:"column:progress;not null;default:0" json:"progress"`
	EnrolledAt time.Time `gorm:"column:enrolled_at;not null" json:"enrolled_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now().UTC()
	}
	return nil
}

// ProgressRecord marks a video as finished by a learner. A row with
// Completed=true is the only evidence of completion; un-completing deletes it.
type ProgressRecord struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	LearnerID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_progress_learner_video" json:"learner_id"`
	VideoID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_progress_learner_video;index" json:"video_id"`
	Completed   bool       `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (ProgressRecord) TableName() string { return "video_progress" }

func (p *ProgressRecord) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type WishlistEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LearnerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_learner_course" json:"learner_id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_learner_course;index" json:"course_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (WishlistEntry) TableName() string { return "wishlist_entry" }

func (w *WishlistEntry) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
