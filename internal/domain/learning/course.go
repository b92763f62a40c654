package learning

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Difficulty string

const (
	DifficultyBeginner Difficulty = "Beginner"
	DifficultyAverage  Difficulty = "Average"
	DifficultyAdvanced Difficulty = "Advanced"
)

var difficulties = []Difficulty{DifficultyBeginner, DifficultyAverage, DifficultyAdvanced}

func (d Difficulty) Valid() bool {
	for _, known := range difficulties {
		if d == known {
			return true
		}
	}
	return false
}

// ParseDifficulty matches case-insensitively against the known levels.
func ParseDifficulty(raw string) (Difficulty, bool) {
	raw = strings.TrimSpace(raw)
	for _, known := range difficulties {
		if strings.EqualFold(raw, string(known)) {
			return known, true
		}
	}
	return "", false
}

type Course struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string     `gorm:"column:title;not null" json:"title"`
	Description    string     `gorm:"column:description;type:text" json:"description"`
	InstructorName string     `gorm:"column:instructor_name" json:"instructor_name"`
	Difficulty     Difficulty `gorm:"column:difficulty;not null;default:'Beginner';index" json:"difficulty"`
	// PriceCents is the non-negative price in minor currency units.
	PriceCents    int64  `gorm:"column:price_cents;not null;default:0" json:"price_cents"`
	DurationLabel string `gorm:"column:duration_label" json:"duration_label"`
	ThumbnailRef  string `gorm:"column:thumbnail_ref" json:"thumbnail_ref"`
	// EnrollmentCount is derived from live enrollment rows and recomputed after
	// every enroll; it is never incremented in place.
	EnrollmentCount int            `gorm:"column:enrollment_count;not null;default:0" json:"enrollment_count"`
	Metadata        datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Module struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	OrderIndex  int            `gorm:"column:order_index;not null;default:0" json:"order_index"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Module) TableName() string { return "course_module" }

func (m *Module) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type Video struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"module_id"`
	Title         string         `gorm:"column:title;not null" json:"title"`
	VideoRef      string         `gorm:"column:video_ref;not null" json:"video_ref"`
	DurationLabel string         `gorm:"column:duration_label" json:"duration_label"`
	OrderIndex    int            `gorm:"column:order_index;not null;default:0" json:"order_index"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Video) TableName() string { return "course_video" }

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// ModuleTree is a module carrying its videos in order_index order.
type ModuleTree struct {
	Module
	Videos []*Video `json:"videos"`
}

// CourseDetail is a course with its ordered tree, as shown to learners.
type CourseDetail struct {
	Course      *Course       `json:"course"`
	Modules     []*ModuleTree `json:"modules"`
	TotalVideos int           `json:"total_videos"`
}
