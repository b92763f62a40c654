package db

import (
	"fmt"

	types "github.com/vinnu2910/edutainverse/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// =========================
		// Catalogue
		// =========================
		&types.Course{},
		&types.Module{},
		&types.Video{},

		// =========================
		// Learner state
		// =========================
		&types.Enrollment{},
		&types.ProgressRecord{},
		&types.WishlistEntry{},
	)
}

// EnsureCourseIndexes adds the ordering indexes used by the hierarchy loader.
// order_index is intentionally not unique so a reorder can be written one row
// at a time.
func EnsureCourseIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			name: "idx_course_module_course_order",
			sql:  `CREATE INDEX IF NOT EXISTS idx_course_module_course_order ON course_module (course_id, order_index) WHERE deleted_at IS NULL`,
		},
		{
			name: "idx_course_video_module_order",
			sql:  `CREATE INDEX IF NOT EXISTS idx_course_video_module_order ON course_video (module_id, order_index) WHERE deleted_at IS NULL`,
		},
		{
			name: "idx_video_progress_learner_completed",
			sql:  `CREATE INDEX IF NOT EXISTS idx_video_progress_learner_completed ON video_progress (learner_id) WHERE completed`,
		},
	}
	for _, st := range stmts {
		if err := db.Exec(st.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", st.name, err)
		}
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "driver", s.driver)
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureCourseIndexes(s.db); err != nil {
		s.log.Error("Course index migration failed", "error", err)
		return err
	}
	return nil
}
