package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/vinnu2910/edutainverse/internal/domain"
	"gorm.io/gorm"
)

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:             uuid.New(),
		Title:          title,
		Description:    "about " + title,
		InstructorName: "Instructor",
		Difficulty:     types.DifficultyBeginner,
		DurationLabel:  "1h",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedModule(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, index int) *types.Module {
	tb.Helper()
	m := &types.Module{
		ID:         uuid.New(),
		CourseID:   courseID,
		Title:      fmt.Sprintf("module %d", index),
		OrderIndex: index,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

func SeedVideo(tb testing.TB, ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, index int) *types.Video {
	tb.Helper()
	v := &types.Video{
		ID:            uuid.New(),
		ModuleID:      moduleID,
		Title:         fmt.Sprintf("video %d", index),
		VideoRef:      fmt.Sprintf("videos/%s.mp4", uuid.NewString()),
		DurationLabel: "5:00",
		OrderIndex:    index,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed video: %v", err)
	}
	return v
}

// SeedCourseTree creates a course with one module per entry in
// videosPerModule, each holding that many videos.
func SeedCourseTree(tb testing.TB, ctx context.Context, tx *gorm.DB, videosPerModule ...int) (*types.Course, []*types.ModuleTree) {
	tb.Helper()
	c := SeedCourse(tb, ctx, tx, "course")
	tree := make([]*types.ModuleTree, 0, len(videosPerModule))
	for i, n := range videosPerModule {
		m := SeedModule(tb, ctx, tx, c.ID, i)
		node := &types.ModuleTree{Module: *m}
		for j := 0; j < n; j++ {
			node.Videos = append(node.Videos, SeedVideo(tb, ctx, tx, m.ID, j))
		}
		tree = append(tree, node)
	}
	return c, tree
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID, progress int) *types.Enrollment {
	tb.Helper()
	e := &types.Enrollment{LearnerID: learnerID, CourseID: courseID, Progress: progress}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func SeedWishlist(tb testing.TB, ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) *types.WishlistEntry {
	tb.Helper()
	w := &types.WishlistEntry{LearnerID: learnerID, CourseID: courseID}
	if err := tx.WithContext(ctx).Create(w).Error; err != nil {
		tb.Fatalf("seed wishlist: %v", err)
	}
	return w
}

func SeedCompletion(tb testing.TB, ctx context.Context, tx *gorm.DB, learnerID, videoID uuid.UUID) *types.ProgressRecord {
	tb.Helper()
	now := time.Now().UTC()
	p := &types.ProgressRecord{LearnerID: learnerID, VideoID: videoID, Completed: true, CompletedAt: &now}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed completion: %v", err)
	}
	return p
}

func PtrTime(v time.Time) *time.Time { return &v }
