package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/vinnu2910/edutainverse/internal/data/repos"
	"github.com/vinnu2910/edutainverse/internal/data/repos/testutil"
	types "github.com/vinnu2910/edutainverse/internal/domain"
	"github.com/vinnu2910/edutainverse/internal/domain/apperr"
)

func TestListCoursesByDifficulty(t *testing.T) {
	s := newStack(t, nil)
	ctx := context.Background()
	testutil.SeedCourse(t, ctx, s.db, "easy")
	hard := testutil.SeedCourse(t, ctx, s.db, "hard")
	if err := s.db.Model(&types.Course{}).Where("id = ?", hard.ID).
		Update("difficulty", types.DifficultyAdvanced).Error; err != nil {
		t.Fatalf("set difficulty: %v", err)
	}

	all, err := s.catalog.ListCourses(ctx, nil, repos.CourseFilter{})
	if err != nil {
		t.Fatalf("ListCourses: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all: want=2 got=%d", len(all))
	}
	advanced, err := s.catalog.ListCourses(ctx, nil, repos.CourseFilter{Difficulty: types.DifficultyAdvanced})
	if err != nil {
		t.Fatalf("ListCourses advanced: %v", err)
	}
	if len(advanced) != 1 || advanced[0].ID != hard.ID {
		t.Fatalf("advanced: want only %s", hard.ID)
	}

	_, err = s.catalog.ListCourses(ctx, nil, repos.CourseFilter{Difficulty: "Expert"})
	wantCode(t, err, apperr.CodeValidation)
}

func TestGetCourseDetail(t *testing.T) {
	s := newStack(t, nil)
	ctx := context.Background()
	course, _ := testutil.SeedCourseTree(t, ctx, s.db, 2, 1)

	detail, err := s.catalog.GetCourseDetail(ctx, nil, course.ID)
	if err != nil {
		t.Fatalf("GetCourseDetail: %v", err)
	}
	if detail.Course.ID != course.ID || len(detail.Modules) != 2 || detail.TotalVideos != 3 {
		t.Fatalf("unexpected detail: modules=%d videos=%d", len(detail.Modules), detail.TotalVideos)
	}

	missing, err := s.catalog.GetCourseDetail(ctx, nil, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("missing course: want nil,nil got %v,%v", missing, err)
	}
}

func TestGetCourseDetailDegradesTree(t *testing.T) {
	s := newStack(t, func(r *stackRepos) {
		r.module = &flakyModuleRepo{ModuleRepo: r.module, failEmbedded: true, failList: true}
	})
	ctx := context.Background()
	course, _ := testutil.SeedCourseTree(t, ctx, s.db, 2)

	detail, err := s.catalog.GetCourseDetail(ctx, nil, course.ID)
	if err != nil {
		t.Fatalf("GetCourseDetail: %v", err)
	}
	if detail.Course.Title != course.Title || len(detail.Modules) != 0 {
		t.Fatalf("course metadata should render with an empty tree")
	}
}
