package learning

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/vinnu2910/edutainverse/internal/data/repos/testutil"
	types "github.com/vinnu2910/edutainverse/internal/domain"
	"gorm.io/gorm"
)

func TestEnrollmentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewEnrollmentRepo(db, testutil.Logger(t))
	course := testutil.SeedCourse(t, ctx, tx, "course")
	learner := uuid.New()

	first, created, err := repo.CreateIfAbsent(ctx, tx, &types.Enrollment{LearnerID: learner, CourseID: course.ID})
	if err != nil || !created {
		t.Fatalf("CreateIfAbsent: created=%v err=%v", created, err)
	}
	if first.Progress != 0 || first.EnrolledAt.IsZero() {
		t.Fatalf("unexpected new enrollment: %+v", first)
	}

	again, created, err := repo.CreateIfAbsent(ctx, tx, &types.Enrollment{LearnerID: learner, CourseID: course.ID, Progress: 50})
	if err != nil || created {
		t.Fatalf("second CreateIfAbsent: created=%v err=%v", created, err)
	}
	if again.ID != first.ID || again.Progress != 0 {
		t.Fatalf("re-enroll should return the existing row: %+v", again)
	}

	if err := repo.UpdateProgress(ctx, tx, learner, course.ID, 60); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	got, err := repo.Get(ctx, tx, learner, course.ID)
	if err != nil || got == nil || got.Progress != 60 {
		t.Fatalf("Get: err=%v got=%+v", err, got)
	}
	if err := repo.UpdateProgress(ctx, tx, uuid.New(), course.ID, 10); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("UpdateProgress without enrollment: %v", err)
	}
	if missing, err := repo.Get(ctx, tx, uuid.New(), course.ID); err != nil || missing != nil {
		t.Fatalf("Get missing: err=%v got=%+v", err, missing)
	}

	other := testutil.SeedEnrollment(t, ctx, tx, uuid.New(), course.ID, 0)
	if n, err := repo.CountByCourseID(ctx, tx, course.ID); err != nil || n != 2 {
		t.Fatalf("CountByCourseID: err=%v n=%d", err, n)
	}
	if rows, err := repo.GetByLearnerID(ctx, tx, learner); err != nil || len(rows) != 1 {
		t.Fatalf("GetByLearnerID: err=%v len=%d", err, len(rows))
	}

	learners, err := repo.GetLearnerIDsByCourseID(ctx, tx, course.ID)
	if err != nil || len(learners) != 2 {
		t.Fatalf("GetLearnerIDsByCourseID: err=%v ids=%v", err, learners)
	}
	seen := map[uuid.UUID]bool{learners[0]: true, learners[1]: true}
	if !seen[learner] || !seen[other.LearnerID] {
		t.Fatalf("GetLearnerIDsByCourseID: want %s and %s, got %v", learner, other.LearnerID, learners)
	}

	if err := repo.DeleteByCourseIDs(ctx, tx, []uuid.UUID{course.ID}); err != nil {
		t.Fatalf("DeleteByCourseIDs: %v", err)
	}
	if n, _ := repo.CountByCourseID(ctx, tx, course.ID); n != 0 {
		t.Fatalf("expected no enrollments after delete, got %d", n)
	}
}
