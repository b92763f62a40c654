package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vinnu2910/edutainverse/internal/data/repos/testutil"
	types "github.com/vinnu2910/edutainverse/internal/domain"
)

func TestProgressRecordRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewProgressRecordRepo(db, testutil.Logger(t))
	_, tree := testutil.SeedCourseTree(t, ctx, tx, 2, 1)
	learner := uuid.New()
	v1, v2, v3 := tree[0].Videos[0], tree[0].Videos[1], tree[1].Videos[0]

	now := time.Now().UTC()
	for i := 0; i < 2; i++ {
		rec, err := repo.Upsert(ctx, tx, &types.ProgressRecord{LearnerID: learner, VideoID: v1.ID, Completed: true, CompletedAt: &now})
		if err != nil {
			t.Fatalf("Upsert #%d: %v", i, err)
		}
		if !rec.Completed || rec.CompletedAt == nil {
			t.Fatalf("unexpected record: %+v", rec)
		}
	}
	if _, err := repo.Upsert(ctx, tx, &types.ProgressRecord{LearnerID: learner, VideoID: v3.ID, Completed: true, CompletedAt: &now}); err != nil {
		t.Fatalf("Upsert v3: %v", err)
	}
	testutil.SeedCompletion(t, ctx, tx, uuid.New(), v2.ID)

	ids, err := repo.GetCompletedVideoIDs(ctx, tx, learner)
	if err != nil || len(ids) != 2 {
		t.Fatalf("GetCompletedVideoIDs: err=%v ids=%v", err, ids)
	}
	ids, err = repo.GetCompletedVideoIDs(ctx, tx, learner, v1.ID, v2.ID)
	if err != nil || len(ids) != 1 || ids[0] != v1.ID {
		t.Fatalf("scoped GetCompletedVideoIDs: err=%v ids=%v", err, ids)
	}

	if err := repo.DeleteByLearnerAndVideo(ctx, tx, learner, v1.ID); err != nil {
		t.Fatalf("DeleteByLearnerAndVideo: %v", err)
	}
	if rec, err := repo.Get(ctx, tx, learner, v1.ID); err != nil || rec != nil {
		t.Fatalf("record should be gone: err=%v rec=%+v", err, rec)
	}
	if err := repo.DeleteByLearnerAndVideo(ctx, tx, learner, v1.ID); err != nil {
		t.Fatalf("repeated delete should be a no-op: %v", err)
	}

	if err := repo.DeleteByVideoIDs(ctx, tx, []uuid.UUID{v2.ID, v3.ID}); err != nil {
		t.Fatalf("DeleteByVideoIDs: %v", err)
	}
	if ids, _ := repo.GetCompletedVideoIDs(ctx, tx, learner); len(ids) != 0 {
		t.Fatalf("expected no completions, got %v", ids)
	}
}
