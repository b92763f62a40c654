package learning

import (
	"bytes"
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vinnu2910/edutainverse/internal/data/repos/testutil"
	types "github.com/vinnu2910/edutainverse/internal/domain"
)

func TestModuleRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewModuleRepo(db, testutil.Logger(t))
	course := testutil.SeedCourse(t, ctx, tx, "course")

	m1 := &types.Module{CourseID: course.ID, Title: "second", OrderIndex: 1}
	m0 := &types.Module{CourseID: course.ID, Title: "first", OrderIndex: 0}
	if _, err := repo.Create(ctx, tx, []*types.Module{m1, m0}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rows, err := repo.GetByCourseID(ctx, tx, course.ID)
	if err != nil || len(rows) != 2 {
		t.Fatalf("GetByCourseID: err=%v len=%d", err, len(rows))
	}
	if rows[0].ID != m0.ID || rows[1].ID != m1.ID {
		t.Fatalf("modules not ordered by order_index")
	}

	m0.OrderIndex, m1.OrderIndex = 1, 0
	m0.Title = "first, now second"
	if err := repo.Update(ctx, tx, m0); err != nil {
		t.Fatalf("Update m0: %v", err)
	}
	if err := repo.Update(ctx, tx, m1); err != nil {
		t.Fatalf("Update m1: %v", err)
	}
	rows, _ = repo.GetByCourseID(ctx, tx, course.ID)
	if rows[0].ID != m1.ID || rows[1].Title != "first, now second" {
		t.Fatalf("swap not persisted: %+v %+v", rows[0], rows[1])
	}
	if err := repo.Update(ctx, tx, &types.Module{ID: uuid.New()}); err == nil {
		t.Fatalf("Update of missing module should fail")
	}

	if err := repo.DeleteByIDs(ctx, tx, []uuid.UUID{m0.ID}); err != nil {
		t.Fatalf("DeleteByIDs: %v", err)
	}
	if rows, err := repo.GetByIDs(ctx, tx, []uuid.UUID{m0.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("after DeleteByIDs GetByIDs: err=%v len=%d", err, len(rows))
	}

	if err := repo.DeleteByCourseIDs(ctx, tx, []uuid.UUID{course.ID}); err != nil {
		t.Fatalf("DeleteByCourseIDs: %v", err)
	}
	if rows, err := repo.GetByCourseID(ctx, tx, course.ID); err != nil || len(rows) != 0 {
		t.Fatalf("after DeleteByCourseIDs: err=%v len=%d", err, len(rows))
	}
}

func TestModuleRepoGetByCourseIDWithVideos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewModuleRepo(db, testutil.Logger(t))
	course := testutil.SeedCourse(t, ctx, tx, "course")

	second := testutil.SeedModule(t, ctx, tx, course.ID, 1)
	first := testutil.SeedModule(t, ctx, tx, course.ID, 0)
	empty := testutil.SeedModule(t, ctx, tx, course.ID, 2)
	v2 := testutil.SeedVideo(t, ctx, tx, first.ID, 1)
	v1 := testutil.SeedVideo(t, ctx, tx, first.ID, 0)
	v3 := testutil.SeedVideo(t, ctx, tx, second.ID, 0)
	gone := testutil.SeedVideo(t, ctx, tx, second.ID, 1)
	if err := tx.Delete(&types.Video{}, "id = ?", gone.ID).Error; err != nil {
		t.Fatalf("soft delete video: %v", err)
	}

	tree, err := repo.GetByCourseIDWithVideos(ctx, tx, course.ID)
	if err != nil {
		t.Fatalf("GetByCourseIDWithVideos: %v", err)
	}
	if len(tree) != 3 {
		t.Fatalf("expected 3 modules, got %d", len(tree))
	}
	if tree[0].ID != first.ID || tree[1].ID != second.ID || tree[2].ID != empty.ID {
		t.Fatalf("modules out of order")
	}
	if len(tree[0].Videos) != 2 || tree[0].Videos[0].ID != v1.ID || tree[0].Videos[1].ID != v2.ID {
		t.Fatalf("videos of first module out of order: %+v", tree[0].Videos)
	}
	if len(tree[1].Videos) != 1 || tree[1].Videos[0].ID != v3.ID {
		t.Fatalf("soft-deleted video leaked into tree")
	}
	if tree[2].Videos == nil || len(tree[2].Videos) != 0 {
		t.Fatalf("empty module should carry an empty video slice")
	}
}

func TestOrderingTiesBreakByID(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	log := testutil.Logger(t)
	modules := NewModuleRepo(db, log)
	videos := NewVideoRepo(db, log)
	course := testutil.SeedCourse(t, ctx, tx, "ties")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	var moduleIDs []uuid.UUID
	for i := 0; i < 3; i++ {
		m := &types.Module{ID: uuid.New(), CourseID: course.ID, Title: "same slot", CreatedAt: at, UpdatedAt: at}
		if err := tx.WithContext(ctx).Create(m).Error; err != nil {
			t.Fatalf("create module: %v", err)
		}
		moduleIDs = append(moduleIDs, m.ID)
	}
	videoModule := moduleIDs[0]
	var videoIDs []uuid.UUID
	for i := 0; i < 3; i++ {
		v := &types.Video{
			ID:            uuid.New(),
			ModuleID:      videoModule,
			Title:         "same slot",
			VideoRef:      "videos/" + uuid.NewString() + ".mp4",
			DurationLabel: "1:00",
			CreatedAt:     at,
			UpdatedAt:     at,
		}
		if err := tx.WithContext(ctx).Create(v).Error; err != nil {
			t.Fatalf("create video: %v", err)
		}
		videoIDs = append(videoIDs, v.ID)
	}
	byID := func(ids []uuid.UUID) {
		sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	}
	byID(moduleIDs)
	byID(videoIDs)

	rows, err := modules.GetByCourseID(ctx, tx, course.ID)
	if err != nil || len(rows) != 3 {
		t.Fatalf("GetByCourseID: err=%v len=%d", err, len(rows))
	}
	for i, m := range rows {
		if m.ID != moduleIDs[i] {
			t.Fatalf("module %d: want=%s got=%s", i, moduleIDs[i], m.ID)
		}
	}

	tree, err := modules.GetByCourseIDWithVideos(ctx, tx, course.ID)
	if err != nil || len(tree) != 3 {
		t.Fatalf("GetByCourseIDWithVideos: err=%v len=%d", err, len(tree))
	}
	for i, node := range tree {
		if node.ID != moduleIDs[i] {
			t.Fatalf("tree module %d: want=%s got=%s", i, moduleIDs[i], node.ID)
		}
	}
	var embedded []*types.Video
	for _, node := range tree {
		if node.ID == videoModule {
			embedded = node.Videos
		}
	}

	listed, err := videos.GetByModuleID(ctx, tx, videoModule)
	if err != nil || len(listed) != 3 || len(embedded) != 3 {
		t.Fatalf("videos: err=%v listed=%d embedded=%d", err, len(listed), len(embedded))
	}
	for i := range videoIDs {
		if listed[i].ID != videoIDs[i] || embedded[i].ID != videoIDs[i] {
			t.Fatalf("video %d: want=%s listed=%s embedded=%s", i, videoIDs[i], listed[i].ID, embedded[i].ID)
		}
	}
}
