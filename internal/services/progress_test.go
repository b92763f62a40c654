package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vinnu2910/edutainverse/internal/data/repos/testutil"
	types "github.com/vinnu2910/edutainverse/internal/domain"
	"github.com/vinnu2910/edutainverse/internal/domain/apperr"
)

func storedProgress(t *testing.T, s *testStack, learnerID, courseID uuid.UUID) int {
	t.Helper()
	e, err := s.repos.enrollment.Get(context.Background(), nil, learnerID, courseID)
	if err != nil {
		t.Fatalf("enrollment Get: %v", err)
	}
	if e == nil {
		t.Fatalf("learner %s not enrolled in %s", learnerID, courseID)
	}
	return e.Progress
}

func TestToggleVideoCompletionTwiceRestoresState(t *testing.T) {
	s := newStack(t, nil)
	ctx := context.Background()
	_, tree := testutil.SeedCourseTree(t, ctx, s.db, 1)
	learner := uuid.New()
	video := tree[0].Videos[0].ID

	first, err := s.progress.ToggleVideoCompletion(ctx, nil, learner, video)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !first.Completed || first.CompletedAt == nil {
		t.Fatalf("first toggle: want completed with timestamp, got %+v", first)
	}
	second, err := s.progress.ToggleVideoCompletion(ctx, nil, learner, video)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if second.Completed || second.CompletedAt != nil {
		t.Fatalf("second toggle: want incomplete, got %+v", second)
	}
	rec, err := s.repos.progress.Get(ctx, nil, learner, video)
	if err != nil {
		t.Fatalf("progress Get: %v", err)
	}
	if rec != nil {
		t.Fatalf("un-completing should delete the record, found %+v", rec)
	}
}

func TestToggleCourseVideoScenarioA(t *testing.T) {
	s := newStack(t, nil)
	ctx := context.Background()
	course, tree := testutil.SeedCourseTree(t, ctx, s.db, 2, 3)
	learner := uuid.New()
	testutil.SeedEnrollment(t, ctx, s.db, learner, course.ID, 0)

	picks := []uuid.UUID{tree[0].Videos[0].ID, tree[1].Videos[0].ID, tree[1].Videos[2].ID}
	var last *types.ToggleResult
	for _, v := range picks {
		res, err := s.progress.ToggleCourseVideo(ctx, nil, learner, course.ID, v)
		if err != nil {
			t.Fatalf("ToggleCourseVideo: %v", err)
		}
		last = res
	}
	if last.Progress.Percent != 60 {
		t.Fatalf("percent: want=60 got=%d", last.Progress.Percent)
	}
	if last.Progress.TotalVideos != 5 || len(last.Progress.CompletedVideoIDs) != 3 {
		t.Fatalf("unexpected progress: %+v", last.Progress)
	}
	if !last.Progress.Synced || last.Progress.EnrollmentProgress != 60 {
		t.Fatalf("expected sync to 60, got %+v", last.Progress)
	}
	if got := storedProgress(t, s, learner, course.ID); got != 60 {
		t.Fatalf("stored progress: want=60 got=%d", got)
	}
}

func TestToggleCourseVideoConcurrentVideos(t *testing.T) {
	s := newStack(t, nil)
	ctx := context.Background()
	course, tree := testutil.SeedCourseTree(t, ctx, s.db, 3, 3, 2)
	learner := uuid.New()
	testutil.SeedEnrollment(t, ctx, s.db, learner, course.ID, 0)

	picks := []uuid.UUID{
		tree[0].Videos[0].ID, tree[0].Videos[2].ID,
		tree[1].Videos[0].ID, tree[1].Videos[1].ID,
		tree[2].Videos[0].ID, tree[2].Videos[1].ID,
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, v := range picks {
		v := v
		g.Go(func() error {
			res, err := s.progress.ToggleCourseVideo(gctx, nil, learner, course.ID, v)
			if err != nil {
				return err
			}
			if !res.Completion.Completed || res.Completion.VideoID != v {
				t.Errorf("toggle %s: unexpected completion %+v", v, res.Completion)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent toggles: %v", err)
	}

	for _, v := range picks {
		rec, err := s.repos.progress.Get(ctx, nil, learner, v)
		if err != nil {
			t.Fatalf("progress Get: %v", err)
		}
		if rec == nil || !rec.Completed {
			t.Fatalf("video %s: want completed record, got %+v", v, rec)
		}
	}

	p, err := s.progress.GetCourseProgress(ctx, nil, learner, course.ID)
	if err != nil {
		t.Fatalf("GetCourseProgress: %v", err)
	}
	if len(p.CompletedVideoIDs) != len(picks) || p.Percent != 75 {
		t.Fatalf("want 6 of 8 completed at 75%%, got %+v", p)
	}
	if got := storedProgress(t, s, learner, course.ID); got != 75 {
		t.Fatalf("stored progress: want=75 got=%d", got)
	}
}

func TestGetCourseProgressScenarioB(t *testing.T) {
	s := newStack(t, nil)
	ctx := context.Background()
	course, _ := testutil.SeedCourseTree(t, ctx, s.db, 4)
	learner := uuid.New()
	testutil.SeedEnrollment(t, ctx, s.db, learner, course.ID, 0)

	p, err := s.progress.GetCourseProgress(ctx, nil, learner, course.ID)
	if err != nil {
		t.Fatalf("GetCourseProgress: %v", err)
	}
	if p.Percent != 0 || p.TotalVideos != 4 || p.Synced {
		t.Fatalf("unexpected progress: %+v", p)
	}
}

func TestGetCourseProgressZeroVideos(t *testing.T) {
	s := newStack(t, nil)
	ctx := context.Background()
	course, _ := testutil.SeedCourseTree(t, ctx, s.db)
	learner := uuid.New()
	testutil.SeedEnrollment(t, ctx, s.db, learner, course.ID, 40)

	p, err := s.progress.GetCourseProgress(ctx, nil, learner, course.ID)
	if err != nil {
		t.Fatalf("GetCourseProgress: %v", err)
	}
	if p.Percent != 0 {
		t.Fatalf("percent: want=0 got=%d", p.Percent)
	}
	if got := storedProgress(t, s, learner, course.ID); got != 0 {
		t.Fatalf("recompute policy should write 0, got %d", got)
	}
}

func TestToggleCourseVideoRejectsForeignVideo(t *testing.T) {
	s := newStack(t, nil)
	ctx := context.Background()
	course, _ := testutil.SeedCourseTree(t, ctx, s.db, 1)
	_, other := testutil.SeedCourseTree(t, ctx, s.db, 1)

	_, err := s.progress.ToggleCourseVideo(ctx, nil, uuid.New(), course.ID, other[0].Videos[0].ID)
	wantCode(t, err, apperr.CodeNotFound)
}

func TestToggleCourseVideoWithoutEnrollment(t *testing.T) {
	s := newStack(t, nil)
	ctx := context.Background()
	course, tree := testutil.SeedCourseTree(t, ctx, s.db, 2)

	res, err := s.progress.ToggleCourseVideo(ctx, nil, uuid.New(), course.ID, tree[0].Videos[0].ID)
	if err != nil {
		t.Fatalf("ToggleCourseVideo: %v", err)
	}
	if res.Progress.Enrolled || res.Progress.Synced {
		t.Fatalf("unenrolled learner should not sync: %+v", res.Progress)
	}
	if res.Progress.Percent != 50 {
		t.Fatalf("percent: want=50 got=%d", res.Progress.Percent)
	}
}

func TestProgressPolicyWhenVideosAreAdded(t *testing.T) {
	cases := []struct {
		name   string
		policy types.ProgressPolicy
		want   int
	}{
		{"recompute lowers", types.ProgressRecompute, 33},
		{"monotonic holds", types.ProgressMonotonic, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newStack(t, func(r *stackRepos) { r.policy = tc.policy })
			ctx := context.Background()
			course, tree := testutil.SeedCourseTree(t, ctx, s.db, 2)
			learner := uuid.New()
			testutil.SeedEnrollment(t, ctx, s.db, learner, course.ID, 0)

			if _, err := s.progress.ToggleCourseVideo(ctx, nil, learner, course.ID, tree[0].Videos[0].ID); err != nil {
				t.Fatalf("toggle: %v", err)
			}
			if got := storedProgress(t, s, learner, course.ID); got != 50 {
				t.Fatalf("after toggle: want=50 got=%d", got)
			}

			testutil.SeedVideo(t, ctx, s.db, tree[0].ID, 2)
			p, err := s.progress.GetCourseProgress(ctx, nil, learner, course.ID)
			if err != nil {
				t.Fatalf("GetCourseProgress: %v", err)
			}
			if p.Percent != 33 {
				t.Fatalf("computed percent: want=33 got=%d", p.Percent)
			}
			if got := storedProgress(t, s, learner, course.ID); got != tc.want {
				t.Fatalf("stored progress: want=%d got=%d", tc.want, got)
			}
			if p.EnrollmentProgress != tc.want {
				t.Fatalf("reported enrollment progress: want=%d got=%d", tc.want, p.EnrollmentProgress)
			}
		})
	}
}

func TestProgressCacheSkipsUnchangedWrites(t *testing.T) {
	var enrollments *countingEnrollmentRepo
	s := newStack(t, func(r *stackRepos) {
		enrollments = &countingEnrollmentRepo{EnrollmentRepo: r.enrollment}
		r.enrollment = enrollments
		r.cache = newMemoryCache()
	})
	ctx := context.Background()
	course, tree := testutil.SeedCourseTree(t, ctx, s.db, 4)
	learner := uuid.New()
	testutil.SeedEnrollment(t, ctx, s.db, learner, course.ID, 0)

	if _, err := s.progress.ToggleCourseVideo(ctx, nil, learner, course.ID, tree[0].Videos[0].ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if enrollments.updateCalls != 1 {
		t.Fatalf("update calls after toggle: want=1 got=%d", enrollments.updateCalls)
	}
	getsBefore := enrollments.gets

	for i := 0; i < 3; i++ {
		p, err := s.progress.GetCourseProgress(ctx, nil, learner, course.ID)
		if err != nil {
			t.Fatalf("GetCourseProgress: %v", err)
		}
		if p.Percent != 25 || !p.Enrolled || p.Synced {
			t.Fatalf("unexpected progress: %+v", p)
		}
	}
	if enrollments.updateCalls != 1 {
		t.Fatalf("unchanged progress should not be rewritten, update calls=%d", enrollments.updateCalls)
	}
	if enrollments.gets != getsBefore {
		t.Fatalf("cache hit should skip the enrollment read, gets %d -> %d", getsBefore, enrollments.gets)
	}
}

func TestGetCourseProgressWhenEnrollmentVanishesMidSync(t *testing.T) {
	var enrollments *vanishingEnrollmentRepo
	s := newStack(t, func(r *stackRepos) {
		enrollments = &vanishingEnrollmentRepo{EnrollmentRepo: r.enrollment}
		r.enrollment = enrollments
	})
	ctx := context.Background()
	course, tree := testutil.SeedCourseTree(t, ctx, s.db, 2)
	learner := uuid.New()
	testutil.SeedEnrollment(t, ctx, s.db, learner, course.ID, 0)
	testutil.SeedCompletion(t, ctx, s.db, learner, tree[0].Videos[0].ID)

	p, err := s.progress.GetCourseProgress(ctx, nil, learner, course.ID)
	if err != nil {
		t.Fatalf("GetCourseProgress: %v", err)
	}
	if p.Percent != 50 || p.Enrolled || p.Synced {
		t.Fatalf("want 50%% computed for a learner no longer enrolled, got %+v", p)
	}
}

func TestSyncEnrollmentProgress(t *testing.T) {
	s := newStack(t, nil)
	ctx := context.Background()
	course, _ := testutil.SeedCourseTree(t, ctx, s.db, 1)
	learner := uuid.New()

	wantCode(t, s.progress.SyncEnrollmentProgress(ctx, nil, learner, course.ID, 101), apperr.CodeValidation)
	wantCode(t, s.progress.SyncEnrollmentProgress(ctx, nil, learner, course.ID, 10), apperr.CodeNotFound)

	testutil.SeedEnrollment(t, ctx, s.db, learner, course.ID, 0)
	for i := 0; i < 2; i++ {
		if err := s.progress.SyncEnrollmentProgress(ctx, nil, learner, course.ID, 70); err != nil {
			t.Fatalf("sync %d: %v", i, err)
		}
	}
	if got := storedProgress(t, s, learner, course.ID); got != 70 {
		t.Fatalf("stored progress: want=70 got=%d", got)
	}
}
