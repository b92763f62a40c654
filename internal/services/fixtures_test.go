package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinnu2910/edutainverse/internal/data/cache"
	"github.com/vinnu2910/edutainverse/internal/data/repos"
	"github.com/vinnu2910/edutainverse/internal/data/repos/testutil"
	types "github.com/vinnu2910/edutainverse/internal/domain"
	"github.com/vinnu2910/edutainverse/internal/domain/apperr"
)

var errInjected = errors.New("injected failure")

type stackRepos struct {
	course     repos.CourseRepo
	module     repos.ModuleRepo
	video      repos.VideoRepo
	progress   repos.ProgressRecordRepo
	enrollment repos.EnrollmentRepo
	wishlist   repos.WishlistRepo
	cache      cache.ProgressCache
	policy     types.ProgressPolicy
}

type testStack struct {
	db         *gorm.DB
	repos      stackRepos
	hierarchy  HierarchyService
	progress   ProgressService
	editor     CourseEditorService
	enrollment EnrollmentService
	catalog    CatalogService
}

// newStack wires every service over a fresh database. wrap may replace repos
// with failing or counting decorators before the services are built.
func newStack(t *testing.T, wrap func(r *stackRepos)) *testStack {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	r := stackRepos{
		course:     repos.NewCourseRepo(db, log),
		module:     repos.NewModuleRepo(db, log),
		video:      repos.NewVideoRepo(db, log),
		progress:   repos.NewProgressRecordRepo(db, log),
		enrollment: repos.NewEnrollmentRepo(db, log),
		wishlist:   repos.NewWishlistRepo(db, log),
		cache:      cache.NoopProgressCache{},
		policy:     types.ProgressRecompute,
	}
	if wrap != nil {
		wrap(&r)
	}

	s := &testStack{db: db, repos: r}
	s.hierarchy = NewHierarchyService(db, log, r.module, r.video)
	s.progress = NewProgressService(db, log, s.hierarchy, r.progress, r.enrollment, r.cache, r.policy)
	s.editor = NewCourseEditorService(db, log, s.hierarchy, r.course, r.module, r.video, r.progress, r.enrollment, r.wishlist, r.cache)
	s.enrollment = NewEnrollmentService(db, log, r.course, r.enrollment, r.wishlist, r.cache)
	s.catalog = NewCatalogService(db, log, r.course, s.hierarchy)
	return s
}

func validFields(title string) types.CourseFields {
	return types.CourseFields{
		Title:          title,
		Description:    "desc",
		InstructorName: "Ada",
		Difficulty:     types.DifficultyBeginner,
		PriceCents:     1999,
		DurationLabel:  "2h",
	}
}

func wantCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if got := apperr.CodeOf(err); got != code {
		t.Fatalf("error code: want=%s got=%s (%v)", code, got, err)
	}
}

func treeVideoCounts(tree []*types.ModuleTree) []int {
	out := make([]int, 0, len(tree))
	for _, m := range tree {
		out = append(out, len(m.Videos))
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ---- repo decorators ----

type flakyModuleRepo struct {
	repos.ModuleRepo
	failEmbedded  bool
	failList      bool
	failCreateFor string
	afterCreate   func()

	mu      sync.Mutex
	creates int
	updates int
}

func (r *flakyModuleRepo) GetByCourseIDWithVideos(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.ModuleTree, error) {
	if r.failEmbedded {
		return nil, errInjected
	}
	return r.ModuleRepo.GetByCourseIDWithVideos(ctx, tx, courseID)
}

func (r *flakyModuleRepo) GetByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Module, error) {
	if r.failList {
		return nil, errInjected
	}
	return r.ModuleRepo.GetByCourseID(ctx, tx, courseID)
}

func (r *flakyModuleRepo) Create(ctx context.Context, tx *gorm.DB, modules []*types.Module) ([]*types.Module, error) {
	r.mu.Lock()
	r.creates++
	r.mu.Unlock()
	for _, m := range modules {
		if r.failCreateFor != "" && m.Title == r.failCreateFor {
			return nil, errInjected
		}
	}
	out, err := r.ModuleRepo.Create(ctx, tx, modules)
	if err == nil && r.afterCreate != nil {
		r.afterCreate()
	}
	return out, err
}

func (r *flakyModuleRepo) Update(ctx context.Context, tx *gorm.DB, module *types.Module) error {
	r.mu.Lock()
	r.updates++
	r.mu.Unlock()
	return r.ModuleRepo.Update(ctx, tx, module)
}

type flakyVideoRepo struct {
	repos.VideoRepo
	failListFor   uuid.UUID
	failCreateFor string
}

func (r *flakyVideoRepo) GetByModuleID(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) ([]*types.Video, error) {
	if r.failListFor != uuid.Nil && moduleID == r.failListFor {
		return nil, errInjected
	}
	return r.VideoRepo.GetByModuleID(ctx, tx, moduleID)
}

func (r *flakyVideoRepo) Create(ctx context.Context, tx *gorm.DB, videos []*types.Video) ([]*types.Video, error) {
	for _, v := range videos {
		if r.failCreateFor != "" && v.Title == r.failCreateFor {
			return nil, errInjected
		}
	}
	return r.VideoRepo.Create(ctx, tx, videos)
}

type flakyCourseRepo struct {
	repos.CourseRepo
	failUpdate bool
	failCreate bool
}

func (r *flakyCourseRepo) Update(ctx context.Context, tx *gorm.DB, course *types.Course) error {
	if r.failUpdate {
		return errInjected
	}
	return r.CourseRepo.Update(ctx, tx, course)
}

func (r *flakyCourseRepo) Create(ctx context.Context, tx *gorm.DB, courses []*types.Course) ([]*types.Course, error) {
	if r.failCreate {
		return nil, errInjected
	}
	return r.CourseRepo.Create(ctx, tx, courses)
}

type countingEnrollmentRepo struct {
	repos.EnrollmentRepo
	mu          sync.Mutex
	gets        int
	updateCalls int
}

func (r *countingEnrollmentRepo) Get(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (*types.Enrollment, error) {
	r.mu.Lock()
	r.gets++
	r.mu.Unlock()
	return r.EnrollmentRepo.Get(ctx, tx, learnerID, courseID)
}

func (r *countingEnrollmentRepo) UpdateProgress(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID, progress int) error {
	r.mu.Lock()
	r.updateCalls++
	r.mu.Unlock()
	return r.EnrollmentRepo.UpdateProgress(ctx, tx, learnerID, courseID, progress)
}

// vanishingEnrollmentRepo removes the enrollment just before a progress
// write, like a course delete landing between read and update.
type vanishingEnrollmentRepo struct {
	repos.EnrollmentRepo
}

func (r *vanishingEnrollmentRepo) UpdateProgress(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID, progress int) error {
	if err := r.EnrollmentRepo.DeleteByCourseIDs(ctx, tx, []uuid.UUID{courseID}); err != nil {
		return err
	}
	return r.EnrollmentRepo.UpdateProgress(ctx, tx, learnerID, courseID, progress)
}

// memoryCache is an in-process ProgressCache.
type memoryCache struct {
	mu   sync.Mutex
	vals map[string]int
}

func newMemoryCache() *memoryCache { return &memoryCache{vals: map[string]int{}} }

func (c *memoryCache) key(l, co uuid.UUID) string { return l.String() + ":" + co.String() }

func (c *memoryCache) LastSynced(_ context.Context, l, co uuid.UUID) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vals[c.key(l, co)]
	return v, ok, nil
}

func (c *memoryCache) SetLastSynced(_ context.Context, l, co uuid.UUID, pct int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals[c.key(l, co)] = pct
	return nil
}

func (c *memoryCache) Forget(_ context.Context, l, co uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.vals, c.key(l, co))
	return nil
}

func (c *memoryCache) Close() error { return nil }
