package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vinnu2910/edutainverse/internal/data/cache"
	"github.com/vinnu2910/edutainverse/internal/data/repos"
	"github.com/vinnu2910/edutainverse/internal/data/repos/testutil"
	types "github.com/vinnu2910/edutainverse/internal/domain"
	httpH "github.com/vinnu2910/edutainverse/internal/http/handlers"
	httpMW "github.com/vinnu2910/edutainverse/internal/http/middleware"
	"github.com/vinnu2910/edutainverse/internal/services"
)

const testAdminRole = "admin"

type harness struct {
	db     *gorm.DB
	router *gin.Engine
	auth   services.AuthService
}

func setup(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)

	courseRepo := repos.NewCourseRepo(db, log)
	moduleRepo := repos.NewModuleRepo(db, log)
	videoRepo := repos.NewVideoRepo(db, log)
	progressRepo := repos.NewProgressRecordRepo(db, log)
	enrollmentRepo := repos.NewEnrollmentRepo(db, log)
	wishlistRepo := repos.NewWishlistRepo(db, log)

	auth, err := services.NewAuthService(log, "test-secret", "edutainverse")
	require.NoError(t, err)
	hierarchy := services.NewHierarchyService(db, log, moduleRepo, videoRepo)
	progress := services.NewProgressService(db, log, hierarchy, progressRepo, enrollmentRepo, cache.NoopProgressCache{}, types.ProgressRecompute)
	editor := services.NewCourseEditorService(db, log, hierarchy, courseRepo, moduleRepo, videoRepo, progressRepo, enrollmentRepo, wishlistRepo, cache.NoopProgressCache{})
	enrollment := services.NewEnrollmentService(db, log, courseRepo, enrollmentRepo, wishlistRepo, cache.NoopProgressCache{})
	catalog := services.NewCatalogService(db, log, courseRepo, hierarchy)

	router := NewRouter(RouterConfig{
		Log:                log,
		AdminRole:          testAdminRole,
		AuthMiddleware:     httpMW.NewAuthMiddleware(log, auth),
		HealthHandler:      httpH.NewHealthHandler(db),
		CourseHandler:      httpH.NewCourseHandler(log, catalog),
		ProgressHandler:    httpH.NewProgressHandler(log, progress),
		MembershipHandler:  httpH.NewMembershipHandler(log, enrollment),
		AdminCourseHandler: httpH.NewAdminCourseHandler(log, editor, enrollment),
	})
	return &harness{db: db, router: router, auth: auth}
}

func (h *harness) token(t *testing.T, learner uuid.UUID, role string) string {
	t.Helper()
	tok, err := h.auth.IssueToken(learner, role, time.Minute)
	require.NoError(t, err)
	return tok
}

func (h *harness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestHealthCheck(t *testing.T) {
	h := setup(t)
	rec := h.do(t, http.MethodGet, "/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestListCourses(t *testing.T) {
	h := setup(t)
	ctx := context.Background()
	testutil.SeedCourse(t, ctx, h.db, "Go basics")

	rec := h.do(t, http.MethodGet, "/api/courses?difficulty=beginner", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Courses []types.Course `json:"courses"`
	}](t, rec)
	assert.Len(t, body.Courses, 1)

	rec = h.do(t, http.MethodGet, "/api/courses?difficulty=expert", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decode[errorBody](t, rec).Error.Code)

	rec = h.do(t, http.MethodGet, "/api/courses?limit=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCourse(t *testing.T) {
	h := setup(t)
	course, _ := testutil.SeedCourseTree(t, context.Background(), h.db, 2, 1)

	rec := h.do(t, http.MethodGet, "/api/courses/"+course.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[types.CourseDetail](t, rec)
	assert.Equal(t, course.ID, detail.Course.ID)
	assert.Len(t, detail.Modules, 2)
	assert.Equal(t, 3, detail.TotalVideos)

	rec = h.do(t, http.MethodGet, "/api/courses/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/courses/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_course_id", decode[errorBody](t, rec).Error.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := setup(t)
	courseID := uuid.NewString()

	rec := h.do(t, http.MethodPost, "/api/courses/"+courseID+"/enroll", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/me/enrollments", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	learnerToken := h.token(t, uuid.New(), "learner")
	rec = h.do(t, http.MethodPost, "/api/admin/courses/"+courseID+"/recount", learnerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type saveBody struct {
	Report types.SaveReport `json:"report"`
	Tree   struct {
		Ref      types.NodeRef        `json:"ref"`
		Modules  []*types.ModuleDraft `json:"modules"`
		Baseline struct {
			ModuleIDs []uuid.UUID `json:"module_ids"`
			VideoIDs  []uuid.UUID `json:"video_ids"`
		} `json:"baseline"`
	} `json:"tree"`
}

func newCourseRequest() map[string]any {
	return map[string]any{
		"course": map[string]any{
			"title":           "Intro to Go",
			"instructor_name": "Ada",
			"difficulty":      "Beginner",
			"price_cents":     0,
		},
		"modules": []map[string]any{
			{
				"ref":   map[string]any{"temp_key": "m1"},
				"title": "Basics",
				"videos": []map[string]any{
					{"ref": map[string]any{"temp_key": "v1"}, "title": "Hello", "video_ref": "videos/hello.mp4"},
					{"ref": map[string]any{"temp_key": "v2"}, "title": "Types", "video_ref": "videos/types.mp4"},
				},
			},
		},
	}
}

func TestLearnerFlow(t *testing.T) {
	h := setup(t)
	admin := h.token(t, uuid.New(), testAdminRole)
	learner := h.token(t, uuid.New(), "learner")

	rec := h.do(t, http.MethodPost, "/api/admin/courses", admin, newCourseRequest())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decode[saveBody](t, rec)
	assert.Equal(t, types.SaveStatus("succeeded"), saved.Report.Status)
	courseID, ok := saved.Tree.Ref.ID()
	require.True(t, ok, "course ref should be persisted")
	require.Len(t, saved.Tree.Modules, 1)
	require.Len(t, saved.Tree.Modules[0].Videos, 2)
	videoID, ok := saved.Tree.Modules[0].Videos[0].Ref.ID()
	require.True(t, ok, "video ref should be persisted")
	base := "/api/courses/" + courseID.String()

	rec = h.do(t, http.MethodPost, base+"/wishlist", learner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.MembershipWishlisted, decode[types.MembershipChange](t, rec).To)

	rec = h.do(t, http.MethodPost, base+"/enroll", learner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	change := decode[types.MembershipChange](t, rec)
	assert.Equal(t, types.MembershipWishlisted, change.From)
	assert.Equal(t, types.MembershipEnrolled, change.To)

	rec = h.do(t, http.MethodGet, "/api/me/wishlist", learner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[struct {
		Wishlist []types.WishlistedCourse `json:"wishlist"`
	}](t, rec).Wishlist)

	rec = h.do(t, http.MethodPost, base+"/videos/"+videoID.String()+"/toggle", learner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	toggled := decode[types.ToggleResult](t, rec)
	assert.True(t, toggled.Completion.Completed)
	assert.Equal(t, 50, toggled.Progress.Percent)
	assert.True(t, toggled.Progress.Synced)

	rec = h.do(t, http.MethodGet, "/api/me/enrollments", learner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	enrolled := decode[struct {
		Enrollments []types.EnrolledCourse `json:"enrollments"`
	}](t, rec).Enrollments
	require.Len(t, enrolled, 1)
	assert.Equal(t, 50, enrolled[0].Enrollment.Progress)

	rec = h.do(t, http.MethodPost, base+"/videos/"+uuid.NewString()+"/toggle", learner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodGet, base+"/membership", learner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "enrolled", decode[map[string]any](t, rec)["state"])
}

func TestAdminSaveTreeDeletesByBaseline(t *testing.T) {
	h := setup(t)
	admin := h.token(t, uuid.New(), testAdminRole)
	course, tree := testutil.SeedCourseTree(t, context.Background(), h.db, 2)
	path := "/api/admin/courses/" + course.ID.String() + "/tree"

	rec := h.do(t, http.MethodGet, path, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	opened := decode[map[string]any](t, rec)

	keep := tree[0].Videos[0]
	body := map[string]any{
		"course": opened["course"],
		"modules": []map[string]any{{
			"ref":   map[string]any{"id": tree[0].ID},
			"title": tree[0].Title,
			"videos": []map[string]any{{
				"ref":       map[string]any{"id": keep.ID},
				"title":     "Renamed",
				"video_ref": keep.VideoRef,
			}},
		}},
		"baseline": opened["baseline"],
	}
	rec = h.do(t, http.MethodPut, path, admin, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[saveBody](t, rec)
	assert.Equal(t, 1, saved.Report.Planned.VideoDeletes)
	assert.Equal(t, types.SaveStatus("succeeded"), saved.Report.Status)
	assert.Equal(t, []uuid.UUID{keep.ID}, saved.Tree.Baseline.VideoIDs)

	var n int64
	require.NoError(t, h.db.Model(&types.Video{}).Where("module_id = ?", tree[0].ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestAdminSaveRejectsInvalidDraft(t *testing.T) {
	h := setup(t)
	admin := h.token(t, uuid.New(), testAdminRole)
	req := newCourseRequest()
	req["course"] = map[string]any{"title": " ", "difficulty": "Expert"}

	rec := h.do(t, http.MethodPost, "/api/admin/courses", admin, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decode[errorBody](t, rec).Error.Code)

	rec = h.do(t, http.MethodPut, "/api/admin/courses/"+uuid.NewString()+"/tree", admin, newCourseRequest())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminDeleteAndRecount(t *testing.T) {
	h := setup(t)
	ctx := context.Background()
	admin := h.token(t, uuid.New(), testAdminRole)
	course := testutil.SeedCourse(t, ctx, h.db, "to delete")
	testutil.SeedEnrollment(t, ctx, h.db, uuid.New(), course.ID, 0)

	rec := h.do(t, http.MethodPost, "/api/admin/courses/"+course.ID.String()+"/recount", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["enrollment_count"])

	rec = h.do(t, http.MethodDelete, "/api/admin/courses/"+course.ID.String(), admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/courses/"+course.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
