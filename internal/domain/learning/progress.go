package learning

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDSet is an unordered set of entity ids.
type IDSet map[uuid.UUID]struct{}

func NewIDSet(ids ...uuid.UUID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		if id != uuid.Nil {
			s[id] = struct{}{}
		}
	}
	return s
}

func (s IDSet) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Intersect returns the ids present in both sets.
func (s IDSet) Intersect(other IDSet) IDSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(IDSet, len(small))
	for id := range small {
		if large.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Sorted returns the ids in a stable order for responses and tests.
func (s IDSet) Sorted() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// ComputeProgress returns round(100*|completed|/total), ties rounding up, or 0
// for a course without videos. Completed counts above total clamp to 100.
func ComputeProgress(totalVideoCount int, completed IDSet) int {
	return ProgressPercent(totalVideoCount, len(completed))
}

func ProgressPercent(total, completed int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return (200*completed + total) / (2 * total)
}

// CourseVideoIDs collects every video id in a loaded tree.
func CourseVideoIDs(tree []*ModuleTree) IDSet {
	out := make(IDSet)
	for _, m := range tree {
		if m == nil {
			continue
		}
		for _, v := range m.Videos {
			if v != nil && v.ID != uuid.Nil {
				out[v.ID] = struct{}{}
			}
		}
	}
	return out
}

type CompletionState struct {
	VideoID     uuid.UUID  `json:"video_id"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CourseProgress is a learner's derived progress for one course.
type CourseProgress struct {
	CourseID          uuid.UUID   `json:"course_id"`
	TotalVideos       int         `json:"total_videos"`
	CompletedVideoIDs []uuid.UUID `json:"completed_video_ids"`
	Percent           int         `json:"percent"`
	Enrolled          bool        `json:"enrolled"`
	// EnrollmentProgress is the value stored on the enrollment after this
	// computation; it differs from Percent only under the monotonic policy.
	EnrollmentProgress int `json:"enrollment_progress"`
	// Synced reports whether this computation wrote to the enrollment row.
	Synced bool `json:"synced"`
}

// ToggleResult pairs a completion flip with the course progress it caused.
type ToggleResult struct {
	Completion CompletionState `json:"completion"`
	Progress   CourseProgress  `json:"progress"`
}

// ProgressPolicy decides which value is written back to an enrollment.
type ProgressPolicy string

const (
	// ProgressRecompute always writes the freshly computed value, so progress
	// drops when videos are added or un-completed.
	ProgressRecompute ProgressPolicy = "recompute"
	// ProgressMonotonic never writes a value below the stored one.
	ProgressMonotonic ProgressPolicy = "monotonic"
)

func ParseProgressPolicy(raw string) ProgressPolicy {
	if strings.EqualFold(strings.TrimSpace(raw), string(ProgressMonotonic)) {
		return ProgressMonotonic
	}
	return ProgressRecompute
}

// Resolve picks the value to persist given the stored and computed values.
func (p ProgressPolicy) Resolve(stored, computed int) int {
	if p == ProgressMonotonic && stored > computed {
		return stored
	}
	return computed
}
