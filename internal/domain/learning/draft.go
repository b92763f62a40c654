package learning

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vinnu2910/edutainverse/internal/domain/apperr"
	"github.com/vinnu2910/edutainverse/internal/platform/validate"
)

// CourseFields are the editable course-level attributes.
type CourseFields struct {
	Title          string     `json:"title" validate:"notblank,max=200"`
	Description    string     `json:"description" validate:"max=10000"`
	InstructorName string     `json:"instructor_name" validate:"notblank,max=200"`
	Difficulty     Difficulty `json:"difficulty" validate:"required,oneof=Beginner Average Advanced"`
	PriceCents     int64      `json:"price_cents" validate:"gte=0"`
	DurationLabel  string     `json:"duration_label" validate:"max=64"`
	ThumbnailRef   string     `json:"thumbnail_ref" validate:"max=2048"`
}

func FieldsFromCourse(c *Course) CourseFields {
	if c == nil {
		return CourseFields{}
	}
	return CourseFields{
		Title:          c.Title,
		Description:    c.Description,
		InstructorName: c.InstructorName,
		Difficulty:     c.Difficulty,
		PriceCents:     c.PriceCents,
		DurationLabel:  c.DurationLabel,
		ThumbnailRef:   c.ThumbnailRef,
	}
}

// ApplyTo copies the fields onto c, leaving identity and counters alone.
func (f CourseFields) ApplyTo(c *Course) {
	c.Title = strings.TrimSpace(f.Title)
	c.Description = f.Description
	c.InstructorName = strings.TrimSpace(f.InstructorName)
	c.Difficulty = f.Difficulty
	c.PriceCents = f.PriceCents
	c.DurationLabel = strings.TrimSpace(f.DurationLabel)
	c.ThumbnailRef = strings.TrimSpace(f.ThumbnailRef)
}

type VideoDraft struct {
	Ref           NodeRef `json:"ref" validate:"-"`
	Title         string  `json:"title" validate:"notblank,max=200"`
	VideoRef      string  `json:"video_ref" validate:"notblank,max=2048"`
	DurationLabel string  `json:"duration_label" validate:"max=64"`
}

type ModuleDraft struct {
	Ref         NodeRef       `json:"ref" validate:"-"`
	Title       string        `json:"title" validate:"notblank,max=200"`
	Description string        `json:"description" validate:"max=10000"`
	Videos      []*VideoDraft `json:"videos" validate:"dive,required"`
}

// Baseline holds the ids that were persisted when a draft was opened.
// Anything in it that is missing from the draft at save time gets deleted.
type Baseline struct {
	Captured  bool
	ModuleIDs IDSet
	VideoIDs  IDSet
}

func CaptureBaseline(tree []*ModuleTree) Baseline {
	b := Baseline{Captured: true, ModuleIDs: make(IDSet), VideoIDs: CourseVideoIDs(tree)}
	for _, m := range tree {
		if m != nil && m.ID != uuid.Nil {
			b.ModuleIDs[m.ID] = struct{}{}
		}
	}
	return b
}

// Restrict drops ids not present in actual, so a stale or forged baseline
// can never delete rows belonging to another course.
func (b Baseline) Restrict(actual Baseline) Baseline {
	return Baseline{
		Captured:  b.Captured,
		ModuleIDs: b.ModuleIDs.Intersect(actual.ModuleIDs),
		VideoIDs:  b.VideoIDs.Intersect(actual.VideoIDs),
	}
}

// CourseDraft is an editable course tree. Modules and videos are kept in
// display order; positions become order_index values on save.
type CourseDraft struct {
	Ref      NodeRef        `json:"ref" validate:"-"`
	Fields   CourseFields   `json:"course"`
	Modules  []*ModuleDraft `json:"modules" validate:"dive,required"`
	Baseline Baseline       `json:"-" validate:"-"`
}

func NewCourseDraft(fields CourseFields) *CourseDraft {
	return &CourseDraft{
		Ref:      NewPending(),
		Fields:   fields,
		Baseline: Baseline{Captured: true, ModuleIDs: make(IDSet), VideoIDs: make(IDSet)},
	}
}

// DraftFromTree opens a persisted course for editing and captures its
// baseline.
func DraftFromTree(course *Course, tree []*ModuleTree) *CourseDraft {
	d := &CourseDraft{
		Ref:      Persisted(course.ID),
		Fields:   FieldsFromCourse(course),
		Modules:  make([]*ModuleDraft, 0, len(tree)),
		Baseline: CaptureBaseline(tree),
	}
	for _, m := range tree {
		if m == nil {
			continue
		}
		md := &ModuleDraft{
			Ref:         Persisted(m.ID),
			Title:       m.Title,
			Description: m.Description,
			Videos:      make([]*VideoDraft, 0, len(m.Videos)),
		}
		for _, v := range m.Videos {
			if v == nil {
				continue
			}
			md.Videos = append(md.Videos, &VideoDraft{
				Ref:           Persisted(v.ID),
				Title:         v.Title,
				VideoRef:      v.VideoRef,
				DurationLabel: v.DurationLabel,
			})
		}
		d.Modules = append(d.Modules, md)
	}
	return d
}

func (d *CourseDraft) AddModule(title, description string) *ModuleDraft {
	m := &ModuleDraft{Ref: NewPending(), Title: title, Description: description}
	d.Modules = append(d.Modules, m)
	return m
}

func (d *CourseDraft) Module(ref NodeRef) *ModuleDraft {
	for _, m := range d.Modules {
		if m != nil && m.Ref == ref {
			return m
		}
	}
	return nil
}

func (d *CourseDraft) RemoveModule(ref NodeRef) bool {
	for i, m := range d.Modules {
		if m != nil && m.Ref == ref {
			d.Modules = append(d.Modules[:i], d.Modules[i+1:]...)
			return true
		}
	}
	return false
}

func (d *CourseDraft) MoveModule(from, to int) error {
	return move(d.Modules, from, to)
}

// TransferVideo moves a video into another module at position. A persisted
// video keeps its id and is re-parented on save.
func (d *CourseDraft) TransferVideo(video NodeRef, toModule NodeRef, position int) error {
	dst := d.Module(toModule)
	if dst == nil {
		return fmt.Errorf("module %s not in draft", toModule)
	}
	var found *VideoDraft
	for _, m := range d.Modules {
		if m == nil {
			continue
		}
		for i, v := range m.Videos {
			if v != nil && v.Ref == video {
				found = v
				m.Videos = append(m.Videos[:i], m.Videos[i+1:]...)
				break
			}
		}
		if found != nil {
			break
		}
	}
	if found == nil {
		return fmt.Errorf("video %s not in draft", video)
	}
	if position < 0 || position > len(dst.Videos) {
		position = len(dst.Videos)
	}
	dst.Videos = append(dst.Videos, nil)
	copy(dst.Videos[position+1:], dst.Videos[position:])
	dst.Videos[position] = found
	return nil
}

func (m *ModuleDraft) AddVideo(title, videoRef, durationLabel string) *VideoDraft {
	v := &VideoDraft{Ref: NewPending(), Title: title, VideoRef: videoRef, DurationLabel: durationLabel}
	m.Videos = append(m.Videos, v)
	return v
}

func (m *ModuleDraft) RemoveVideo(ref NodeRef) bool {
	for i, v := range m.Videos {
		if v != nil && v.Ref == ref {
			m.Videos = append(m.Videos[:i], m.Videos[i+1:]...)
			return true
		}
	}
	return false
}

func move[T any](items []T, from, to int) error {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return fmt.Errorf("move %d -> %d out of range (len=%d)", from, to, len(items))
	}
	if from == to {
		return nil
	}
	item := items[from]
	if from < to {
		copy(items[from:to], items[from+1:to+1])
	} else {
		copy(items[to+1:from+1], items[to:from])
	}
	items[to] = item
	return nil
}

// ValidateDraft checks field rules and ref consistency. It never touches
// storage.
func ValidateDraft(d *CourseDraft) error {
	const op = "ValidateDraft"
	if d == nil {
		return apperr.Validation(op, "draft is required")
	}

	var problems []string
	if err := validate.Struct(d); err != nil {
		problems = append(problems, validate.Messages(err)...)
	}

	moduleIDs := map[uuid.UUID]bool{}
	videoIDs := map[uuid.UUID]bool{}
	tempKeys := map[string]bool{}
	checkRef := func(path string, ref NodeRef, ids map[uuid.UUID]bool) {
		if !ref.Valid() {
			problems = append(problems, path+".ref: id or temp_key is required")
			return
		}
		if id, ok := ref.ID(); ok {
			if ids[id] {
				problems = append(problems, fmt.Sprintf("%s.ref: duplicate id %s", path, id))
			}
			ids[id] = true
			return
		}
		if tempKeys[ref.TempKey()] {
			problems = append(problems, fmt.Sprintf("%s.ref: duplicate temp_key %q", path, ref.TempKey()))
		}
		tempKeys[ref.TempKey()] = true
	}

	for i, m := range d.Modules {
		if m == nil {
			continue
		}
		mp := fmt.Sprintf("modules[%d]", i)
		checkRef(mp, m.Ref, moduleIDs)
		for j, v := range m.Videos {
			if v == nil {
				continue
			}
			checkRef(fmt.Sprintf("%s.videos[%d]", mp, j), v.Ref, videoIDs)
		}
	}

	if len(problems) > 0 {
		return apperr.New(apperr.CodeValidation, op, strings.Join(problems, "; "), nil)
	}
	return nil
}
