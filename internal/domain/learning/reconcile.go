package learning

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vinnu2910/edutainverse/internal/domain/apperr"
)

type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

type EntityKind string

const (
	EntityCourse EntityKind = "course"
	EntityModule EntityKind = "module"
	EntityVideo  EntityKind = "video"
)

func opFor(ref NodeRef) OpKind {
	if ref.IsPending() {
		return OpCreate
	}
	return OpUpdate
}

type VideoOp struct {
	Kind     OpKind
	Ref      NodeRef
	Position int
	Draft    *VideoDraft
}

type ModuleOp struct {
	Kind     OpKind
	Ref      NodeRef
	Position int
	Draft    *ModuleDraft
	Videos   []VideoOp
}

// ReconcilePlan is the ordered list of writes that turns the persisted tree
// into the draft. Executing it is the caller's job.
type ReconcilePlan struct {
	CourseOp  OpKind
	CourseRef NodeRef
	Fields    CourseFields
	Modules   []ModuleOp
	// Deletes run after every create/update so a video moved between modules
	// is re-parented before its old module goes away.
	DeleteVideoIDs  []uuid.UUID
	DeleteModuleIDs []uuid.UUID
}

type PlanCounts struct {
	ModuleCreates int `json:"module_creates"`
	ModuleUpdates int `json:"module_updates"`
	ModuleDeletes int `json:"module_deletes"`
	VideoCreates  int `json:"video_creates"`
	VideoUpdates  int `json:"video_updates"`
	VideoDeletes  int `json:"video_deletes"`
}

func (c PlanCounts) Creates() int { return c.ModuleCreates + c.VideoCreates }
func (c PlanCounts) Deletes() int { return c.ModuleDeletes + c.VideoDeletes }

func (c PlanCounts) Total() int {
	return c.ModuleCreates + c.ModuleUpdates + c.ModuleDeletes + c.VideoCreates + c.VideoUpdates + c.VideoDeletes
}

// PlanReconcile diffs the draft against its baseline. Every node still in the
// draft is created or updated; baseline ids absent from the draft are deleted.
func PlanReconcile(d *CourseDraft, baseline Baseline) ReconcilePlan {
	plan := ReconcilePlan{
		CourseOp:  opFor(d.Ref),
		CourseRef: d.Ref,
		Fields:    d.Fields,
		Modules:   make([]ModuleOp, 0, len(d.Modules)),
	}

	keptModules := make(IDSet)
	keptVideos := make(IDSet)
	pos := 0
	for _, m := range d.Modules {
		if m == nil {
			continue
		}
		mop := ModuleOp{Kind: opFor(m.Ref), Ref: m.Ref, Position: pos, Draft: m}
		pos++
		if id, ok := m.Ref.ID(); ok {
			keptModules[id] = struct{}{}
		}
		vpos := 0
		for _, v := range m.Videos {
			if v == nil {
				continue
			}
			mop.Videos = append(mop.Videos, VideoOp{Kind: opFor(v.Ref), Ref: v.Ref, Position: vpos, Draft: v})
			vpos++
			if id, ok := v.Ref.ID(); ok {
				keptVideos[id] = struct{}{}
			}
		}
		plan.Modules = append(plan.Modules, mop)
	}

	for _, id := range baseline.VideoIDs.Sorted() {
		if !keptVideos.Has(id) {
			plan.DeleteVideoIDs = append(plan.DeleteVideoIDs, id)
		}
	}
	for _, id := range baseline.ModuleIDs.Sorted() {
		if !keptModules.Has(id) {
			plan.DeleteModuleIDs = append(plan.DeleteModuleIDs, id)
		}
	}
	return plan
}

func (p ReconcilePlan) Counts() PlanCounts {
	var c PlanCounts
	for _, m := range p.Modules {
		if m.Kind == OpCreate {
			c.ModuleCreates++
		} else {
			c.ModuleUpdates++
		}
		for _, v := range m.Videos {
			if v.Kind == OpCreate {
				c.VideoCreates++
			} else {
				c.VideoUpdates++
			}
		}
	}
	c.VideoDeletes = len(p.DeleteVideoIDs)
	c.ModuleDeletes = len(p.DeleteModuleIDs)
	return c
}

type SaveStatus string

const (
	SaveSucceeded          SaveStatus = "succeeded"
	SavePartiallySucceeded SaveStatus = "partially_succeeded"
	SaveFailed             SaveStatus = "failed"
)

// ItemOutcome records what happened to one node during a save.
type ItemOutcome struct {
	Entity  EntityKind `json:"entity"`
	Op      OpKind     `json:"op"`
	Ref     NodeRef    `json:"ref"`
	ID      uuid.UUID  `json:"id,omitempty"`
	Title   string     `json:"title,omitempty"`
	Skipped bool       `json:"skipped,omitempty"`
	Err     error      `json:"-"`
	Error   string     `json:"error,omitempty"`
}

func (o ItemOutcome) OK() bool { return o.Err == nil && !o.Skipped }

type SaveReport struct {
	CourseID  uuid.UUID     `json:"course_id"`
	Status    SaveStatus    `json:"status"`
	Planned   PlanCounts    `json:"planned"`
	Outcomes  []ItemOutcome `json:"outcomes"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
}

func NewSaveReport(plan ReconcilePlan) *SaveReport {
	return &SaveReport{
		Status:   SaveSucceeded,
		Planned:  plan.Counts(),
		Outcomes: make([]ItemOutcome, 0, plan.Counts().Total()+1),
	}
}

// Record appends an outcome and fills its error string.
func (r *SaveReport) Record(o ItemOutcome) {
	if o.Err != nil {
		o.Error = o.Err.Error()
	}
	r.Outcomes = append(r.Outcomes, o)
}

// Finalize tallies outcomes and sets Status. The course row is not counted
// as an item; a failed course save is reported separately as fatal.
func (r *SaveReport) Finalize() {
	r.Succeeded, r.Failed, r.Skipped = 0, 0, 0
	courseFailed := false
	for _, o := range r.Outcomes {
		if o.Entity == EntityCourse {
			courseFailed = courseFailed || o.Err != nil
			continue
		}
		switch {
		case o.Skipped:
			r.Skipped++
		case o.Err != nil:
			r.Failed++
		default:
			r.Succeeded++
		}
	}
	switch {
	case courseFailed:
		r.Status = SaveFailed
	case r.Failed == 0 && r.Skipped == 0:
		r.Status = SaveSucceeded
	case r.Succeeded == 0:
		r.Status = SaveFailed
	default:
		r.Status = SavePartiallySucceeded
	}
}

// Err summarises item failures as an apperr partial error, or nil when every
// item succeeded.
func (r *SaveReport) Err() error {
	var errs []error
	bad := 0
	total := 0
	for _, o := range r.Outcomes {
		if o.Entity == EntityCourse {
			continue
		}
		total++
		if o.OK() {
			continue
		}
		bad++
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	if bad == 0 {
		return nil
	}
	return apperr.Partial("SaveCourseTree", bad, total, errs)
}

// Cancelled reports whether any item failed because the context ended.
func (r *SaveReport) Cancelled() bool {
	for _, o := range r.Outcomes {
		if errors.Is(o.Err, context.Canceled) || errors.Is(o.Err, context.DeadlineExceeded) {
			return true
		}
	}
	return false
}

// ApplyReport rewrites pending refs that were created into persisted refs and
// recaptures the baseline. Failed deletes stay in the baseline so the next
// save retries them.
func (d *CourseDraft) ApplyReport(r *SaveReport) {
	created := map[EntityKind]map[string]uuid.UUID{
		EntityModule: {},
		EntityVideo:  {},
	}
	failedDeletes := map[EntityKind]IDSet{EntityModule: {}, EntityVideo: {}}
	for _, o := range r.Outcomes {
		switch {
		case o.Entity == EntityCourse && o.Err == nil && o.ID != uuid.Nil:
			d.Ref = Persisted(o.ID)
		case o.Op == OpCreate && o.OK() && o.Ref.IsPending():
			if m, ok := created[o.Entity]; ok {
				m[o.Ref.TempKey()] = o.ID
			}
		case o.Op == OpDelete && !o.OK():
			if s, ok := failedDeletes[o.Entity]; ok {
				s[o.ID] = struct{}{}
			}
		}
	}

	b := Baseline{Captured: true, ModuleIDs: make(IDSet), VideoIDs: make(IDSet)}
	for _, m := range d.Modules {
		if m == nil {
			continue
		}
		if m.Ref.IsPending() {
			if id, ok := created[EntityModule][m.Ref.TempKey()]; ok {
				m.Ref = Persisted(id)
			}
		}
		if id, ok := m.Ref.ID(); ok {
			b.ModuleIDs[id] = struct{}{}
		}
		for _, v := range m.Videos {
			if v == nil {
				continue
			}
			if v.Ref.IsPending() {
				if id, ok := created[EntityVideo][v.Ref.TempKey()]; ok {
					v.Ref = Persisted(id)
				}
			}
			if id, ok := v.Ref.ID(); ok {
				b.VideoIDs[id] = struct{}{}
			}
		}
	}
	for id := range failedDeletes[EntityModule] {
		b.ModuleIDs[id] = struct{}{}
	}
	for id := range failedDeletes[EntityVideo] {
		b.VideoIDs[id] = struct{}{}
	}
	d.Baseline = b
}
