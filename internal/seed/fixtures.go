// Package seed loads course fixtures from YAML and saves them through the
// course editor, so seeded data obeys the same ordering and validation rules
// as authored data.
package seed

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	types "github.com/vinnu2910/edutainverse/internal/domain"
	"github.com/vinnu2910/edutainverse/internal/domain/learning"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
	"github.com/vinnu2910/edutainverse/internal/services"
)

type File struct {
	Courses []Course `yaml:"courses"`
}

type Course struct {
	Title          string   `yaml:"title"`
	Description    string   `yaml:"description"`
	InstructorName string   `yaml:"instructor_name"`
	Difficulty     string   `yaml:"difficulty"`
	PriceCents     int64    `yaml:"price_cents"`
	DurationLabel  string   `yaml:"duration_label"`
	ThumbnailRef   string   `yaml:"thumbnail_ref"`
	Modules        []Module `yaml:"modules"`
}

type Module struct {
	Title       string  `yaml:"title"`
	Description string  `yaml:"description"`
	Videos      []Video `yaml:"videos"`
}

type Video struct {
	Title         string `yaml:"title"`
	VideoRef      string `yaml:"video_ref"`
	DurationLabel string `yaml:"duration_label"`
}

// Load decodes a fixture file. Unknown keys are rejected so typos do not
// silently drop content.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &f, nil
}

// Draft builds a pending course draft. Difficulty is matched
// case-insensitively; an unknown value is kept so validation reports it.
func (c Course) Draft() *types.CourseDraft {
	difficulty, ok := learning.ParseDifficulty(c.Difficulty)
	if !ok {
		difficulty = types.Difficulty(c.Difficulty)
	}
	d := learning.NewCourseDraft(types.CourseFields{
		Title:          c.Title,
		Description:    c.Description,
		InstructorName: c.InstructorName,
		Difficulty:     difficulty,
		PriceCents:     c.PriceCents,
		DurationLabel:  c.DurationLabel,
		ThumbnailRef:   c.ThumbnailRef,
	})
	for _, m := range c.Modules {
		md := d.AddModule(m.Title, m.Description)
		for _, v := range m.Videos {
			md.AddVideo(v.Title, v.VideoRef, v.DurationLabel)
		}
	}
	return d
}

type Result struct {
	Title  string
	Report *types.SaveReport
	Err    error
}

// Apply saves every course in order. One course failing does not stop the
// rest; the caller decides what a failed result means.
func Apply(ctx context.Context, log *logger.Logger, editor services.CourseEditorService, f *File) []Result {
	results := make([]Result, 0, len(f.Courses))
	for _, c := range f.Courses {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Title: c.Title, Err: err})
			continue
		}
		draft := c.Draft()
		report, err := editor.Save(ctx, nil, draft)
		if err == nil && report != nil {
			err = report.Err()
		}
		if err != nil {
			log.Warn("Seed course failed", "title", c.Title, "error", err)
		} else {
			log.Info("Seeded course", "title", c.Title, "course_id", report.CourseID, "items", report.Succeeded)
		}
		results = append(results, Result{Title: c.Title, Report: report, Err: err})
	}
	return results
}
