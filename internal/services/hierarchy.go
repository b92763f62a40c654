package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/vinnu2910/edutainverse/internal/data/repos"
	types "github.com/vinnu2910/edutainverse/internal/domain"
	"github.com/vinnu2910/edutainverse/internal/domain/apperr"
	"github.com/vinnu2910/edutainverse/internal/observability"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
)

const fallbackVideoFetchLimit = 4

type HierarchyService interface {
	// LoadTree never fails: if both query paths fail it returns an empty tree,
	// which readers treat as "no content yet".
	LoadTree(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) []*types.ModuleTree
	// LoadTreeStrict is LoadTree for writers that must not mistake an outage
	// for an empty course.
	LoadTreeStrict(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.ModuleTree, error)
}

type hierarchyService struct {
	db         *gorm.DB
	log        *logger.Logger
	moduleRepo repos.ModuleRepo
	videoRepo  repos.VideoRepo
	metrics    *observability.Metrics
}

func NewHierarchyService(
	db *gorm.DB,
	baseLog *logger.Logger,
	moduleRepo repos.ModuleRepo,
	videoRepo repos.VideoRepo,
) HierarchyService {
	serviceLog := baseLog.With("service", "HierarchyService")
	return &hierarchyService{
		db:         db,
		log:        serviceLog,
		moduleRepo: moduleRepo,
		videoRepo:  videoRepo,
		metrics:    observability.Current(),
	}
}

func (hs *hierarchyService) LoadTree(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) []*types.ModuleTree {
	tree, degraded, err := hs.load(ctx, tx, courseID)
	if err != nil {
		hs.log.Error("Course tree unavailable, serving empty tree", "course_id", courseID, "error", err)
		hs.metrics.ObserveTreeLoad(ctx, "empty")
		return []*types.ModuleTree{}
	}
	if degraded != nil {
		hs.log.Warn("Serving course tree with modules missing videos", "course_id", courseID, "error", degraded)
	}
	return tree
}

func (hs *hierarchyService) LoadTreeStrict(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.ModuleTree, error) {
	tree, degraded, err := hs.load(ctx, tx, courseID)
	if err != nil {
		return nil, err
	}
	if degraded != nil {
		return nil, apperr.Wrap(apperr.CodePersistence, "LoadTreeStrict", fmt.Errorf("load course tree: %w", degraded))
	}
	return tree, nil
}

// load returns the tree, a non-nil degraded error when the fallback had to
// drop some modules' videos, and err when no tree could be built at all.
func (hs *hierarchyService) load(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.ModuleTree, error, error) {
	ctx, span := observability.Tracer().Start(ctx, "hierarchy.LoadTree")
	defer span.End()
	span.SetAttributes(attribute.String("course.id", courseID.String()))

	tree, err := hs.moduleRepo.GetByCourseIDWithVideos(ctx, tx, courseID)
	if err == nil {
		hs.metrics.ObserveTreeLoad(ctx, "embedded")
		span.SetAttributes(attribute.String("hierarchy.path", "embedded"))
		return tree, nil, nil
	}
	hs.log.Warn("Embedded tree query failed, falling back to per-module fetch", "course_id", courseID, "error", err)

	tree, degraded, ferr := hs.loadTreeFallback(ctx, tx, courseID)
	if ferr != nil {
		span.RecordError(ferr)
		span.SetStatus(codes.Error, "tree load failed")
		return nil, nil, apperr.Wrap(apperr.CodePersistence, "LoadTree", fmt.Errorf("load course tree: %w", ferr))
	}
	if degraded != nil {
		span.RecordError(degraded)
		span.SetAttributes(attribute.Bool("hierarchy.degraded", true))
	}
	hs.metrics.ObserveTreeLoad(ctx, "fallback")
	span.SetAttributes(attribute.String("hierarchy.path", "fallback"))
	return tree, degraded, nil
}

// loadTreeFallback lists modules, then videos per module. A module whose
// videos cannot be listed is kept with no videos and its error is joined
// into degraded.
func (hs *hierarchyService) loadTreeFallback(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (tree []*types.ModuleTree, degraded error, err error) {
	modules, err := hs.moduleRepo.GetByCourseID(ctx, tx, courseID)
	if err != nil {
		return nil, nil, err
	}

	tree = make([]*types.ModuleTree, len(modules))
	failures := make([]error, len(modules))
	fetch := func(i int) {
		m := modules[i]
		videos, verr := hs.videoRepo.GetByModuleID(ctx, tx, m.ID)
		if verr != nil {
			hs.log.Warn("Video listing failed for module", "course_id", courseID, "module_id", m.ID, "error", verr)
			failures[i] = fmt.Errorf("module %s videos: %w", m.ID, verr)
			videos = []*types.Video{}
		}
		if videos == nil {
			videos = []*types.Video{}
		}
		tree[i] = &types.ModuleTree{Module: *m, Videos: videos}
	}

	// A transaction is bound to one connection, so its queries stay serial.
	if tx != nil {
		for i := range modules {
			fetch(i)
		}
		return tree, errors.Join(failures...), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fallbackVideoFetchLimit)
	for i := range modules {
		i := i
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			fetch(i)
			return nil
		})
	}
	_ = g.Wait()
	for i, node := range tree {
		if node == nil {
			tree[i] = &types.ModuleTree{Module: *modules[i], Videos: []*types.Video{}}
			failures[i] = fmt.Errorf("module %s videos not fetched: %w", modules[i].ID, context.Cause(gctx))
		}
	}
	return tree, errors.Join(failures...), nil
}
