// Package resolver turns a requested set of mod slugs into the full set
// of Modrinth project ids that must be materialized: the policy closure
// of the request, plus every transitively required or optional
// dependency of each selected version.
package resolver

import (
	"context"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/modsmith/modsmith/pkg/errors"
	"github.com/modsmith/modsmith/pkg/logging"
	"github.com/modsmith/modsmith/pkg/modrinth"
	"github.com/modsmith/modsmith/pkg/policy"
)

const (
	// defaultBatchSize bounds concurrent version fetches per wave.
	defaultBatchSize = 10

	// defaultSearchConcurrency bounds concurrent slug searches.
	defaultSearchConcurrency = 8

	// cacheSize bounds the per-resolver memo caches. A modpack closure
	// is far smaller than this in practice.
	cacheSize = 4096
)

// Options configure a Resolver.
type Options struct {
	// GameVersion is the active Minecraft version, e.g. "1.21.1".
	GameVersion string
	// Loader is the active mod loader, e.g. "fabric".
	Loader string
	// BatchSize caps in-flight version fetches per wave (default 10).
	BatchSize int
	// SearchConcurrency caps concurrent slug searches (default 8).
	SearchConcurrency int
	// SearchLimit is how many hits to request per search.
	SearchLimit int
}

// Resolver drives the dependency closure. One coordinating goroutine
// owns all mutable state; worker goroutines only perform network calls
// and write their own result slots.
type Resolver struct {
	policy      *policy.Engine
	client      *modrinth.Client
	gameVersion string
	loader      string

	batchSize         int
	searchConcurrency int
	searchLimit       int

	searchCache  *lru.Cache[string, string]
	versionCache *lru.Cache[string, []modrinth.ProjectVersion]

	logger zerolog.Logger
}

// Warning is a non-fatal per-item resolution problem. The pass
// continues past these; only conflicts abort it.
type Warning struct {
	// Subject is the slug or project id the warning is about.
	Subject string
	// Reason is a human-readable explanation.
	Reason string
}

// Result is the outcome of one resolution pass.
type Result struct {
	// ProjectIDs is the resolved closure, sorted for determinism.
	ProjectIDs []string
	// Warnings lists every skipped or degraded item.
	Warnings []Warning
}

// New creates a Resolver. The memo caches live as long as the Resolver,
// so one Resolver corresponds to one resolution pass against one
// snapshot of the remote catalog.
func New(policyEngine *policy.Engine, client *modrinth.Client, opts Options) *Resolver {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.SearchConcurrency <= 0 {
		opts.SearchConcurrency = defaultSearchConcurrency
	}

	// Cache construction only fails on a non-positive size.
	searchCache, _ := lru.New[string, string](cacheSize)
	versionCache, _ := lru.New[string, []modrinth.ProjectVersion](cacheSize)

	return &Resolver{
		policy:            policyEngine,
		client:            client,
		gameVersion:       opts.GameVersion,
		loader:            opts.Loader,
		batchSize:         opts.BatchSize,
		searchConcurrency: opts.SearchConcurrency,
		searchLimit:       opts.SearchLimit,
		searchCache:       searchCache,
		versionCache:      versionCache,
		logger:            logging.GetLogger("resolver"),
	}
}

// Resolve expands the requested slugs by policy, resolves each to a
// project id, and walks the transitive dependency graph breadth-first.
// Each id enters the work queue at most once, so the traversal
// terminates within the size of the dependency graph.
//
// Per-item search and fetch failures degrade to warnings. An
// "incompatible" dependency edge against an already-resolved project
// aborts the whole pass with a CONFLICT error naming both ids.
func (r *Resolver) Resolve(ctx context.Context, mods []string) (*Result, error) {
	expanded := r.policy.Apply(mods)
	r.logger.Debug().
		Strs("requested", mods).
		Strs("expanded", expanded).
		Msg("Policy applied")

	result := &Result{}
	resolved := make(map[string]struct{})
	var queue []string

	// Phase 1: slug -> project id, concurrently with bounded fan-out.
	// Worker i writes only outcome slot i; the coordinator below is the
	// sole writer of resolved/queue.
	type searchOutcome struct {
		id  string
		err error
	}
	outcomes := make([]searchOutcome, len(expanded))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.searchConcurrency)
	for i, slug := range expanded {
		i, slug := i, slug
		g.Go(func() error {
			id, err := r.SearchName(gctx, slug)
			outcomes[i] = searchOutcome{id: id, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, slug := range expanded {
		outcome := outcomes[i]
		switch {
		case outcome.err != nil:
			r.warn(result, slug, "search failed: "+outcome.err.Error())
		case outcome.id == "":
			r.warn(result, slug, "no matching project")
		default:
			if _, ok := resolved[outcome.id]; !ok {
				resolved[outcome.id] = struct{}{}
				queue = append(queue, outcome.id)
			}
		}
	}

	// Phase 2: drain the queue in batches so at most batchSize version
	// fetches are in flight per wave.
	for len(queue) > 0 {
		n := len(queue)
		if n > r.batchSize {
			n = r.batchSize
		}
		batch := queue[:n]
		queue = queue[n:]

		fetchErrs := make([]error, len(batch))
		fg, fctx := errgroup.WithContext(ctx)
		for i, projectID := range batch {
			i, projectID := i, projectID
			fg.Go(func() error {
				fetchErrs[i] = r.primeVersions(fctx, projectID)
				return nil
			})
		}
		_ = fg.Wait()

		for i, projectID := range batch {
			if fetchErrs[i] != nil {
				r.warn(result, projectID, "failed to fetch versions: "+fetchErrs[i].Error())
				continue
			}
			versions, _ := r.versionCache.Get(projectID)

			version := SelectVersion(versions, r.gameVersion, r.loader)
			if version == nil {
				r.warn(result, projectID, "no compatible version for "+r.gameVersion+"/"+r.loader)
				continue
			}

			for _, dep := range version.Dependencies {
				if dep.ProjectID == "" {
					continue
				}
				switch dep.DependencyType {
				case modrinth.DependencyIncompatible:
					if _, ok := resolved[dep.ProjectID]; ok {
						return nil, errors.Newf(errors.ErrConflict,
							"project %s is incompatible with resolved project %s",
							projectID, dep.ProjectID).
							WithDetail("project", projectID).
							WithDetail("incompatibleWith", dep.ProjectID)
					}
				case modrinth.DependencyRequired, modrinth.DependencyOptional:
					if _, ok := resolved[dep.ProjectID]; !ok {
						resolved[dep.ProjectID] = struct{}{}
						queue = append(queue, dep.ProjectID)
					}
				}
			}
		}
	}

	result.ProjectIDs = make([]string, 0, len(resolved))
	for id := range resolved {
		result.ProjectIDs = append(result.ProjectIDs, id)
	}
	sort.Strings(result.ProjectIDs)

	r.logger.Info().
		Int("projects", len(result.ProjectIDs)).
		Int("warnings", len(result.Warnings)).
		Msg("Resolution complete")
	return result, nil
}

// primeVersions ensures the version cache holds projectID's versions.
func (r *Resolver) primeVersions(ctx context.Context, projectID string) error {
	if _, ok := r.versionCache.Get(projectID); ok {
		return nil
	}
	versions, err := r.client.ProjectVersions(ctx, projectID)
	if err != nil {
		return err
	}
	r.versionCache.Add(projectID, versions)
	return nil
}

func (r *Resolver) warn(result *Result, subject, reason string) {
	r.logger.Warn().Str("subject", subject).Msg(reason)
	result.Warnings = append(result.Warnings, Warning{Subject: subject, Reason: reason})
}
