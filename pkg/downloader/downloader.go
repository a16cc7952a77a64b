// Package downloader materializes resolved projects into verified local
// files and registers them in the package index. Downloads are
// hash-checked; a mismatch aborts the run and cleans up after itself,
// so a file referenced from the index always matches its recorded hash.
package downloader

import (
	"context"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/modsmith/modsmith/pkg/errors"
	"github.com/modsmith/modsmith/pkg/index"
	"github.com/modsmith/modsmith/pkg/logging"
	"github.com/modsmith/modsmith/pkg/modrinth"
	"github.com/modsmith/modsmith/pkg/resolver"
	"github.com/modsmith/modsmith/pkg/types"
)

// Item statuses reported per project.
const (
	StatusDownloaded = "downloaded"
	StatusCached     = "cached"
	StatusSkipped    = "skipped"
)

// defaultConcurrency bounds parallel downloads.
const defaultConcurrency = 4

// versionCacheSize bounds the per-downloader version memo.
const versionCacheSize = 4096

// Options configure a Downloader.
type Options struct {
	// GameVersion is the active Minecraft version.
	GameVersion string
	// Loader is the active mod loader.
	Loader string
	// OutputDir is where artifact files are written, e.g. "<project>/mods".
	OutputDir string
	// PathPrefix prefixes index entry paths, e.g. "mods". Index paths
	// always use forward slashes regardless of platform.
	PathPrefix string
	// Concurrency caps parallel downloads (default 4).
	Concurrency int
	// OnItem, when set, is called once per finished project. Calls are
	// serialized but may arrive in any order.
	OnItem func(ItemResult)
}

// ItemResult is the per-project outcome of a download pass.
type ItemResult struct {
	ProjectID string
	Filename  string
	Version   string
	Status    string
	// Warning explains a skip; empty otherwise.
	Warning string

	entry *index.FileEntry
}

// Downloader downloads artifacts for resolved project ids. Workers only
// fetch and verify; the coordinating goroutine alone mutates the index,
// after all workers have finished.
type Downloader struct {
	client *modrinth.Client
	fs     types.FS
	opts   Options
	logger zerolog.Logger

	// versionCache memoizes version lists per project id, so repeated
	// passes with one Downloader hit the network at most once per id.
	versionCache *lru.Cache[string, []modrinth.ProjectVersion]

	mu sync.Mutex // serializes OnItem
}

// New creates a Downloader.
func New(client *modrinth.Client, fs types.FS, opts Options) *Downloader {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.PathPrefix == "" {
		opts.PathPrefix = "mods"
	}

	// Cache construction only fails on a non-positive size.
	versionCache, _ := lru.New[string, []modrinth.ProjectVersion](versionCacheSize)

	return &Downloader{
		client:       client,
		fs:           fs,
		opts:         opts,
		logger:       logging.GetLogger("downloader"),
		versionCache: versionCache,
	}
}

// DownloadAll materializes every project id into OutputDir and upserts
// the results into ix. Already-registered files whose on-disk sha1
// still matches are skipped without any network traffic.
//
// Per-project network failures and incompatibilities degrade to skipped
// items. A hash mismatch is fatal: the partial file is deleted, the
// index is left completely untouched, and an INTEGRITY error is
// returned for the whole call.
//
// Index entries are upserted in ascending project-id order, and cache
// hits never touch their existing entry, so re-running against an
// unchanged catalog reproduces the index byte-for-byte.
func (d *Downloader) DownloadAll(ctx context.Context, projectIDs []string, ix *index.Index) ([]ItemResult, error) {
	ids := append([]string(nil), projectIDs...)
	sort.Strings(ids)

	results := make([]ItemResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)
	for i, projectID := range ids {
		i, projectID := i, projectID
		g.Go(func() error {
			res, err := d.downloadProject(gctx, projectID, ix)
			if err != nil {
				return err
			}
			results[i] = res
			d.notify(res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Single writer: upserts happen only here, after every worker is done.
	for i := range results {
		if results[i].entry != nil {
			ix.Upsert(*results[i].entry)
		}
	}
	return results, nil
}

// downloadProject fetches, selects, verifies and stages one project.
// It returns an error only for conditions that must abort the pass.
func (d *Downloader) downloadProject(ctx context.Context, projectID string, ix *index.Index) (ItemResult, error) {
	skip := func(reason string) (ItemResult, error) {
		d.logger.Warn().Str("project", projectID).Msg(reason)
		return ItemResult{ProjectID: projectID, Status: StatusSkipped, Warning: reason}, nil
	}

	versions, err := d.fetchVersions(ctx, projectID)
	if err != nil {
		return skip("failed to fetch versions: " + err.Error())
	}

	version := resolver.SelectVersion(versions, d.opts.GameVersion, d.opts.Loader)
	if version == nil {
		return skip("no compatible version for " + d.opts.GameVersion + "/" + d.opts.Loader)
	}

	file, ok := version.PrimaryFile()
	if !ok {
		return skip("version " + version.VersionNumber + " has no files")
	}

	indexPath := d.opts.PathPrefix + "/" + file.Filename
	dest := filepath.Join(d.opts.OutputDir, file.Filename)

	if d.isCached(ix, indexPath, dest, file.Hashes.SHA1) {
		d.logger.Debug().Str("file", file.Filename).Msg("Cache hit")
		return ItemResult{
			ProjectID: projectID,
			Filename:  file.Filename,
			Version:   version.VersionNumber,
			Status:    StatusCached,
		}, nil
	}

	data, err := d.client.FetchFile(ctx, file.URL)
	if err != nil {
		return skip("download failed: " + err.Error())
	}

	if err := d.fs.MkdirAll(d.opts.OutputDir, 0755); err != nil {
		return ItemResult{}, errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", d.opts.OutputDir)
	}
	if err := d.fs.WriteFile(dest, data, 0644); err != nil {
		return ItemResult{}, errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", dest)
	}

	sha1sum := hashSHA1(data)
	sha512sum := hashSHA512(data)

	if sha1sum != file.Hashes.SHA1 {
		_ = d.fs.Remove(dest)
		return ItemResult{}, errors.Newf(errors.ErrIntegrity,
			"hash mismatch for %s: expected sha1 %s, got %s",
			file.Filename, file.Hashes.SHA1, sha1sum).
			WithDetail("filename", file.Filename).
			WithDetail("expected", file.Hashes.SHA1).
			WithDetail("actual", sha1sum)
	}

	d.logger.Info().
		Str("file", file.Filename).
		Str("version", version.VersionNumber).
		Msg("Downloaded")

	return ItemResult{
		ProjectID: projectID,
		Filename:  file.Filename,
		Version:   version.VersionNumber,
		Status:    StatusDownloaded,
		entry: &index.FileEntry{
			Path:      indexPath,
			Hashes:    modrinth.Hashes{SHA1: sha1sum, SHA512: sha512sum},
			Env:       index.Env{Client: "required", Server: "required"},
			Downloads: []string{file.URL},
			FileSize:  file.Size,
		},
	}, nil
}

// fetchVersions returns the memoized version list for projectID,
// fetching it on first use.
func (d *Downloader) fetchVersions(ctx context.Context, projectID string) ([]modrinth.ProjectVersion, error) {
	if versions, ok := d.versionCache.Get(projectID); ok {
		return versions, nil
	}
	versions, err := d.client.ProjectVersions(ctx, projectID)
	if err != nil {
		return nil, err
	}
	d.versionCache.Add(projectID, versions)
	return versions, nil
}

// isCached reports whether indexPath is already registered and the
// local file still matches the expected sha1.
func (d *Downloader) isCached(ix *index.Index, indexPath, dest, expectedSHA1 string) bool {
	if _, ok := ix.Find(indexPath); !ok {
		return false
	}
	data, err := d.fs.ReadFile(dest)
	if err != nil {
		if !os.IsNotExist(err) {
			d.logger.Debug().Err(err).Str("path", dest).Msg("Cache check read failed")
		}
		return false
	}
	return hashSHA1(data) == expectedSHA1
}

func (d *Downloader) notify(res ItemResult) {
	if d.opts.OnItem == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opts.OnItem(res)
}

func hashSHA1(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

func hashSHA512(data []byte) string {
	sum := sha512.Sum512(data)
	return hex.EncodeToString(sum[:])
}
