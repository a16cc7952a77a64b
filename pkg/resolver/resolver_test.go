package resolver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modsmith/modsmith/pkg/errors"
	"github.com/modsmith/modsmith/pkg/modrinth"
	"github.com/modsmith/modsmith/pkg/policy"
	"github.com/modsmith/modsmith/pkg/resolver"
	"github.com/modsmith/modsmith/pkg/testutil"
)

// fakeModrinth is an httptest-backed Modrinth API stub that counts
// requests per endpoint so tests can assert on caching behavior.
type fakeModrinth struct {
	mu           sync.Mutex
	searchCalls  map[string]int
	versionCalls map[string]int

	hits     map[string][]modrinth.Hit            // search query -> hits
	versions map[string][]modrinth.ProjectVersion // project id -> versions

	server *httptest.Server
}

func newFakeModrinth(t *testing.T) *fakeModrinth {
	t.Helper()
	f := &fakeModrinth{
		searchCalls:  make(map[string]int),
		versionCalls: make(map[string]int),
		hits:         make(map[string][]modrinth.Hit),
		versions:     make(map[string][]modrinth.ProjectVersion),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		f.mu.Lock()
		f.searchCalls[query]++
		hits := f.hits[query]
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(modrinth.SearchResult{Hits: hits})
	})
	mux.HandleFunc("/project/", func(w http.ResponseWriter, r *http.Request) {
		projectID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/project/"), "/version")
		f.mu.Lock()
		f.versionCalls[projectID]++
		versions, ok := f.versions[projectID]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(versions)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeModrinth) client() *modrinth.Client {
	return modrinth.NewClient(modrinth.ClientConfig{
		BaseURL:   f.server.URL,
		UserAgent: "modsmith-test",
	})
}

// addMod registers a searchable mod with one fabric release for 1.21.1.
func (f *fakeModrinth) addMod(slug, projectID string, deps ...modrinth.Dependency) {
	f.hits[slug] = []modrinth.Hit{{
		ProjectID:   projectID,
		ProjectType: "mod",
		Slug:        slug,
		Versions:    []string{"1.21.1"},
	}}
	f.versions[projectID] = []modrinth.ProjectVersion{{
		ID:            projectID + "-v1",
		ProjectID:     projectID,
		VersionNumber: "1.0.0",
		VersionType:   "release",
		DatePublished: time.Now(),
		GameVersions:  []string{"1.21.1"},
		Loaders:       []string{"fabric"},
		Dependencies:  deps,
	}}
}

func newResolver(f *fakeModrinth, engine *policy.Engine) *resolver.Resolver {
	if engine == nil {
		engine = policy.NewEngine(nil)
	}
	return resolver.New(engine, f.client(), resolver.Options{
		GameVersion: "1.21.1",
		Loader:      "fabric",
	})
}

func TestResolveSingleMod(t *testing.T) {
	fake := newFakeModrinth(t)
	fake.addMod("sodium", "AANobbMI")

	result, err := newResolver(fake, nil).Resolve(context.Background(), []string{"sodium"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AANobbMI"}, result.ProjectIDs)
	assert.Empty(t, result.Warnings)
}

func TestResolveFollowsRequiredDependencies(t *testing.T) {
	fake := newFakeModrinth(t)
	fake.addMod("iris", "YL57xq9U",
		modrinth.Dependency{DependencyType: modrinth.DependencyRequired, ProjectID: "AANobbMI"})
	fake.versions["AANobbMI"] = []modrinth.ProjectVersion{{
		ID: "sodium-v1", ProjectID: "AANobbMI", VersionNumber: "1.0.0",
		VersionType: "release", GameVersions: []string{"1.21.1"}, Loaders: []string{"fabric"},
		Dependencies: []modrinth.Dependency{
			{DependencyType: modrinth.DependencyRequired, ProjectID: "5aaWibi9"},
		},
	}}
	fake.versions["5aaWibi9"] = []modrinth.ProjectVersion{{
		ID: "leaf-v1", ProjectID: "5aaWibi9", VersionNumber: "1.0.0",
		VersionType: "release", GameVersions: []string{"1.21.1"}, Loaders: []string{"fabric"},
	}}

	result, err := newResolver(fake, nil).Resolve(context.Background(), []string{"iris"})
	require.NoError(t, err)
	testutil.AssertSetEqual(t, []string{"5aaWibi9", "AANobbMI", "YL57xq9U"}, result.ProjectIDs)
}

func TestResolveIncludesOptionalDependencies(t *testing.T) {
	fake := newFakeModrinth(t)
	fake.addMod("sodium", "AANobbMI",
		modrinth.Dependency{DependencyType: modrinth.DependencyOptional, ProjectID: "opt1"})
	fake.versions["opt1"] = []modrinth.ProjectVersion{{
		ID: "opt1-v1", ProjectID: "opt1", VersionNumber: "1.0.0",
		VersionType: "release", GameVersions: []string{"1.21.1"}, Loaders: []string{"fabric"},
	}}

	result, err := newResolver(fake, nil).Resolve(context.Background(), []string{"sodium"})
	require.NoError(t, err)
	testutil.AssertSetEqual(t, []string{"AANobbMI", "opt1"}, result.ProjectIDs)
}

func TestResolveIgnoresEmbeddedDependencies(t *testing.T) {
	fake := newFakeModrinth(t)
	fake.addMod("sodium", "AANobbMI",
		modrinth.Dependency{DependencyType: modrinth.DependencyEmbedded, ProjectID: "emb1"})

	result, err := newResolver(fake, nil).Resolve(context.Background(), []string{"sodium"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AANobbMI"}, result.ProjectIDs)
}

func TestResolveConflictAborts(t *testing.T) {
	fake := newFakeModrinth(t)
	fake.addMod("alpha", "idAlpha",
		modrinth.Dependency{DependencyType: modrinth.DependencyIncompatible, ProjectID: "idOmega"})
	fake.addMod("omega", "idOmega")

	_, err := newResolver(fake, nil).Resolve(context.Background(), []string{"alpha", "omega"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrConflict, errors.GetErrorCode(err))

	// The error must name both projects involved.
	details := errors.GetErrorDetails(err)
	assert.Equal(t, "idAlpha", details["project"])
	assert.Equal(t, "idOmega", details["incompatibleWith"])
}

func TestResolveIncompatibleWithUnresolvedTargetIsIgnored(t *testing.T) {
	fake := newFakeModrinth(t)
	fake.addMod("alpha", "idAlpha",
		modrinth.Dependency{DependencyType: modrinth.DependencyIncompatible, ProjectID: "idNeverRequested"})

	result, err := newResolver(fake, nil).Resolve(context.Background(), []string{"alpha"})
	require.NoError(t, err)
	assert.Equal(t, []string{"idAlpha"}, result.ProjectIDs)
}

func TestResolveUnknownSlugWarns(t *testing.T) {
	fake := newFakeModrinth(t)

	result, err := newResolver(fake, nil).Resolve(context.Background(), []string{"ghost"})
	require.NoError(t, err)
	assert.Empty(t, result.ProjectIDs)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "ghost", result.Warnings[0].Subject)
}

func TestResolveNoCompatibleVersionWarnsButKeepsProject(t *testing.T) {
	fake := newFakeModrinth(t)
	fake.hits["oldmod"] = []modrinth.Hit{{
		ProjectID: "idOld", ProjectType: "mod", Slug: "oldmod", Versions: []string{"1.21.1"},
	}}
	fake.versions["idOld"] = []modrinth.ProjectVersion{{
		ID: "old-v1", ProjectID: "idOld", VersionNumber: "0.1.0",
		VersionType: "release", GameVersions: []string{"1.19.2"}, Loaders: []string{"fabric"},
	}}

	result, err := newResolver(fake, nil).Resolve(context.Background(), []string{"oldmod"})
	require.NoError(t, err)
	// The project stays resolved; it just contributes no dependencies.
	assert.Equal(t, []string{"idOld"}, result.ProjectIDs)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "idOld", result.Warnings[0].Subject)
}

func TestResolveMemoizesSearchesAndVersions(t *testing.T) {
	fake := newFakeModrinth(t)
	fake.addMod("sodium", "AANobbMI")

	r := newResolver(fake, nil)
	_, err := r.Resolve(context.Background(), []string{"sodium"})
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), []string{"sodium"})
	require.NoError(t, err)

	assert.Equal(t, 1, fake.searchCalls["sodium"], "slug searched more than once")
	assert.Equal(t, 1, fake.versionCalls["AANobbMI"], "versions fetched more than once")
}

func TestResolveSharedDependencyFetchedOnce(t *testing.T) {
	fake := newFakeModrinth(t)
	fake.addMod("iris", "idIris",
		modrinth.Dependency{DependencyType: modrinth.DependencyRequired, ProjectID: "idShared"})
	fake.addMod("lithium", "idLithium",
		modrinth.Dependency{DependencyType: modrinth.DependencyRequired, ProjectID: "idShared"})
	fake.versions["idShared"] = []modrinth.ProjectVersion{{
		ID: "shared-v1", ProjectID: "idShared", VersionNumber: "1.0.0",
		VersionType: "release", GameVersions: []string{"1.21.1"}, Loaders: []string{"fabric"},
	}}

	result, err := newResolver(fake, nil).Resolve(context.Background(), []string{"iris", "lithium"})
	require.NoError(t, err)
	testutil.AssertSetEqual(t, []string{"idIris", "idLithium", "idShared"}, result.ProjectIDs)
	assert.Equal(t, 1, fake.versionCalls["idShared"])
}

func TestResolveAppliesPolicy(t *testing.T) {
	fake := newFakeModrinth(t)
	fake.addMod("sodium", "AANobbMI")
	fake.addMod("indium", "Orvt0mRa")

	engine := policy.NewEngine(map[string]policy.Rule{
		"sodium": {SubMods: []string{"indium"}},
	})

	result, err := newResolver(fake, engine).Resolve(context.Background(), []string{"sodium"})
	require.NoError(t, err)
	testutil.AssertSetEqual(t, []string{"AANobbMI", "Orvt0mRa"}, result.ProjectIDs)
}

func TestResolveIsIdempotent(t *testing.T) {
	fake := newFakeModrinth(t)
	fake.addMod("iris", "idIris",
		modrinth.Dependency{DependencyType: modrinth.DependencyRequired, ProjectID: "idSodium"})
	fake.versions["idSodium"] = []modrinth.ProjectVersion{{
		ID: "sodium-v1", ProjectID: "idSodium", VersionNumber: "1.0.0",
		VersionType: "release", GameVersions: []string{"1.21.1"}, Loaders: []string{"fabric"},
	}}

	first, err := newResolver(fake, nil).Resolve(context.Background(), []string{"iris"})
	require.NoError(t, err)
	second, err := newResolver(fake, nil).Resolve(context.Background(), []string{"iris"})
	require.NoError(t, err)
	assert.Equal(t, first.ProjectIDs, second.ProjectIDs)
}
