package resolver

import (
	"context"

	"github.com/modsmith/modsmith/pkg/modrinth"
)

// SearchName maps a mod slug to its stable Modrinth project id. Exact
// slug matches win; otherwise the first hit that is a mod and supports
// the active game version is taken. An empty id with a nil error means
// nothing qualified, which is not an error condition.
//
// Results (including misses) are memoized, so a slug is searched at
// most once per resolver lifetime.
func (r *Resolver) SearchName(ctx context.Context, slug string) (string, error) {
	if id, ok := r.searchCache.Get(slug); ok {
		return id, nil
	}

	result, err := r.client.Search(ctx, slug, modrinth.SearchOptions{
		GameVersions: []string{r.gameVersion},
		Loaders:      []string{r.loader},
		Limit:        r.searchLimit,
	})
	if err != nil {
		return "", err
	}

	id := pickHit(result.Hits, slug, r.gameVersion)
	r.searchCache.Add(slug, id)
	return id, nil
}

// pickHit selects a project id from search hits. Only hits of project
// type "mod" qualify, even on an exact slug match: a slug collision
// with a resourcepack must not resolve.
func pickHit(hits []modrinth.Hit, slug, gameVersion string) string {
	first := ""
	for _, hit := range hits {
		if hit.ProjectType != "mod" {
			continue
		}
		if hit.Slug == slug {
			return hit.ProjectID
		}
		if first == "" && hit.SupportsGameVersion(gameVersion) {
			first = hit.ProjectID
		}
	}
	return first
}
