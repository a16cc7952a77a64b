package resolver

import (
	"sort"
	"strings"

	"github.com/modsmith/modsmith/pkg/modrinth"
)

// channelPriority ranks release channels for version selection.
// Unknown channels rank below alpha.
func channelPriority(versionType string) int {
	switch versionType {
	case modrinth.ChannelRelease:
		return 3
	case modrinth.ChannelBeta:
		return 2
	case modrinth.ChannelAlpha:
		return 1
	default:
		return 0
	}
}

// SelectVersion picks the best version compatible with the given game
// version and loader: survivors of the compatibility filter are ordered
// by (channel priority, publish date) descending and the top entry wins.
// Returns nil when no version is compatible. The loader comparison is
// case-insensitive. The ordering is stable, so identical remote data
// always yields the same pick.
func SelectVersion(versions []modrinth.ProjectVersion, gameVersion, loader string) *modrinth.ProjectVersion {
	loader = strings.ToLower(loader)

	var compatible []modrinth.ProjectVersion
	for _, v := range versions {
		if !containsString(v.GameVersions, gameVersion) {
			continue
		}
		if !containsFold(v.Loaders, loader) {
			continue
		}
		compatible = append(compatible, v)
	}
	if len(compatible) == 0 {
		return nil
	}

	sort.SliceStable(compatible, func(i, j int) bool {
		pi, pj := channelPriority(compatible[i].VersionType), channelPriority(compatible[j].VersionType)
		if pi != pj {
			return pi > pj
		}
		return compatible[i].DatePublished.After(compatible[j].DatePublished)
	})

	return &compatible[0]
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func containsFold(haystack []string, lowered string) bool {
	for _, s := range haystack {
		if strings.ToLower(s) == lowered {
			return true
		}
	}
	return false
}
