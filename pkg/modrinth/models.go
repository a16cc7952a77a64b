package modrinth

import "time"

// Dependency kinds as reported by the versions endpoint.
const (
	DependencyRequired     = "required"
	DependencyOptional     = "optional"
	DependencyIncompatible = "incompatible"
	DependencyEmbedded     = "embedded"
)

// Release channels as reported in version_type.
const (
	ChannelRelease = "release"
	ChannelBeta    = "beta"
	ChannelAlpha   = "alpha"
)

// SearchResult is the response of the search endpoint.
type SearchResult struct {
	Hits []Hit `json:"hits"`
}

// Hit is a single project returned by search.
type Hit struct {
	ProjectID   string   `json:"project_id"`
	ProjectType string   `json:"project_type"`
	Slug        string   `json:"slug"`
	Categories  []string `json:"categories"`
	Versions    []string `json:"versions"`
}

// SupportsGameVersion reports whether the hit lists the given
// Minecraft version among its supported versions.
func (h Hit) SupportsGameVersion(version string) bool {
	for _, v := range h.Versions {
		if v == version {
			return true
		}
	}
	return false
}

// Dependency is one dependency edge declared by a project version.
// ProjectID may be empty for file-only dependencies.
type Dependency struct {
	DependencyType string `json:"dependency_type"`
	ProjectID      string `json:"project_id"`
	VersionID      string `json:"version_id"`
	FileName       string `json:"file_name"`
}

// Hashes holds the content hashes Modrinth publishes per file.
type Hashes struct {
	SHA1   string `json:"sha1"`
	SHA512 string `json:"sha512"`
}

// VersionFile is one downloadable artifact attached to a version.
type VersionFile struct {
	Hashes   Hashes `json:"hashes"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Primary  bool   `json:"primary"`
	Size     int64  `json:"size"`
}

// ProjectVersion is one release of a project.
type ProjectVersion struct {
	ID            string        `json:"id"`
	ProjectID     string        `json:"project_id"`
	VersionNumber string        `json:"version_number"`
	VersionType   string        `json:"version_type"`
	DatePublished time.Time     `json:"date_published"`
	Dependencies  []Dependency  `json:"dependencies"`
	Files         []VersionFile `json:"files"`
	GameVersions  []string      `json:"game_versions"`
	Loaders       []string      `json:"loaders"`
}

// IsRelease reports whether the version is on the release channel.
func (v ProjectVersion) IsRelease() bool {
	return v.VersionType == ChannelRelease
}

// PrimaryFile returns the file marked primary, falling back to the
// first file when none is marked. The second return is false when the
// version carries no files at all.
func (v ProjectVersion) PrimaryFile() (VersionFile, bool) {
	for _, f := range v.Files {
		if f.Primary {
			return f, true
		}
	}
	if len(v.Files) > 0 {
		return v.Files[0], true
	}
	return VersionFile{}, false
}
