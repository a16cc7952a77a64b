// Package index reads and writes the package index, the persisted
// manifest listing every file belonging to a materialized modpack in
// the Modrinth index format. Entries are keyed by install path.
package index

import (
	"encoding/json"
	"path/filepath"

	"github.com/modsmith/modsmith/pkg/errors"
	"github.com/modsmith/modsmith/pkg/modrinth"
	"github.com/modsmith/modsmith/pkg/types"
)

// FormatVersion is the index format revision modsmith writes.
const FormatVersion = 1

// Env records whether a file is required on each side.
type Env struct {
	Client string `json:"client"`
	Server string `json:"server"`
}

// FileEntry is one registered file. Path is the unique key.
type FileEntry struct {
	Path      string          `json:"path"`
	Hashes    modrinth.Hashes `json:"hashes"`
	Env       Env             `json:"env"`
	Downloads []string        `json:"downloads"`
	FileSize  int64           `json:"fileSize"`
}

// Index is the persisted package index.
type Index struct {
	FormatVersion int               `json:"formatVersion"`
	Game          string            `json:"game"`
	VersionID     string            `json:"versionId"`
	Name          string            `json:"name"`
	Dependencies  map[string]string `json:"dependencies"`
	Files         []FileEntry       `json:"files"`
}

// New creates an empty index for a pack on the given Minecraft version
// and loader.
func New(name, versionID, minecraft, loader, loaderVersion string) *Index {
	deps := map[string]string{"minecraft": minecraft}
	if loader != "" && loaderVersion != "" {
		deps[loader+"-loader"] = loaderVersion
	}
	return &Index{
		FormatVersion: FormatVersion,
		Game:          "minecraft",
		VersionID:     versionID,
		Name:          name,
		Dependencies:  deps,
		Files:         []FileEntry{},
	}
}

// Load reads an index file.
func Load(fs types.FS, path string) (*Index, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIndexLoad, "failed to read index %s", path)
	}
	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, errors.Wrapf(err, errors.ErrIndexParse, "malformed index %s", path)
	}
	if ix.Files == nil {
		ix.Files = []FileEntry{}
	}
	return &ix, nil
}

// Save writes the index atomically: the content goes to a temp file in
// the same directory which is then renamed over the target, so a crash
// never leaves a half-written index behind. Serialization is
// deterministic, so saving an unchanged index reproduces the same bytes.
func (ix *Index) Save(fs types.FS, path string) error {
	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrIndexWrite, "failed to encode index")
	}
	data = append(data, '\n')

	tmp := filepath.Join(filepath.Dir(path), ".index-"+filepath.Base(path)+".tmp")
	if err := fs.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrIndexWrite, "failed to write %s", tmp)
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrIndexWrite, "failed to replace %s", path)
	}
	return nil
}

// Find returns the entry registered under path, if any.
func (ix *Index) Find(path string) (*FileEntry, bool) {
	for i := range ix.Files {
		if ix.Files[i].Path == path {
			return &ix.Files[i], true
		}
	}
	return nil, false
}

// Upsert registers an entry: any prior entry with the same path is
// removed, then the new entry is appended. The index never holds two
// entries for one path.
func (ix *Index) Upsert(entry FileEntry) {
	files := ix.Files[:0]
	for _, f := range ix.Files {
		if f.Path != entry.Path {
			files = append(files, f)
		}
	}
	ix.Files = append(files, entry)
}
