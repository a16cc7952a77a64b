// Package manifest handles the per-project modsmith.json file: the
// user-maintained list of mod slugs a modpack is built from.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/modsmith/modsmith/pkg/errors"
	"github.com/modsmith/modsmith/pkg/paths"
	"github.com/modsmith/modsmith/pkg/types"
)

// Manifest is a modpack project definition.
type Manifest struct {
	Name          string   `json:"name" validate:"required"`
	Minecraft     string   `json:"minecraft" validate:"required"`
	Loader        string   `json:"loader" validate:"required"`
	LoaderVersion string   `json:"loader_version,omitempty"`
	Mods          []string `json:"mods"`
	ResourcePacks []string `json:"resourcepacks"`
	ShaderPacks   []string `json:"shaderpacks"`
}

// New creates an empty manifest for a pack.
func New(name, minecraft, loader string) *Manifest {
	return &Manifest{
		Name:          name,
		Minecraft:     minecraft,
		Loader:        loader,
		Mods:          []string{},
		ResourcePacks: []string{},
		ShaderPacks:   []string{},
	}
}

// Load reads and validates the manifest in dir.
func Load(fs types.FS, dir string) (*Manifest, error) {
	path := filepath.Join(dir, paths.ManifestFileName)
	data, err := fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrManifestNotFound, "no %s in %s", paths.ManifestFileName, dir)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", path)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestParse, "malformed manifest %s", path)
	}
	if err := validator.New().Struct(&m); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestValid, "invalid manifest %s", path)
	}
	return &m, nil
}

// Save writes the manifest to dir atomically.
func (m *Manifest) Save(fs types.FS, dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to encode manifest")
	}
	data = append(data, '\n')

	path := filepath.Join(dir, paths.ManifestFileName)
	tmp := filepath.Join(dir, "."+paths.ManifestFileName+".tmp")
	if err := fs.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", tmp)
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to replace %s", path)
	}
	return nil
}

// ListFor returns the slug list for a project type. Unknown types fall
// back to the mod list, mirroring how packs treat stray entries.
func (m *Manifest) ListFor(projectType string) *[]string {
	switch projectType {
	case "resourcepack":
		return &m.ResourcePacks
	case "shaderpack", "shader":
		return &m.ShaderPacks
	default:
		return &m.Mods
	}
}

// Add appends slug to the list for projectType unless already present.
// Reports whether the manifest changed.
func (m *Manifest) Add(projectType, slug string) bool {
	list := m.ListFor(projectType)
	for _, existing := range *list {
		if existing == slug {
			return false
		}
	}
	*list = append(*list, slug)
	return true
}
