package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/modsmith/modsmith/pkg/config"
	"github.com/modsmith/modsmith/pkg/downloader"
	"github.com/modsmith/modsmith/pkg/errors"
	"github.com/modsmith/modsmith/pkg/filesystem"
	"github.com/modsmith/modsmith/pkg/index"
	"github.com/modsmith/modsmith/pkg/manifest"
	"github.com/modsmith/modsmith/pkg/modrinth"
	"github.com/modsmith/modsmith/pkg/paths"
	"github.com/modsmith/modsmith/pkg/policy"
	"github.com/modsmith/modsmith/pkg/resolver"
)

var (
	initMinecraft string
	initLoader    string
	addType       string
)

func init() {
	initCmd.Flags().StringVar(&initMinecraft, "minecraft", "", "Minecraft version (e.g. 1.21.1)")
	initCmd.Flags().StringVar(&initLoader, "loader", "fabric", "Mod loader (fabric, forge, quilt, neoforge)")
	_ = initCmd.MarkFlagRequired("minecraft")

	addCmd.Flags().StringVar(&addType, "type", "mod", "Project type (mod, resourcepack, shaderpack)")
}

var initCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Create a new modpack project in the current directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := filesystem.NewOS()

		if _, err := manifest.Load(fs, projectDir); err == nil {
			return errors.Newf(errors.ErrInvalidInput, "%s already exists in %s", paths.ManifestFileName, projectDir)
		}

		m := manifest.New(args[0], initMinecraft, initLoader)
		if err := m.Save(fs, projectDir); err != nil {
			return err
		}

		ix := index.New(m.Name, "1.0.0", m.Minecraft, m.Loader, m.LoaderVersion)
		if err := ix.Save(fs, filepath.Join(projectDir, paths.IndexFileName)); err != nil {
			return err
		}

		pterm.Success.Printfln("Created modpack %q for Minecraft %s (%s)", m.Name, m.Minecraft, m.Loader)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Search Modrinth and add a project to the manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		fs := filesystem.NewOS()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		m, err := manifest.Load(fs, projectDir)
		if err != nil {
			return err
		}

		client := newClient(cfg)
		result, err := client.Search(cmd.Context(), name, modrinth.SearchOptions{
			GameVersions: []string{m.Minecraft},
			Loaders:      []string{m.Loader},
			ProjectType:  addType,
			Limit:        cfg.Resolver.SearchLimit,
		})
		if err != nil {
			return err
		}
		if len(result.Hits) == 0 {
			return errors.Newf(errors.ErrNotFound, "no %s found for %q", addType, name)
		}

		// Prefer an exact slug match, else take the top hit.
		hit := result.Hits[0]
		for _, h := range result.Hits {
			if h.Slug == name {
				hit = h
				break
			}
		}

		if !m.Add(addType, hit.Slug) {
			pterm.Warning.Printfln("%s is already in the manifest", hit.Slug)
			return nil
		}
		if err := m.Save(fs, projectDir); err != nil {
			return err
		}
		pterm.Success.Printfln("Added %s to %ss", hit.Slug, addType)
		return nil
	},
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Show what the compatibility policy would change",
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := filesystem.NewOS()

		m, err := manifest.Load(fs, projectDir)
		if err != nil {
			return err
		}
		engine, err := loadPolicy()
		if err != nil {
			return err
		}

		diff := engine.ApplyDiff(m.Mods)
		if len(diff.Added) == 0 && len(diff.Removed) == 0 {
			pterm.Info.Println("Policy makes no changes")
			return nil
		}
		for _, mod := range diff.Added {
			pterm.Success.Printfln("+ %s", mod)
		}
		for _, mod := range diff.Removed {
			pterm.Error.Printfln("- %s", mod)
		}
		return nil
	},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Resolve the manifest and download all mods",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		fs := filesystem.NewOS()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		m, err := manifest.Load(fs, projectDir)
		if err != nil {
			return err
		}
		engine, err := loadPolicy()
		if err != nil {
			return err
		}

		client := newClient(cfg)
		res := resolver.New(engine, client, resolver.Options{
			GameVersion:       m.Minecraft,
			Loader:            m.Loader,
			BatchSize:         cfg.Resolver.BatchSize,
			SearchConcurrency: cfg.Resolver.SearchConcurrency,
			SearchLimit:       cfg.Resolver.SearchLimit,
		})

		spinner, _ := pterm.DefaultSpinner.Start("Resolving dependencies")
		resolution, err := res.Resolve(ctx, m.Mods)
		if err != nil {
			spinner.Fail("Resolution failed")
			return err
		}
		spinner.Success(fmt.Sprintf("Resolved %d projects", len(resolution.ProjectIDs)))
		for _, w := range resolution.Warnings {
			pterm.Warning.Printfln("%s: %s", w.Subject, w.Reason)
		}

		indexPath := filepath.Join(projectDir, paths.IndexFileName)
		var ix *index.Index
		if _, statErr := os.Stat(indexPath); statErr == nil {
			ix, err = index.Load(fs, indexPath)
			if err != nil {
				return err
			}
		} else {
			ix = index.New(m.Name, "1.0.0", m.Minecraft, m.Loader, m.LoaderVersion)
		}

		progress, _ := pterm.DefaultProgressbar.
			WithTotal(len(resolution.ProjectIDs)).
			WithTitle("Downloading mods").
			Start()

		dl := downloader.New(client, fs, downloader.Options{
			GameVersion: m.Minecraft,
			Loader:      m.Loader,
			OutputDir:   filepath.Join(projectDir, paths.ModsDirName),
			PathPrefix:  paths.ModsDirName,
			Concurrency: cfg.Download.Concurrency,
			OnItem: func(item downloader.ItemResult) {
				progress.Increment()
			},
		})

		results, err := dl.DownloadAll(ctx, resolution.ProjectIDs, ix)
		if err != nil {
			_, _ = progress.Stop()
			return err
		}
		_, _ = progress.Stop()

		if err := ix.Save(fs, indexPath); err != nil {
			return err
		}

		var downloaded, cached, skipped int
		for _, r := range results {
			switch r.Status {
			case downloader.StatusDownloaded:
				downloaded++
			case downloader.StatusCached:
				cached++
			case downloader.StatusSkipped:
				skipped++
				pterm.Warning.Printfln("%s: %s", r.ProjectID, r.Warning)
			}
		}
		pterm.Success.Printfln("%d downloaded, %d cached, %d skipped", downloaded, cached, skipped)
		return nil
	},
}

var genConfigCmd = &cobra.Command{
	Use:   "gen-config",
	Short: "Print a config file with all defaults, commented out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(cmd.OutOrStdout(), config.GenerateConfigContent())
		return nil
	},
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := config.ApplyProjectOverrides(cfg, projectDir); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadPolicy loads the rule table. An explicitly given --policy file
// must load; the default file is optional and its absence means an
// empty rule table. An invalid table always fails closed.
func loadPolicy() (*policy.Engine, error) {
	path := policyPath
	if path == "" {
		path = paths.PolicyFile()
		if _, err := os.Stat(path); err != nil {
			return policy.NewEngine(nil), nil
		}
	}
	return policy.Load(path)
}

func newClient(cfg *config.Config) *modrinth.Client {
	return modrinth.NewClient(modrinth.ClientConfig{
		BaseURL:          cfg.API.BaseURL,
		UserAgent:        cfg.API.UserAgent,
		Timeout:          cfg.API.Timeout(),
		ConnectTimeout:   cfg.API.ConnectTimeout(),
		MaxResponseBytes: cfg.API.MaxResponseBytes,
	})
}
