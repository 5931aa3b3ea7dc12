package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/atlist/internal/client/models"
)

func newCatalogCmd(get func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse the site catalog",
	}
	cmd.AddCommand(
		newCatalogListCmd(get),
		adminOnly(newCatalogPutCmd(get)),
		adminOnly(newCatalogDeleteCmd(get)),
		adminOnly(newCatalogImportCmd(get)),
	)
	return cmd
}

func newCatalogListCmd(get func() *App) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog sites by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			w := cmd.OutOrStdout()
			if !a.catalog.Ready() {
				fmt.Fprintf(w, "catalog %s\n", a.catalog.State())
				return nil
			}
			active := a.websites.Current()
			for _, e := range a.catalog.Entries() {
				if category != "" && e.Category != category {
					continue
				}
				mark := " "
				if active.Contains(e.ID) {
					mark = "+"
				}
				line := fmt.Sprintf("%s %-24s %-14s %s", mark, e.DisplayName(), orDash(e.Category), muted(orDash(e.URL)))
				if !e.Valid() {
					line += errColor.Sprint(" (unavailable)")
				}
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only show one category")
	return cmd
}

func newCatalogPutCmd(get func() *App) *cobra.Command {
	var e models.CatalogEntry
	cmd := &cobra.Command{
		Use:   "put",
		Short: "Create or edit a catalog site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.remote.UpsertCatalogEntry(cmd.Context(), e); err != nil {
				return err
			}
			if err := a.catalog.Reload(cmd.Context()); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "Saved %s", e.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&e.ID, "id", "", "site id (immutable)")
	cmd.Flags().StringVar(&e.Name, "name", "", "display name")
	cmd.Flags().StringVar(&e.Category, "category", "", "category")
	cmd.Flags().StringVar(&e.URL, "url", "", "site url")
	return cmd
}

func newCatalogDeleteCmd(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a catalog site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.remote.DeleteCatalogEntry(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := a.catalog.Reload(cmd.Context()); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "Deleted %s", args[0])
			return nil
		},
	}
}

// catalogFile is the import format, YAML or JSON:
//
//	sites:
//	  - id: eBay
//	    name: eBay
//	    category: Shopping
//	    url: https://www.ebay.com/
type catalogFile struct {
	Sites []struct {
		ID       string `yaml:"id"`
		Name     string `yaml:"name"`
		Category string `yaml:"category"`
		URL      string `yaml:"url"`
	} `yaml:"sites"`
}

func parseCatalogFile(data []byte) ([]models.CatalogEntry, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	out := make([]models.CatalogEntry, 0, len(f.Sites))
	for _, s := range f.Sites {
		out = append(out, models.CatalogEntry{ID: s.ID, Name: s.Name, Category: s.Category, URL: s.URL})
	}
	return out, nil
}

func newCatalogImportCmd(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Upsert catalog sites from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			entries, err := parseCatalogFile(data)
			if err != nil {
				return err
			}
			n, err := a.remote.ImportCatalog(cmd.Context(), entries)
			if err != nil {
				return err
			}
			if err := a.catalog.Reload(cmd.Context()); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "Imported %d sites", n)
			return nil
		},
	}
}
