package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/linkhub/pkg/app"
	"github.com/wadjakorntonsri/linkhub/pkg/config"
	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
)

// exportFile is the JSON document written by export and read by import.
type exportFile struct {
	Profile domain.Profile       `json:"profile"`
	Links   []domain.Link        `json:"links"`
	Layout  []domain.LayoutBlock `json:"layout"`
}

type cli struct {
	databaseURL string
	pretty      bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:          "linkhub",
		Short:        "Maintenance commands for LinkHub profiles",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Dump a profile's links and layout
  linkhub export --public-link janedoe > janedoe.json

  # Append the links of a dump to another profile
  linkhub import --public-link johndoe --file janedoe.json

  # Rewrite positions to 0..n-1, repairing duplicates
  linkhub normalize --public-link janedoe
`),
	}

	cmd.PersistentFlags().StringVar(&c.databaseURL, "database-url", "", "Database URL (default: DATABASE_URL)")
	cmd.PersistentFlags().BoolVar(&c.pretty, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(c.newExportCmd())
	cmd.AddCommand(c.newImportCmd())
	cmd.AddCommand(c.newNormalizeCmd())
	return cmd
}

// open builds the same services the server runs, so positions are assigned
// under the same owner locks.
func (c *cli) open(ctx context.Context) (*app.Container, error) {
	cfg := config.Load()
	if c.databaseURL != "" {
		cfg.DatabaseURL = c.databaseURL
	}

	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logCfg.OutputPaths = []string{"stderr"}
	logger, err := logCfg.Build()
	if err != nil {
		return nil, err
	}
	return app.NewContainer(ctx, cfg, logger)
}

func (c *cli) writeOut(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if c.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

func (c *cli) newExportCmd() *cobra.Command {
	var publicLink string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a profile's links and layout as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container, err := c.open(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer container.Close()

			profile, err := container.Store.Profiles().GetByPublicLink(ctx, domain.NormalizePublicLink(publicLink))
			if err != nil {
				return writeErr(cmd, err)
			}
			links, err := container.Links.ListLinks(ctx, profile.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			layout, err := container.Layout.ListLayout(ctx, profile.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return c.writeOut(cmd, exportFile{Profile: *profile, Links: links, Layout: layout})
		},
	}
	cmd.Flags().StringVar(&publicLink, "public-link", "", "Public link of the profile")
	_ = cmd.MarkFlagRequired("public-link")
	return cmd
}

func (c *cli) newImportCmd() *cobra.Command {
	var publicLink, file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Append the links of an export to a profile and copy its layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dump, err := readExport(cmd, file)
			if err != nil {
				return writeErr(cmd, err)
			}

			container, err := c.open(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer container.Close()

			profile, err := container.Store.Profiles().GetByPublicLink(ctx, domain.NormalizePublicLink(publicLink))
			if err != nil {
				return writeErr(cmd, err)
			}

			// Links arrive sorted by position, appending keeps their order.
			created := 0
			for _, l := range dump.Links {
				if _, err := container.Links.CreateLink(ctx, profile.ID, l.Title, l.URL); err != nil {
					return writeErr(cmd, fmt.Errorf("import link %q: %w", l.Title, err))
				}
				created++
			}

			if err := importLayout(ctx, container, profile.ID, dump.Layout); err != nil {
				return writeErr(cmd, err)
			}

			return c.writeOut(cmd, map[string]any{
				"public_link": profile.PublicLink,
				"links":       created,
				"layout":      len(dump.Layout),
			})
		},
	}
	cmd.Flags().StringVar(&publicLink, "public-link", "", "Public link of the target profile")
	cmd.Flags().StringVar(&file, "file", "-", "Export file to read, - for stdin")
	_ = cmd.MarkFlagRequired("public-link")
	return cmd
}

// importLayout orders the target's blocks like the exported ones and copies
// their visibility and alignment. Components the target lacks are skipped.
func importLayout(ctx context.Context, container *app.Container, ownerID string, blocks []domain.LayoutBlock) error {
	if len(blocks) == 0 {
		return nil
	}
	existing, err := container.Layout.InitializeLayout(ctx, ownerID)
	if err != nil {
		return err
	}
	byComponent := make(map[domain.Component]string, len(existing))
	for _, b := range existing {
		byComponent[b.Component] = b.ID
	}

	ids := make([]string, 0, len(blocks))
	for _, b := range blocks {
		id, ok := byComponent[b.Component]
		if !ok {
			continue
		}
		ids = append(ids, id)
		visible, alignment := b.Visible, b.Alignment
		if _, err := container.Layout.UpdateBlock(ctx, ownerID, id, &visible, &alignment); err != nil {
			return fmt.Errorf("import block %s: %w", b.Component, err)
		}
	}
	_, err = container.Layout.ReorderLayout(ctx, ownerID, ids)
	return err
}

func readExport(cmd *cobra.Command, file string) (*exportFile, error) {
	var r io.Reader = cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var dump exportFile
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	return &dump, nil
}

func (c *cli) newNormalizeCmd() *cobra.Command {
	var publicLink string
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Rewrite link and layout positions to 0..n-1 in their current order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container, err := c.open(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer container.Close()

			profile, err := container.Store.Profiles().GetByPublicLink(ctx, domain.NormalizePublicLink(publicLink))
			if err != nil {
				return writeErr(cmd, err)
			}
			links, err := container.Links.NormalizeLinks(ctx, profile.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			layout, err := container.Layout.NormalizeLayout(ctx, profile.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return c.writeOut(cmd, map[string]any{
				"public_link": profile.PublicLink,
				"links":       links,
				"layout":      layout,
			})
		},
	}
	cmd.Flags().StringVar(&publicLink, "public-link", "", "Public link of the profile")
	_ = cmd.MarkFlagRequired("public-link")
	return cmd
}
