package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/amosWeiskopf/sitemapsmith/internal/models"
	"github.com/amosWeiskopf/sitemapsmith/internal/store"
	"github.com/amosWeiskopf/sitemapsmith/pkg/utils"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [FILENAME]",
		Short: "List previously generated sitemaps, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistory,
	}
	cmd.Flags().Int("limit", 20, "Maximum number of entries (0 for all)")
	cmd.Flags().Bool("json", false, "Print entries as JSON")
	cmd.Flags().Bool("markdown", false, "Print entries as a Markdown report")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Storage.Path == "" {
		return errors.New("sitemap history is disabled (storage.path is empty)")
	}

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	if len(args) == 1 {
		return showGeneration(cmd, st, args[0])
	}

	limit, _ := cmd.Flags().GetInt("limit")
	gens, err := st.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if gens == nil {
			gens = []models.Generation{}
		}
		return enc.Encode(gens)
	}

	now := time.Now()
	if asMarkdown, _ := cmd.Flags().GetBool("markdown"); asMarkdown {
		return writeMarkdownHistory(out, gens, now)
	}

	if len(gens) == 0 {
		fmt.Fprintln(out, "No sitemaps generated yet.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILENAME\tURLS\tROOT\tCREATED")
	for _, g := range gens {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
			g.Filename, g.URLCount, g.RootURL,
			utils.FormatCreationDate(utils.StampFromFilename(g.Filename), now))
	}
	return tw.Flush()
}

func showGeneration(cmd *cobra.Command, st *store.Store, filename string) error {
	g, err := st.Get(cmd.Context(), filename)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no sitemap named %q in history", filename)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	}
	if asMarkdown, _ := cmd.Flags().GetBool("markdown"); asMarkdown {
		return writeMarkdownHistory(out, []models.Generation{*g}, time.Now())
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Filename:\t%s\n", g.Filename)
	fmt.Fprintf(tw, "Root URL:\t%s\n", g.RootURL)
	fmt.Fprintf(tw, "URLs:\t%d\n", g.URLCount)
	fmt.Fprintf(tw, "Compressed:\t%t\n", g.Compressed)
	fmt.Fprintf(tw, "Created:\t%s\n", g.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(tw, "Path:\t%s\n", g.Path)
	return tw.Flush()
}

func writeMarkdownHistory(w io.Writer, gens []models.Generation, now time.Time) error {
	md := markdown.NewMarkdown(w)
	md.H1("Sitemap History")
	md.PlainText("")

	if len(gens) == 0 {
		md.PlainText("No sitemaps generated yet.")
		return md.Build()
	}

	rows := make([][]string, 0, len(gens))
	for _, g := range gens {
		rows = append(rows, []string{
			"`" + g.Filename + "`",
			strconv.Itoa(g.URLCount),
			g.RootURL,
			utils.FormatCreationDate(utils.StampFromFilename(g.Filename), now),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Filename", "URLs", "Root", "Created"},
		Rows:   rows,
	})
	return md.Build()
}
