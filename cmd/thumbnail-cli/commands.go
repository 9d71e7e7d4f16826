package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/fpang/yt-thumbnail-wizard/internal/auth"
	"github.com/fpang/yt-thumbnail-wizard/internal/config"
	"github.com/fpang/yt-thumbnail-wizard/internal/generate"
	"github.com/fpang/yt-thumbnail-wizard/internal/local"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// renderTable lays out a listing with a bold header row.
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		String()
}

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List the available thumbnail styles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, env, err := buildEnv(cmd.Context(), local.Options{SkipModel: true})
		if err != nil {
			return err
		}
		cat := env.Styles.Refresh(ctx)
		if cat.Warning != "" {
			fmt.Fprintln(os.Stderr, "warning:", cat.Warning)
		}
		if len(cat.Options) == 0 {
			fmt.Println("No styles available.")
			return nil
		}
		rows := make([][]string, 0, len(cat.Options))
		for _, o := range cat.Options {
			rows = append(rows, []string{o.ID, o.DisplayName, o.PreviewURL})
		}
		fmt.Println(renderTable([]string{"ID", "NAME", "PREVIEW"}, rows))
		return nil
	},
}

var (
	genFace        string
	genPick        bool
	genTitle       string
	genDescription string
	genDetails     string
	genText        string
	genStyle       string
	genJSON        bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a thumbnail in one step",
	RunE: func(cmd *cobra.Command, args []string) error {
		face := genFace
		if genPick {
			picked, err := pickFace()
			if err != nil {
				return err
			}
			face = picked
		}
		ref, err := faceRef(face)
		if err != nil {
			return err
		}

		ctx, env, err := buildEnv(cmd.Context(), local.Options{})
		if err != nil {
			return err
		}
		style := genStyle
		if style != "" {
			env.Styles.Refresh(ctx)
			if env.Styles.Revalidate(style) != style {
				return fmt.Errorf("unknown style %q (see thumbnail-cli styles)", style)
			}
		}

		resp, err := env.Generate.Generate(ctx, generate.Request{
			FaceImage:        ref,
			VideoTitle:       genTitle,
			VideoDescription: genDescription,
			ThumbnailDetails: genDetails,
			ThumbnailText:    genText,
			Style:            style,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", generate.ClientMessage(err), err)
		}
		if genJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}
		printResult(resp.ThumbnailURL, resp.Description, generate.DownloadName(genTitle, time.Now()))
		if resp.Warning != "" {
			fmt.Fprintln(os.Stderr, "warning:", resp.Warning)
		}
		return nil
	},
}

func printResult(url, description, downloadName string) {
	fmt.Println("Thumbnail:     ", url)
	fmt.Println("Download name: ", downloadName)
	if description != "" {
		fmt.Println()
		fmt.Println(description)
	}
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List thumbnails saved for the configured owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, env, err := buildEnv(cmd.Context(), local.Options{SkipModel: true})
		if err != nil {
			return err
		}
		owner := auth.OwnerID(ctx)
		if owner == "" {
			return fmt.Errorf("no owner configured")
		}
		recs, err := env.Store.ListRecords(ctx, owner)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No thumbnails yet.")
			return nil
		}
		rows := make([][]string, 0, len(recs))
		for _, r := range recs {
			rows = append(rows, []string{
				time.Unix(r.CreatedAt, 0).Format(time.DateTime), r.Title, r.StyleID, r.ResultThumbnailURL,
			})
		}
		fmt.Println(renderTable([]string{"CREATED", "TITLE", "STYLE", "THUMBNAIL"}, rows))
		return nil
	},
}

var configProjectFlag bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.GlobalPath()
		write := config.WriteGlobal
		if configProjectFlag {
			path, write = config.ProjectPath(), config.WriteProject
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := write(config.Defaults()); err != nil {
			return err
		}
		abs, _ := filepath.Abs(path)
		fmt.Println("Wrote", abs)
		return nil
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genFace, "face", "", "face photo: local path or URL")
	f.BoolVar(&genPick, "pick", false, "choose the face photo in a file dialog")
	f.StringVarP(&genTitle, "title", "t", "", "video title (required)")
	f.StringVarP(&genDescription, "description", "d", "", "video description")
	f.StringVar(&genDetails, "details", "", "what the thumbnail should show")
	f.StringVar(&genText, "text", "", "text overlay")
	f.StringVarP(&genStyle, "style", "s", "", "style id (see styles)")
	f.BoolVar(&genJSON, "json", false, "print the response as JSON")
	generateCmd.MarkFlagsMutuallyExclusive("face", "pick")

	configInitCmd.Flags().BoolVar(&configProjectFlag, "project", false, "write ./thumbwiz.yml instead of the global file")
	configCmd.AddCommand(configInitCmd)
}
