// Package cli provides the command-line interface for the journal application.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tradevault/internal/models"
)

// addTagCommands adds tag commands.
func addTagCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Tag management",
		Long:  "Maintain tags for annotating trades: mistakes, setups, habits, or custom labels.",
	}

	cmd.AddCommand(newTagAddCmd(app))
	cmd.AddCommand(newTagListCmd(app))
	cmd.AddCommand(newTagDeleteCmd(app))

	rootCmd.AddCommand(cmd)
}

func findTag(app *App, ref string) (models.Tag, bool) {
	for _, t := range app.Store.Tags() {
		if t.ID == ref || strings.HasPrefix(t.ID, ref) || strings.EqualFold(t.Label, ref) {
			return t, true
		}
	}
	return models.Tag{}, false
}

func newTagAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <label>",
		Short: "Add a tag",
		Example: `  tradevault tag add FOMO --category mistake
  tradevault tag add "Asia range" --category setup --color blue`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			category, _ := cmd.Flags().GetString("category")
			color, _ := cmd.Flags().GetString("color")

			tag, err := app.Store.AddTag(models.Tag{
				Label:    args[0],
				Category: models.TagCategory(strings.ToLower(category)),
				Color:    color,
			})
			if err != nil {
				output.Error("Failed to add tag: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(tag)
			}
			output.Success("✓ Tag added: %s (%s)", tag.Label, tag.Category)
			return nil
		},
	}

	cmd.Flags().String("category", "", "tag category: mistake, setup, habit, custom (default: custom)")
	cmd.Flags().String("color", "", "display color")

	return cmd
}

func newTagListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			tags := app.Store.Tags()

			if output.IsJSON() {
				return output.JSON(tags)
			}

			if len(tags) == 0 {
				output.Info("No tags defined.")
				return nil
			}

			table := NewTable(output, "Label", "Category", "ID")
			for _, t := range tags {
				table.AddRow(t.Label, string(t.Category), TruncateString(t.ID, 8))
			}
			table.Render()
			return nil
		},
	}
}

func newTagDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tag>",
		Short: "Delete a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			tag, ok := findTag(app, args[0])
			if !ok {
				output.Error("Tag not found: %s", args[0])
				return fmt.Errorf("tag not found")
			}

			if err := app.Store.DeleteTag(tag.ID); err != nil {
				output.Error("Failed to delete tag: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": tag.ID})
			}
			output.Success("✓ Tag deleted: %s", tag.Label)
			return nil
		},
	}
}
