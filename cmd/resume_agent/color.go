package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-editor/internal/observability"
	"github.com/jonathan/resume-editor/internal/theme"
)

var colorCmd = &cobra.Command{
	Use:   "color",
	Short: "Color name lookup and WCAG contrast checks",
}

var colorParseCmd = &cobra.Command{
	Use:   "parse <text>",
	Short: "Find the color and target element in an instruction",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runColorParse,
}

var colorContrastCmd = &cobra.Command{
	Use:   "contrast <foreground> <background>",
	Short: "Check the WCAG contrast ratio of two colors",
	Long: `Check two colors against WCAG 2.x. Colors may be hex values (#1e3a8a, #fff)
or names such as "navy" or "dark slate".`,
	Args: cobra.ExactArgs(2),
	RunE: runColorContrast,
}

var (
	colorJSON  bool
	colorLevel string
	colorSize  string
)

func init() {
	colorCmd.PersistentFlags().BoolVar(&colorJSON, "json", false, "Print the result as JSON")
	colorContrastCmd.Flags().StringVar(&colorLevel, "level", theme.LevelAA, "WCAG level: AA or AAA")
	colorContrastCmd.Flags().StringVar(&colorSize, "size", theme.SizeNormal, "Text size: normal or large")

	colorCmd.AddCommand(colorParseCmd, colorContrastCmd)
	rootCmd.AddCommand(colorCmd)
}

func runColorParse(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	req, ok := theme.ParseColorRequest(text)
	if !ok {
		return fmt.Errorf("no color found in %q", text)
	}
	if colorJSON {
		return writeJSON(cmd.OutOrStdout(), "", req)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s → %s (%s)\n", req.Target, req.Color, req.Name)
	return nil
}

func runColorContrast(cmd *cobra.Command, args []string) error {
	result, err := theme.ValidateWCAG(args[0], args[1], colorLevel, colorSize)
	if err != nil {
		return err
	}
	if colorJSON {
		return writeJSON(cmd.OutOrStdout(), "", result)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintContrast(result)
	return nil
}
