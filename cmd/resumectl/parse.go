package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/markdave123-py/resumex/internal/app"
	"github.com/markdave123-py/resumex/internal/config"
	"github.com/markdave123-py/resumex/internal/logger"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a résumé (pdf, docx or text) and print the extracted record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringP("skills-file", "s", "", "newline-separated skills vocabulary (default is the built-in list)")
	parseCmd.Flags().String("gemini-key", "", "Gemini API key used for name recognition")
	parseCmd.Flags().Duration("ner-timeout", 10*time.Second, "timeout for one name-recognition call")

	viper.BindPFlag("skills-file", parseCmd.Flags().Lookup("skills-file"))
	viper.BindPFlag("gemini-key", parseCmd.Flags().Lookup("gemini-key"))
	viper.BindPFlag("ner-timeout", parseCmd.Flags().Lookup("ner-timeout"))
}

func runParse(cmd *cobra.Command, args []string) error {
	zl, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	cfg := &config.Config{
		AIAPIKey:   viper.GetString("gemini-key"),
		GenModel:   "gemini-1.5-flash",
		NERTimeout: viper.GetDuration("ner-timeout"),
		SkillsFile: viper.GetString("skills-file"),
	}

	parser, closeParser, err := app.NewParser(cmd.Context(), cfg, zl)
	if err != nil {
		return err
	}
	defer func() { _ = closeParser() }()

	rec := parser.Parse(cmd.Context(), data, filepath.Base(path), nil)
	zl.Debug("parsed résumé",
		zap.String("filename", path),
		zap.Int("skills", len(rec.Skills)),
		zap.Int("experience", len(rec.Experience)),
	)

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
