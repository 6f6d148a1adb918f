package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/localopt/internal/report"
)

var (
	plotFile  string
	plotPath  string
	plotTitle string
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot objective value per step for the runs of a YAML file",
	RunE:  runPlot,
}

func init() {
	plotCmd.Flags().StringVarP(&plotFile, "file", "f", "", "YAML run file (required)")
	plotCmd.Flags().StringVarP(&plotPath, "out", "o", "history.png", "Output image (.png, .svg, .pdf)")
	plotCmd.Flags().StringVar(&plotTitle, "title", "objective value per step", "Plot title")

	_ = plotCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(plotCmd)
}

func runPlot(cmd *cobra.Command, args []string) error {
	specs, err := loadRunFile(plotFile)
	if err != nil {
		return err
	}

	series, err := executeAll(specs)
	if err != nil {
		return err
	}

	if err := report.SavePlot(plotPath, plotTitle, series); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := report.WriteSummary(out, series); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s (%d runs)\n", plotPath, len(series))
	return nil
}
