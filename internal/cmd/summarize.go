package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/willfong/san-simulator/internal/sink"
	"github.com/willfong/san-simulator/internal/utils"
)

// summarizeCmd represents the summarize command
var summarizeCmd = &cobra.Command{
	Use:   "summarize <results.csv>",
	Short: "Summarize an existing results table",
	Long: `Recompute per-run summaries, encryption degradation and backup windows
from a results table written by simulate or compare. Compressed tables
(.csv.xz) are read through xz.

Example:
  sansim summarize sim_results.csv
  sansim summarize sim_results.csv.xz --report-dir reports/`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().String("report-dir", "", "also write the report tables to this directory")
	summarizeCmd.Flags().StringSlice("backup-tb", nil, "backup sizes in TB for window estimates (default: 1,5,10)")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	u := newUI()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fail(u, err)
	}

	spin := u.NewSpinner("Reading " + args[0])
	spin.Start()
	records, err := sink.ReadCSV(args[0])
	if err != nil {
		spin.Error("failed")
		return fail(u, err)
	}
	spin.Success(fmt.Sprintf("%s rows", utils.FormatCount(int64(len(records)))))

	tables, err := printReport(u, records, cfg.Compare.BackupSizesTB, cfg.Output.ReportDir)
	if err != nil {
		return fail(u, err)
	}
	for _, path := range tables {
		u.Println(u.Success("Wrote " + path))
	}
	return nil
}
