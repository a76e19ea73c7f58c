package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/willfong/san-simulator/internal/database"
)

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Output the results table schema",
	Long: `Output the SQL schema of the MySQL/MariaDB results table.

simulate, compare and replay create the table themselves when --db is set;
use this to create it ahead of time or to review the column types.
Non-finite metrics (unbounded latency, undefined utilization) are stored
as NULL.

Examples:
  sansim schema                          # Output schema for san_results
  sansim schema --table runs -o runs.sql
  sansim schema | mysql -u root san`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

var schemaOutputFile string

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringVarP(&schemaOutputFile, "output", "o", "", "output file (default: stdout)")
	schemaCmd.Flags().String("table", "", "results table name (default: san_results)")
}

func runSchema(cmd *cobra.Command, args []string) error {
	u := newUI()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fail(u, err)
	}
	content := database.Schema(cfg.Database.Table)

	if schemaOutputFile == "" {
		fmt.Print(content)
		return nil
	}

	// Ensure directory exists
	dir := filepath.Dir(schemaOutputFile)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fail(u, fmt.Errorf("creating directory: %w", err))
		}
	}

	if err := os.WriteFile(schemaOutputFile, []byte(content), 0644); err != nil {
		return fail(u, fmt.Errorf("writing file: %w", err))
	}
	fmt.Fprintln(os.Stderr, u.Success("Schema written to: "+schemaOutputFile))
	return nil
}
