// Command seedcustomers upserts the customer master directory from a JSON or XLSX file.
// Usage: seedcustomers --file customer_master_data.json
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pointake/internal/config"
	"pointake/internal/customerimport"
	"pointake/internal/domain"
	"pointake/internal/logging"
	"pointake/internal/repository/postgres"
)

var (
	filePath  string
	sheetName string
	dryRun    bool
)

var rootCmd = &cobra.Command{
	Use:   "seedcustomers",
	Short: "Upsert customer master records from a JSON or XLSX file",
	Long: `seedcustomers loads customer master data into the customers table.

JSON input is either an array of {customer_id, customer_names, sales_org, ship_to}
or an object keyed by customer id. XLSX input has a header row followed by
customer_id | names (";"-separated) | sales_org | ship_to_code | ship_to_address.
Existing customers with the same customer_id are replaced.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&filePath, "file", "f", "customer_master_data.json", "input file (.json or .xlsx)")
	rootCmd.Flags().StringVar(&sheetName, "sheet", "", "XLSX sheet name (default: first sheet)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and report without writing")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func load(path string) ([]domain.Customer, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open Excel file: %w", err)
		}
		defer func() { _ = f.Close() }()
		return customerimport.ParseWorkbook(f, sheetName)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open JSON file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return customerimport.ParseJSON(f)
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	customers, err := load(filePath)
	if err != nil {
		return err
	}
	logger.Info("seedcustomers: parsed input", zap.String("file", filePath), zap.Int("customers", len(customers)))
	if dryRun || len(customers) == 0 {
		return nil
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repo := postgres.NewCustomerRepo(db)
	for i := range customers {
		if err := repo.Upsert(ctx, &customers[i]); err != nil {
			return fmt.Errorf("upsert %s: %w", customers[i].CustomerID, err)
		}
	}
	logger.Info("seedcustomers: upserted customers", zap.Int("customers", len(customers)))
	return nil
}
