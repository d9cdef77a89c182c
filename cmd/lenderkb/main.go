// Command lenderkb manages the lender knowledge base from the terminal:
// CSV ingestion for policies and pincode coverage, and a listing view.
package main

import (
	"context"
	"fmt"
	"os"

	"loanintel/pkg/core/lenderkb"
	"loanintel/pkg/core/store"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	godotenv.Load()

	root := &cobra.Command{
		Use:   "lenderkb",
		Short: "Manage the lender knowledge base",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return store.InitDB(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			store.Close()
		},
	}
	root.AddCommand(ingestPoliciesCmd(), ingestPincodesCmd(), listCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "lenderkb: %v\n", err)
		os.Exit(1)
	}
}

func ingestPoliciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest-policies <file.csv>",
		Short: "Load or refresh lender products from a policy CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			stats, err := lenderkb.NewService().IngestPolicyCSV(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Printf("lenders: %d, products created: %d, updated: %d, rows skipped: %d\n",
				stats.Lenders, stats.ProductsCreated, stats.ProductsUpdated, stats.RowsSkipped)
			return nil
		},
	}
}

func ingestPincodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest-pincodes <file.csv>",
		Short: "Load lender pincode coverage from a CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			stats, err := lenderkb.NewService().IngestPincodeCSV(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Printf("pincodes added: %d, rows skipped: %d\n",
				stats.PincodesAdded, stats.RowsSkipped)
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List lenders with product and pincode counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lenders, err := lenderkb.NewService().ListLenders(cmd.Context())
			if err != nil {
				return err
			}
			for _, l := range lenders {
				fmt.Printf("%4d  %-30s %-12s %3d products %5d pincodes\n",
					l.Lender.ID, l.Lender.Name, l.Lender.Code, l.ProductCount, l.PincodeCount)
			}
			return nil
		},
	}
}
