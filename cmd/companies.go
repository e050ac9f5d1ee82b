package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List registered companies",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initDataEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		records, err := e.Companies.List(ctx)
		if err != nil {
			return err
		}

		for _, rec := range records {
			if rec.Website == "" {
				fmt.Println(rec.Name)
				continue
			}
			fmt.Printf("%s\t%s\n", rec.Name, rec.Website)
		}
		fmt.Printf("%d companies\n", len(records))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(companiesCmd)
}
