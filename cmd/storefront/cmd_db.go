package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/database/seeders"
	"github.com/shashiranjanraj/storefront/internal/server"
)

// storefront db:index
var dbIndexCmd = &cobra.Command{
	Use:   "db:index",
	Short: "Create the MongoDB indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := server.Boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		names, err := a.Mongo.EnsureIndexes(cmd.Context())
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "  ✓ %s\n", n)
		}
		return nil
	},
}

// storefront seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := server.Boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		fmt.Fprintln(cmd.OutOrStdout(), "Running seeders…")
		return seeders.RunAll(cmd.Context(), seeders.Stores{
			Products: repositories.NewProductRepository(a.Mongo.DB),
		}, cmd.OutOrStdout())
	},
}
