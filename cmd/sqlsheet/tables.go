package main

import (
	"github.com/koustreak/sqlsheet/internal/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables [TABLE]",
	Short: "List exportable tables, or the columns of one table",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		reader := schema.NewReader(db)
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetAutoFormatHeaders(false)

		if len(args) == 1 {
			info, err := reader.InspectTable(ctx, args[0])
			if err != nil {
				return err
			}
			table.SetHeader([]string{"Column", "Type", "Nullable"})
			for _, c := range info.Columns {
				nullable := "NO"
				if c.Nullable {
					nullable = "YES"
				}
				table.Append([]string{c.Name, c.DataType, nullable})
			}
			table.Render()
			return nil
		}

		tables, err := reader.ListTables(ctx)
		if err != nil {
			return err
		}
		table.SetHeader([]string{"Schema", "Table"})
		for _, t := range tables {
			table.Append([]string{t.Schema, t.Name})
		}
		table.Render()
		return nil
	},
}
