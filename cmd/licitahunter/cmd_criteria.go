package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"licitahunter/internal/config"
)

var criteriaCmd = &cobra.Command{
	Use:   "criteria",
	Short: "Print the effective search criteria",
	Long:  "Criteria loads the criteria file (or the built-in defaults) and prints\nthe effective filter set, for checking what a run would search for.",
	RunE: func(cmd *cobra.Command, args []string) error {
		criteria, err := config.LoadCriteria(os.Getenv("CRITERIA_FILE"))
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(criteria)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}
