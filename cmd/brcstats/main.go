// brcstats fetches analytics exports for the BRC data portal and turns
// them into organism, community and monthly traffic reports.
package main

import (
	"log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "brcstats",
	Short: "Analytics reporting for the BRC data portal",
	Long: `brcstats pulls page and demographics breakdowns from Plausible,
resolves the taxonomy behind organism and assembly pages via NCBI, and
renders text and HTML traffic reports grouped by organism community.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
