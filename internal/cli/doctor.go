package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/bilisub/internal/deps"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the external tools are installed",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	statuses := deps.CheckBinaries(deps.Requirements(cfg))

	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		state := "ok"
		switch {
		case !s.Available && s.Optional:
			state = "missing (optional)"
		case !s.Available:
			state = "MISSING"
		}
		location := s.Path
		if location == "" {
			location = s.Detail
		}
		rows = append(rows, []string{s.Name, state, location, s.Description})
	}
	fmt.Println(renderTable([]string{"Tool", "Status", "Location", "Used for"}, rows, nil))

	if missing := deps.Missing(statuses); len(missing) > 0 {
		return fmt.Errorf("%d required tool(s) missing", len(missing))
	}
	return nil
}
