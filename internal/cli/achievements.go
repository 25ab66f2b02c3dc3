package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tutu-network/coinquest/internal/domain"
)

func init() {
	achievementsCmd.Flags().StringVar(&achType, "type", "", "Filter by type (tracking, budgeting, saving, learning, consistency, goals)")
	achievementsCmd.Flags().BoolVar(&achCompleted, "completed", false, "Only show completed achievements")
	rootCmd.AddCommand(achievementsCmd)
}

var (
	achType      string
	achCompleted bool
)

var achievementsCmd = &cobra.Command{
	Use:     "achievements",
	Aliases: []string{"ach"},
	Short:   "List achievements and their progress",
	RunE:    runAchievements,
}

func runAchievements(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	p := d.Engine.Profile()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tRARITY\tPROGRESS\tXP\tCOMPLETED")
	for _, a := range p.Achievements {
		if achType != "" && a.Type != domain.AchievementType(achType) {
			continue
		}
		if achCompleted && !a.IsCompleted {
			continue
		}
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\t%d\t%s\n",
			a.ID,
			a.Icon, a.Name,
			a.Type,
			a.Rarity,
			fraction(a.Progress, a.MaxProgress),
			a.XPReward,
			formatTime(a.DateCompleted),
		)
	}
	return w.Flush()
}
