package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show level, XP, streak and active missions",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	p := d.Engine.Profile()
	info := d.Engine.LevelInfo()

	fmt.Printf("Level %d of %d  %s\n", info.Level, info.MaxLevel, renderBar(float64(info.ProgressPct)))
	if info.XPToNext > 0 {
		fmt.Printf("XP:           %d (%d to next level)\n", p.XP, info.XPToNext)
	} else {
		fmt.Printf("XP:           %d (max level)\n", p.XP)
	}
	fmt.Printf("Streak:       %d days (longest %d)\n", p.StreakDays, p.LongestStreak)
	fmt.Printf("Achievements: %d / %d\n", p.CompletedAchievements, p.TotalAchievements)

	unlocked := 0
	for _, r := range p.Rewards {
		if r.IsUnlocked {
			unlocked++
		}
	}
	fmt.Printf("Rewards:      %d / %d unlocked\n", unlocked, len(p.Rewards))

	if len(p.Missions.Active) == 0 {
		fmt.Println("\nNo active missions.")
		return nil
	}

	now := time.Now()
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MISSION\tTYPE\tPROGRESS\tXP\tENDS IN")
	for _, m := range p.Missions.Active {
		fmt.Fprintf(w, "%s %s\t%s\t%s\t%d\t%s\n",
			m.Icon, m.Name,
			m.Type,
			fraction(m.Progress, m.MaxProgress),
			m.XPReward,
			untilString(m.ExpiresAt, now),
		)
	}
	return w.Flush()
}
