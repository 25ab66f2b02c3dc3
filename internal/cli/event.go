package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tutu-network/coinquest/internal/app/engagement"
	"github.com/tutu-network/coinquest/internal/domain"
)

func init() {
	rootCmd.AddCommand(eventCmd)
}

var eventCmd = &cobra.Command{
	Use:   "event ACTION [key=value...]",
	Short: "Report a host action such as add_transaction",
	Long: `Report a host action and apply it to achievements and missions.

Actions: ` + strings.Join(engagement.KnownActions, ", ") + `

Examples:
  coinquest event add_transaction amount=12.50 category=food
  coinquest event savings_check savingsRate=18
  coinquest event daily_activity`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEvent,
}

func runEvent(cmd *cobra.Command, args []string) error {
	action := args[0]
	if !engagement.IsKnownAction(action) || action == engagement.ActionStreakUpdated {
		return fmt.Errorf("%s: %w", action, domain.ErrUnknownAction)
	}
	meta, err := parseMeta(args[1:])
	if err != nil {
		return err
	}

	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	var res engagement.ActionResult
	if action == engagement.ActionDailyActivity {
		res = d.Engine.DailyActivityCompleted()
	} else {
		res = d.Engine.HandleAction(action, meta)
	}

	if res.Streak != nil && res.Streak.Changed() {
		fmt.Printf("Streak: %d -> %d days\n", res.Streak.OldStreak, res.Streak.NewStreak)
	}
	for _, a := range res.Achievements {
		if a.IsCompleted {
			fmt.Printf("Achievement unlocked: %s %s (+%d XP)\n", a.Icon, a.Name, a.XPReward)
		} else {
			fmt.Printf("%s %s %s\n", a.Icon, a.Name, fraction(a.Progress, a.MaxProgress))
		}
	}
	for _, m := range res.Missions {
		if m.IsCompleted {
			fmt.Printf("Mission complete: %s %s (+%d XP)\n", m.Icon, m.Name, m.XPReward)
		} else {
			fmt.Printf("%s %s %s\n", m.Icon, m.Name, fraction(m.Progress, m.MaxProgress))
		}
	}
	if len(res.Achievements) == 0 && len(res.Missions) == 0 {
		fmt.Println("No progress.")
	}
	return nil
}
