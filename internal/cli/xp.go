package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tutu-network/coinquest/internal/app/engagement"
	"github.com/tutu-network/coinquest/internal/domain"
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of entries to show")
	rootCmd.AddCommand(xpCmd)
	rootCmd.AddCommand(historyCmd)
}

var historyLimit int

var xpCmd = &cobra.Command{
	Use:   "xp AMOUNT",
	Short: "Award XP manually",
	Args:  cobra.ExactArgs(1),
	RunE:  runXP,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent XP awards",
	RunE:  runHistory,
}

func runXP(cmd *cobra.Command, args []string) error {
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[0])
	}
	amount, err := engagement.XPAmount(v)
	if err != nil {
		return err
	}

	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := d.Engine.AddXP(amount, domain.XPManual)
	if err != nil {
		return err
	}
	fmt.Printf("+%d XP (total %d)\n", res.Amount, res.XP)
	if res.LeveledUp {
		fmt.Printf("Level up! %d -> %d\n", res.OldLevel, res.Level)
		for _, r := range res.NewRewards {
			fmt.Printf("  Unlocked %s %s\n", r.Icon, r.Name)
		}
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	entries, err := d.DB.XPHistory(historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No XP earned yet.")
		return nil
	}

	totals, err := d.DB.XPTotalBySource()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tSOURCE\tAMOUNT\tBALANCE\tLEVEL")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t+%d\t%d\t%d\n",
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			e.Source,
			e.Amount,
			e.Balance,
			e.Level,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	for _, src := range []domain.XPSource{domain.XPAchievement, domain.XPMission, domain.XPStreakBonus, domain.XPManual} {
		fmt.Printf("%-13s %d\n", src, totals[src])
	}
	return nil
}
