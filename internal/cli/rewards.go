package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tutu-network/coinquest/internal/app/engagement"
	"github.com/tutu-network/coinquest/internal/domain"
)

func init() {
	rewardsCmd.AddCommand(rewardUnlockCmd)
	rootCmd.AddCommand(rewardsCmd)
}

var rewardsCmd = &cobra.Command{
	Use:   "rewards",
	Short: "List rewards and the level that unlocks them",
	RunE:  runRewards,
}

var rewardUnlockCmd = &cobra.Command{
	Use:   "unlock REWARD_ID",
	Short: "Unlock a reward",
	Args:  cobra.ExactArgs(1),
	RunE:  runRewardUnlock,
}

func runRewards(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	p := d.Engine.Profile()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tLEVEL\tUNLOCKED")
	for _, r := range p.Rewards {
		level := "-"
		if lvl, ok := engagement.RequiredLevel(r.ID); ok {
			level = fmt.Sprintf("%d", lvl)
		}
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\n",
			r.ID, r.Icon, r.Name, r.Type, level, formatTime(r.DateUnlocked))
	}
	return w.Flush()
}

func runRewardUnlock(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	id := args[0]
	p := d.Engine.Profile()
	if p.FindReward(id) == nil {
		return fmt.Errorf("%s: %w", id, domain.ErrRewardNotFound)
	}
	r := d.Engine.UnlockReward(id)
	if r == nil {
		fmt.Printf("%s is already unlocked\n", id)
		return nil
	}
	fmt.Printf("Unlocked %s %s\n", r.Icon, r.Name)
	return nil
}
