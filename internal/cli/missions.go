package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	missionsCmd.Flags().BoolVar(&missionsAll, "all", false, "Include completed missions")
	missionsCmd.AddCommand(missionStartCmd)
	missionsCmd.AddCommand(missionRefreshCmd)
	rootCmd.AddCommand(missionsCmd)
}

var missionsAll bool

var missionsCmd = &cobra.Command{
	Use:   "missions",
	Short: "List active missions",
	RunE:  runMissions,
}

var missionStartCmd = &cobra.Command{
	Use:   "start MISSION_ID",
	Short: "Mark a mission as started",
	Args:  cobra.ExactArgs(1),
	RunE:  runMissionStart,
}

var missionRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Drop expired missions and issue the current period's missions",
	RunE:  runMissionRefresh,
}

func runMissions(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	p := d.Engine.Profile()
	if len(p.Missions.Active) == 0 && (!missionsAll || len(p.Missions.Completed) == 0) {
		fmt.Println("No active missions. Run 'coinquest missions refresh' to get new ones.")
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tPROGRESS\tXP\tSTATUS")
	for _, m := range p.Missions.Active {
		status := "ends in " + untilString(m.ExpiresAt, now)
		if m.StartedAt != nil {
			status = "started, " + status
		}
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%d\t%s\n",
			m.ID, m.Icon, m.Name, m.Type, fraction(m.Progress, m.MaxProgress), m.XPReward, status)
	}
	if missionsAll {
		for _, m := range p.Missions.Completed {
			fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%d\tcompleted %s\n",
				m.ID, m.Icon, m.Name, m.Type, fraction(m.Progress, m.MaxProgress), m.XPReward, formatTime(m.CompletedAt))
		}
	}
	return w.Flush()
}

func runMissionStart(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	m, err := d.Engine.StartMission(args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	fmt.Printf("Started %s %s\n", m.Icon, m.Name)
	return nil
}

func runMissionRefresh(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	expired := d.Engine.SweepExpiredMissions()
	issued := d.Engine.RefreshMissions()
	fmt.Printf("%d expired, %d issued\n", len(expired), len(issued))
	for _, m := range issued {
		fmt.Printf("  + %s %s (%s)\n", m.Icon, m.Name, m.Type)
	}
	return nil
}
