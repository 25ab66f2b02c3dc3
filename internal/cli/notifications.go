package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	notificationsCmd.Flags().BoolVar(&notifyMark, "mark-shown", false, "Mark listed notifications as shown")
	rootCmd.AddCommand(notificationsCmd)
}

var notifyMark bool

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"inbox"},
	Short:   "List pending notifications",
	RunE:    runNotifications,
}

func runNotifications(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	if d.Notification == nil {
		fmt.Println("Notifications are disabled in config.")
		return nil
	}

	pending, err := d.Notification.Pending(50)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("No new notifications.")
		return nil
	}
	for _, n := range pending {
		fmt.Printf("[%s] %s\n    %s\n", n.CreatedAt.Local().Format("Jan 2 15:04"), n.Title, n.Body)
		if notifyMark {
			if err := d.Notification.MarkShown(n.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
