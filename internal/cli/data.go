package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tutu-network/coinquest/internal/daemon"
	"github.com/tutu-network/coinquest/internal/security"
)

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Write to file instead of stdout")
	exportCmd.Flags().BoolVar(&exportSign, "sign", true, "Write a detached signature next to the output file")
	importCmd.Flags().BoolVar(&importForce, "force", false, "Import even if the signature is missing or does not match")
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm the reset")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(resetCmd)
}

var (
	exportOut   string
	exportSign  bool
	importForce bool
	resetYes    bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the profile as JSON",
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace the profile with an exported JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Start over with a fresh profile",
	RunE:  runReset,
}

func runExport(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	blob, err := d.Engine.Export()
	if err != nil {
		return err
	}
	if exportOut == "" {
		fmt.Println(string(blob))
		return nil
	}
	if err := os.WriteFile(exportOut, blob, 0600); err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", exportOut)

	if !exportSign {
		return nil
	}
	kp, err := security.LoadOrCreateKeypair(daemon.Home())
	if err != nil {
		return fmt.Errorf("signing key: %w", err)
	}
	sigPath := security.SignaturePath(exportOut)
	if err := os.WriteFile(sigPath, []byte(kp.SignExport(blob)), 0644); err != nil {
		return err
	}
	fmt.Printf("Signed: %s\n", sigPath)
	return nil
}

// verifyImport checks the detached signature written by export.
func verifyImport(path string, blob []byte) error {
	sig, err := os.ReadFile(security.SignaturePath(path))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s has no signature; re-run with --force to import anyway", path)
	}
	if err != nil {
		return err
	}
	kp, err := security.LoadOrCreateKeypair(daemon.Home())
	if err != nil {
		return fmt.Errorf("signing key: %w", err)
	}
	if err := kp.VerifyExport(blob, string(sig)); err != nil {
		return fmt.Errorf("%s: %w; re-run with --force to import anyway", path, err)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	blob, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if !importForce {
		if err := verifyImport(args[0], blob); err != nil {
			return err
		}
	}

	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Engine.Import(blob); err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}
	p := d.Engine.Profile()
	fmt.Printf("Imported profile: level %d, %d XP, %d/%d achievements\n",
		p.Level, p.XP, p.CompletedAchievements, p.TotalAchievements)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes {
		return fmt.Errorf("reset erases all progress; re-run with --yes to confirm")
	}

	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	d.Engine.Reset()
	fmt.Println("Profile reset.")
	return nil
}
