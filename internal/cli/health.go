package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the Banking AI Engine is reachable",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	svc := newServices()

	start := time.Now()
	status, err := svc.client.Health(cmd.Context())
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s unreachable: %v\n",
			color.RedString("✗"), svc.client.BaseURL(), err)
		return fmt.Errorf("health check failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s status=%s (%s)\n",
		color.GreenString("✓"), svc.client.BaseURL(), status, elapsed)
	return nil
}
