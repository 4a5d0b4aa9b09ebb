package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the Bedrock control plane is reachable with the current credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		m, _, err := getManager(ctx)
		if err != nil {
			return err
		}

		info := m.Remote(ctx)
		w := cmd.OutOrStdout()
		if info.Status == nil || info.Status.Healthy == nil || !*info.Status.Healthy {
			fmt.Fprintln(w, styled(w, errorStyle, fmt.Sprintf("%s (%s): unhealthy", info.Name, info.Region)))
			if info.Status != nil && info.Status.LastError != nil {
				return info.Status.LastError
			}
			return fmt.Errorf("%s is unhealthy", info.Name)
		}

		fmt.Fprintln(w, styled(w, okStyle, fmt.Sprintf("%s (%s): healthy", info.Name, info.Region)))
		if info.Status.LastChecked != nil {
			fmt.Fprintln(w, styled(w, dimStyle, "checked at "+info.Status.LastChecked.Format(time.RFC3339)))
		}
		return nil
	},
}
