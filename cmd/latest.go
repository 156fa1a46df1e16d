package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var latestCmd = &cobra.Command{
	Use:   "latest [config.yaml]",
	Short: "Print the newest committed revision",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(args)
		if err != nil {
			return err
		}
		st, _, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		rev, err := st.LatestRevision()
		if err != nil {
			return err
		}
		if rev < 0 {
			fmt.Println("No revisions committed yet.")
			return nil
		}
		members, err := st.MembershipForRevision(rev)
		if err != nil {
			return err
		}
		fmt.Printf("Revision %d: %d members.\n", rev, len(members))
		return nil
	},
}
