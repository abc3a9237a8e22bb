package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rhystmorgan/likeWallet/internal/utils"
)

var validatorsCmd = &cobra.Command{
	Use:   "validators",
	Short: "List bonded validators",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(true)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, cancel := commandContext(cmd, e)
		defer cancel()

		validators, err := e.client.GetValidators(ctx)
		if err != nil {
			return err
		}

		denom := e.chain.DenomInfo()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MONIKER\tADDRESS\tTOKENS\tCOMMISSION\tCIVIC")
		for _, v := range validators {
			civic := ""
			if e.cfg.IsCivicLiker(v.OperatorAddress) {
				civic = "★"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				utils.TruncateString(v.Moniker, 24),
				v.OperatorAddress,
				denom.FormatDenom(denom.FromBaseUnits(v.Tokens)),
				v.CommissionRate,
				civic,
			)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(validatorsCmd)
}
