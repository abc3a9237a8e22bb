package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"rhystmorgan/likeWallet/internal/audit"
	"rhystmorgan/likeWallet/internal/models"
	"rhystmorgan/likeWallet/internal/txstore"
)

var undelegateCmd = &cobra.Command{
	Use:   "undelegate",
	Short: "Prepare (and optionally broadcast) an unstake transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStaking(cmd, txstore.KindUndelegate)
	},
}

var delegateCmd = &cobra.Command{
	Use:   "delegate",
	Short: "Prepare (and optionally broadcast) a stake transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStaking(cmd, txstore.KindDelegate)
	},
}

func init() {
	for _, c := range []*cobra.Command{undelegateCmd, delegateCmd} {
		c.Flags().String("wallet", "", "wallet ID or name")
		c.Flags().String("validator", "", "validator operator address")
		c.Flags().String("amount", "", "amount in display units, e.g. 12.5")
		c.Flags().Bool("broadcast", false, "sign with the wallet password and broadcast")
		_ = c.MarkFlagRequired("wallet")
		_ = c.MarkFlagRequired("validator")
		_ = c.MarkFlagRequired("amount")
		rootCmd.AddCommand(c)
	}
}

func commandContext(cmd *cobra.Command, e *env) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, 2*e.cfg.Timeout)
}

// runStaking drives the same store the TUI uses: bounds check, build,
// fee check, then an optional sign and broadcast.
func runStaking(cmd *cobra.Command, kind txstore.Kind) error {
	walletRef, _ := cmd.Flags().GetString("wallet")
	validator, _ := cmd.Flags().GetString("validator")
	amount, _ := cmd.Flags().GetString("amount")
	broadcast, _ := cmd.Flags().GetBool("broadcast")

	e, err := setup(true)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext(cmd, e)
	defer cancel()

	wallet, err := findWallet(e, walletRef)
	if err != nil {
		return err
	}

	e.chain.SetWallet(wallet)
	if err := e.chain.Refresh(ctx, true); err != nil {
		return fmt.Errorf("failed to load chain state: %w", err)
	}

	store := txstore.New(kind, e.builder, e.chain, e.translator, e.logger)
	store.Initialize(e.chain.DenomInfo())
	store.SetTarget(validator)
	store.SetAmount(amount)

	limit := e.chain.MaxDelegateAmount()
	if kind == txstore.KindUndelegate {
		limit = e.chain.MaxUndelegateAmount(validator)
	}
	if flowErr := store.CheckBounds(limit); flowErr != nil {
		store.SetError(flowErr)
		return errors.New(store.State().ErrorMessage)
	}

	result := store.PrepareForSigning(ctx, wallet.Address, e.chain.AvailableBalance())
	if !result.OK() {
		if msg := store.State().ErrorMessage; msg != "" {
			return errors.New(msg)
		}
		return result.Err
	}

	out := cmd.OutOrStdout()
	unsigned := result.Tx
	fmt.Fprintf(out, "Type:       %s\n", unsigned.Type)
	fmt.Fprintf(out, "Delegator:  %s\n", unsigned.Delegator)
	fmt.Fprintf(out, "Validator:  %s\n", unsigned.Validator)
	fmt.Fprintf(out, "Amount:     %s\n", e.chain.FormatDenom(e.chain.DenomInfo().FromBaseUnits(unsigned.Amount)))
	fmt.Fprintf(out, "Fee:        %s\n", e.chain.FormatDenom(result.Fee))
	fmt.Fprintf(out, "Gas:        %d\n", unsigned.GasLimit)
	fmt.Fprintf(out, "Sequence:   %d\n", unsigned.Sequence)
	fmt.Fprintf(out, "Unsigned:   %s\n", hexutil.Encode(unsigned.TxBytes))

	if !broadcast {
		return nil
	}

	fmt.Fprintf(out, "\nPassword for %s: ", wallet.Name)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	unlocked, err := e.storage.LoadWallet(wallet.ID, string(password), e.cfg.Bech32Prefix)
	if err != nil {
		return fmt.Errorf("failed to unlock wallet: %w", err)
	}
	defer unlocked.ClearSecrets()

	entry := audit.Entry{
		WalletID:  wallet.ID,
		Kind:      string(kind),
		Validator: validator,
		Amount:    e.chain.DenomInfo().FromBaseUnits(unsigned.Amount).String(),
		Fee:       result.Fee.String(),
	}

	txBytes, err := e.builder.Sign(unsigned, unlocked.PrivKey)
	if err != nil {
		entry.Action, entry.Error = audit.ActionSignFailed, err.Error()
		_ = e.journal.Record(entry)
		return err
	}

	res, err := e.client.Broadcast(ctx, txBytes)
	if err != nil {
		entry.Action, entry.Error = audit.ActionRejected, err.Error()
		if res != nil {
			entry.TxHash = res.TxHash
		}
		_ = e.journal.Record(entry)
		return err
	}

	entry.Action, entry.TxHash = audit.ActionBroadcast, res.TxHash
	if err := e.journal.Record(entry); err != nil {
		e.logger.WithError(err).Warn("Failed to journal transaction")
	}

	e.logger.WithFields(logrus.Fields{
		"kind":    kind,
		"tx_hash": res.TxHash,
	}).Info("Transaction broadcast")
	fmt.Fprintf(out, "Tx hash:    %s\n", res.TxHash)
	return nil
}

func findWallet(e *env, ref string) (*models.Wallet, error) {
	wallets, err := e.storage.ListWallets()
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	for _, w := range wallets {
		if w.ID == ref || strings.EqualFold(w.Name, ref) {
			return w.PublicWallet()
		}
	}
	return nil, fmt.Errorf("wallet %q not found", ref)
}
