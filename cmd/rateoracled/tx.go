package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"

	"github.com/VerisLabs/hurdleRateOracle/oracle/config"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

const (
	flagAPI            = "api"
	flagAdminToken     = "admin-token"
	flagFrom           = "from"
	flagSecretsSlot    = "secrets-slot"
	flagSecretsVersion = "secrets-version"
)

// TxCmd groups the owner messages sent to a running daemon.
func TxCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Send owner transactions to a running daemon",
	}

	cmd.PersistentFlags().String(flagAPI, "", "daemon API base URL (defaults to http://<api.listen>)")
	cmd.PersistentFlags().String(flagAdminToken, "", "bearer token for the tx endpoint (defaults to api.admin_token)")
	cmd.PersistentFlags().String(flagFrom, "", "sender address (defaults to chain.owner)")
	_ = v.BindPFlag(flagAPI, cmd.PersistentFlags().Lookup(flagAPI))
	_ = v.BindPFlag(flagAdminToken, cmd.PersistentFlags().Lookup(flagAdminToken))
	_ = v.BindPFlag(flagFrom, cmd.PersistentFlags().Lookup(flagFrom))

	cmd.AddCommand(
		NewRequestUpdateCmd(v),
		NewRegisterTokenCmd(v),
		NewSetPausedCmd(v, "pause", true),
		NewSetPausedCmd(v, "unpause", false),
		NewSetSourceCmd(v),
		NewSetSubscriptionIDCmd(v),
		NewSetDonIDCmd(v),
		NewSetGasLimitCmd(v),
		NewCleanupHistoryCmd(v),
		NewTransferOwnershipCmd(v),
	)

	return cmd
}

type txClient struct {
	url    string
	token  string
	from   string
	client *http.Client
}

func newTxClient(v *viper.Viper) (*txClient, error) {
	if err := loadConfig(v); err != nil {
		return nil, err
	}

	c := &txClient{
		url:    v.GetString(flagAPI),
		token:  v.GetString(flagAdminToken),
		from:   v.GetString(flagFrom),
		client: &http.Client{Timeout: 30 * time.Second},
	}
	if c.url == "" {
		c.url = config.APIURL()
	}
	if c.token == "" {
		c.token = config.AdminToken()
	}
	if c.from == "" {
		c.from = config.Owner().String()
	}
	return c, nil
}

// broadcast validates msg and delivers it through the daemon's tx endpoint.
func (c *txClient) broadcast(cmd *cobra.Command, msg types.Msg) error {
	if err := msg.ValidateBasic(); err != nil {
		return err
	}

	raw, err := types.EncodeMsgJSON(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, strings.TrimRight(c.url, "/")+"/tx", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach daemon at %s: %w", c.url, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%s rejected (%s): %s", msg.Type(), res.Status, gjson.GetBytes(body, "error").String())
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(body))
	return err
}

// runTx builds a message for the configured sender and broadcasts it.
func runTx(v *viper.Viper, build func(sender string, args []string) (types.Msg, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := newTxClient(v)
		if err != nil {
			return err
		}
		msg, err := build(c.from, args)
		if err != nil {
			return err
		}
		return c.broadcast(cmd, msg)
	}
}

func NewRequestUpdateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request-update",
		Short: "Dispatch a rate request now",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().Uint8(flagSecretsSlot, 0, "DON secrets slot")
	cmd.Flags().Uint64(flagSecretsVersion, 0, "DON secrets version (0 uses the configured secrets)")

	cmd.RunE = runTx(v, func(sender string, _ []string) (types.Msg, error) {
		slot, _ := cmd.Flags().GetUint8(flagSecretsSlot)
		version, _ := cmd.Flags().GetUint64(flagSecretsVersion)
		if version == 0 {
			var ok bool
			if slot, version, ok = config.Secrets(); !ok {
				return types.NewMsgRequestUpdate(sender, nil), nil
			}
		}
		return types.NewMsgRequestUpdate(sender, &types.SecretsRef{SlotID: slot, Version: version}), nil
	})
	return cmd
}

func NewRegisterTokenCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "register-token [token] [position]",
		Short: "Assign a token to a free lane",
		Args:  cobra.ExactArgs(2),
		RunE: runTx(v, func(sender string, args []string) (types.Msg, error) {
			if !common.IsHexAddress(args[0]) {
				return nil, fmt.Errorf("invalid token address: %s", args[0])
			}
			position, err := parseUint(args[1], 8)
			if err != nil {
				return nil, fmt.Errorf("invalid position %q: %w", args[1], err)
			}
			return types.NewMsgRegisterToken(sender, common.HexToAddress(args[0]), uint8(position)), nil
		}),
	}
}

func NewSetPausedCmd(v *viper.Viper, use string, paused bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Set the pause flag to %t", paused),
		Args:  cobra.NoArgs,
		RunE: runTx(v, func(sender string, _ []string) (types.Msg, error) {
			return types.NewMsgSetPaused(sender, paused), nil
		}),
	}
}

func NewSetSourceCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "set-source [source | @path/to/source.json]",
		Short: "Replace the source document fetched by the DON",
		Args:  cobra.ExactArgs(1),
		RunE: runTx(v, func(sender string, args []string) (types.Msg, error) {
			source := args[0]
			if path, ok := strings.CutPrefix(source, "@"); ok {
				contents, err := os.ReadFile(path)
				if err != nil {
					return nil, err
				}
				source = strings.TrimSpace(string(contents))
			}
			return types.NewMsgSetSource(sender, source), nil
		}),
	}
}

func NewSetSubscriptionIDCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "set-subscription-id [id]",
		Short: "Replace the billing subscription id",
		Args:  cobra.ExactArgs(1),
		RunE: runTx(v, func(sender string, args []string) (types.Msg, error) {
			id, err := cast.ToUint64E(args[0])
			if err != nil {
				return nil, fmt.Errorf("invalid subscription id %q: %w", args[0], err)
			}
			return types.NewMsgSetSubscriptionID(sender, id), nil
		}),
	}
}

func NewSetDonIDCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "set-don-id [name | 0x-hash]",
		Short: "Replace the DON identifier",
		Args:  cobra.ExactArgs(1),
		RunE: runTx(v, func(sender string, args []string) (types.Msg, error) {
			return types.NewMsgSetDonID(sender, parseDonID(args[0])), nil
		}),
	}
}

// parseDonID accepts a 32-byte hex hash or a short DON name.
func parseDonID(s string) common.Hash {
	if strings.HasPrefix(s, "0x") && len(s) == 2+2*common.HashLength {
		return common.HexToHash(s)
	}
	return types.DonIDFromString(s)
}

func NewSetGasLimitCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "set-gas-limit [limit]",
		Short: "Replace the callback gas limit",
		Args:  cobra.ExactArgs(1),
		RunE: runTx(v, func(sender string, args []string) (types.Msg, error) {
			limit, err := parseUint(args[0], 32)
			if err != nil {
				return nil, fmt.Errorf("invalid gas limit %q: %w", args[0], err)
			}
			return types.NewMsgSetGasLimit(sender, uint32(limit)), nil
		}),
	}
}

func NewCleanupHistoryCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-history [max-age]",
		Short: "Prune snapshots older than max-age (seconds or a duration such as 720h)",
		Args:  cobra.ExactArgs(1),
		RunE: runTx(v, func(sender string, args []string) (types.Msg, error) {
			maxAge, err := parseMaxAge(args[0])
			if err != nil {
				return nil, err
			}
			return types.NewMsgCleanupOldHistory(sender, maxAge), nil
		}),
	}
}

// parseUint parses s as an unsigned integer of at most bits width.
func parseUint(s string, bits int) (uint64, error) {
	n, err := cast.ToUint64E(s)
	if err != nil {
		return 0, err
	}
	if bits < 64 && n >= 1<<bits {
		return 0, fmt.Errorf("value %d overflows %d bits", n, bits)
	}
	return n, nil
}

func parseMaxAge(s string) (uint64, error) {
	if secs, err := cast.ToUint64E(s); err == nil {
		return secs, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid max age %q", s)
	}
	return uint64(d / time.Second), nil
}

func NewTransferOwnershipCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer-ownership [new-owner]",
		Short: "Hand the owner role to another address",
		Args:  cobra.ExactArgs(1),
		RunE: runTx(v, func(sender string, args []string) (types.Msg, error) {
			return types.NewMsgTransferOwnership(sender, args[0]), nil
		}),
	}
}
