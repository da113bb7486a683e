package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/ethereum/go-ethereum/common"
)

// message types for the rateoracle module
const (
	TypeMsgRequestUpdate     = "request_update"
	TypeMsgFulfill           = "fulfill"
	TypeMsgRegisterToken     = "register_token"
	TypeMsgSetPaused         = "set_paused"
	TypeMsgSetSource         = "set_source"
	TypeMsgSetSubscriptionID = "set_subscription_id"
	TypeMsgSetDonID          = "set_don_id"
	TypeMsgSetGasLimit       = "set_gas_limit"
	TypeMsgCleanupOldHistory = "cleanup_old_history"
	TypeMsgTransferOwnership = "transfer_ownership"
)

// Msg is implemented by every rateoracle message.
type Msg interface {
	Route() string
	Type() string
	ValidateBasic() error
	GetSigners() []sdk.AccAddress
	GetSender() string
}

var (
	_ Msg = &MsgRequestUpdate{}
	_ Msg = &MsgFulfill{}
	_ Msg = &MsgRegisterToken{}
	_ Msg = &MsgSetPaused{}
	_ Msg = &MsgSetSource{}
	_ Msg = &MsgSetSubscriptionID{}
	_ Msg = &MsgSetDonID{}
	_ Msg = &MsgSetGasLimit{}
	_ Msg = &MsgCleanupOldHistory{}
	_ Msg = &MsgTransferOwnership{}
)

func validateSender(sender string) error {
	if _, err := sdk.AccAddressFromBech32(sender); err != nil {
		return sdkerrors.Wrapf(sdkerrors.ErrInvalidAddress, "invalid sender address (%s)", err)
	}
	return nil
}

func mustSigner(sender string) []sdk.AccAddress {
	addr, err := sdk.AccAddressFromBech32(sender)
	if err != nil {
		panic(err)
	}
	return []sdk.AccAddress{addr}
}

// MsgRequestUpdate asks the DON for fresh rates.
type MsgRequestUpdate struct {
	Sender  string      `json:"sender"`
	Secrets *SecretsRef `json:"secrets,omitempty"`
}

func NewMsgRequestUpdate(sender string, secrets *SecretsRef) *MsgRequestUpdate {
	return &MsgRequestUpdate{Sender: sender, Secrets: secrets}
}

func (msg MsgRequestUpdate) Route() string                { return RouterKey }
func (msg MsgRequestUpdate) Type() string                 { return TypeMsgRequestUpdate }
func (msg MsgRequestUpdate) GetSigners() []sdk.AccAddress { return mustSigner(msg.Sender) }
func (msg MsgRequestUpdate) GetSender() string            { return msg.Sender }

func (msg MsgRequestUpdate) ValidateBasic() error {
	return validateSender(msg.Sender)
}

// MsgFulfill delivers the DON result for an open request.
type MsgFulfill struct {
	Sender    string      `json:"sender"`
	RequestID common.Hash `json:"request_id"`
	Response  []byte      `json:"response,omitempty"`
	Err       []byte      `json:"err,omitempty"`
}

func NewMsgFulfill(sender string, requestID common.Hash, response, errBytes []byte) *MsgFulfill {
	return &MsgFulfill{
		Sender:    sender,
		RequestID: requestID,
		Response:  response,
		Err:       errBytes,
	}
}

func (msg MsgFulfill) Route() string                { return RouterKey }
func (msg MsgFulfill) Type() string                 { return TypeMsgFulfill }
func (msg MsgFulfill) GetSigners() []sdk.AccAddress { return mustSigner(msg.Sender) }
func (msg MsgFulfill) GetSender() string            { return msg.Sender }

func (msg MsgFulfill) ValidateBasic() error {
	if err := validateSender(msg.Sender); err != nil {
		return err
	}
	if msg.RequestID == (common.Hash{}) {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "request id cannot be empty")
	}
	return nil
}

// MsgRegisterToken assigns a token to a lane.
type MsgRegisterToken struct {
	Sender   string         `json:"sender"`
	Token    common.Address `json:"token"`
	Position uint8          `json:"position"`
}

func NewMsgRegisterToken(sender string, token common.Address, position uint8) *MsgRegisterToken {
	return &MsgRegisterToken{Sender: sender, Token: token, Position: position}
}

func (msg MsgRegisterToken) Route() string                { return RouterKey }
func (msg MsgRegisterToken) Type() string                 { return TypeMsgRegisterToken }
func (msg MsgRegisterToken) GetSigners() []sdk.AccAddress { return mustSigner(msg.Sender) }
func (msg MsgRegisterToken) GetSender() string            { return msg.Sender }

func (msg MsgRegisterToken) ValidateBasic() error {
	if err := validateSender(msg.Sender); err != nil {
		return err
	}
	if msg.Token == (common.Address{}) {
		return ErrAddressZero
	}
	if msg.Position >= MaxLanes {
		return sdkerrors.Wrapf(ErrInvalidPosition, "position %d", msg.Position)
	}
	return nil
}

// MsgSetPaused toggles the pause flag.
type MsgSetPaused struct {
	Sender string `json:"sender"`
	Paused bool   `json:"paused"`
}

func NewMsgSetPaused(sender string, paused bool) *MsgSetPaused {
	return &MsgSetPaused{Sender: sender, Paused: paused}
}

func (msg MsgSetPaused) Route() string                { return RouterKey }
func (msg MsgSetPaused) Type() string                 { return TypeMsgSetPaused }
func (msg MsgSetPaused) GetSigners() []sdk.AccAddress { return mustSigner(msg.Sender) }
func (msg MsgSetPaused) GetSender() string            { return msg.Sender }

func (msg MsgSetPaused) ValidateBasic() error {
	return validateSender(msg.Sender)
}

// MsgSetSource replaces the DON source.
type MsgSetSource struct {
	Sender string `json:"sender"`
	Source string `json:"source"`
}

func NewMsgSetSource(sender, source string) *MsgSetSource {
	return &MsgSetSource{Sender: sender, Source: source}
}

func (msg MsgSetSource) Route() string                { return RouterKey }
func (msg MsgSetSource) Type() string                 { return TypeMsgSetSource }
func (msg MsgSetSource) GetSigners() []sdk.AccAddress { return mustSigner(msg.Sender) }
func (msg MsgSetSource) GetSender() string            { return msg.Sender }

func (msg MsgSetSource) ValidateBasic() error {
	if err := validateSender(msg.Sender); err != nil {
		return err
	}
	if msg.Source == "" {
		return ErrInvalidSource
	}
	return nil
}

// MsgSetSubscriptionID replaces the billing subscription.
type MsgSetSubscriptionID struct {
	Sender         string `json:"sender"`
	SubscriptionID uint64 `json:"subscription_id"`
}

func NewMsgSetSubscriptionID(sender string, id uint64) *MsgSetSubscriptionID {
	return &MsgSetSubscriptionID{Sender: sender, SubscriptionID: id}
}

func (msg MsgSetSubscriptionID) Route() string                { return RouterKey }
func (msg MsgSetSubscriptionID) Type() string                 { return TypeMsgSetSubscriptionID }
func (msg MsgSetSubscriptionID) GetSigners() []sdk.AccAddress { return mustSigner(msg.Sender) }
func (msg MsgSetSubscriptionID) GetSender() string            { return msg.Sender }

func (msg MsgSetSubscriptionID) ValidateBasic() error {
	if err := validateSender(msg.Sender); err != nil {
		return err
	}
	if msg.SubscriptionID == 0 {
		return ErrInvalidSubscriptionID
	}
	return nil
}

// MsgSetDonID replaces the DON identifier.
type MsgSetDonID struct {
	Sender string      `json:"sender"`
	DonID  common.Hash `json:"don_id"`
}

func NewMsgSetDonID(sender string, donID common.Hash) *MsgSetDonID {
	return &MsgSetDonID{Sender: sender, DonID: donID}
}

func (msg MsgSetDonID) Route() string                { return RouterKey }
func (msg MsgSetDonID) Type() string                 { return TypeMsgSetDonID }
func (msg MsgSetDonID) GetSigners() []sdk.AccAddress { return mustSigner(msg.Sender) }
func (msg MsgSetDonID) GetSender() string            { return msg.Sender }

func (msg MsgSetDonID) ValidateBasic() error {
	if err := validateSender(msg.Sender); err != nil {
		return err
	}
	if msg.DonID == (common.Hash{}) {
		return ErrInvalidDonID
	}
	return nil
}

// MsgSetGasLimit replaces the callback gas limit.
type MsgSetGasLimit struct {
	Sender   string `json:"sender"`
	GasLimit uint32 `json:"gas_limit"`
}

func NewMsgSetGasLimit(sender string, gasLimit uint32) *MsgSetGasLimit {
	return &MsgSetGasLimit{Sender: sender, GasLimit: gasLimit}
}

func (msg MsgSetGasLimit) Route() string                { return RouterKey }
func (msg MsgSetGasLimit) Type() string                 { return TypeMsgSetGasLimit }
func (msg MsgSetGasLimit) GetSigners() []sdk.AccAddress { return mustSigner(msg.Sender) }
func (msg MsgSetGasLimit) GetSender() string            { return msg.Sender }

func (msg MsgSetGasLimit) ValidateBasic() error {
	if err := validateSender(msg.Sender); err != nil {
		return err
	}
	if msg.GasLimit == 0 {
		return ErrInvalidGasLimit
	}
	return nil
}

// MsgCleanupOldHistory prunes snapshots older than MaxAge seconds.
type MsgCleanupOldHistory struct {
	Sender string `json:"sender"`
	MaxAge uint64 `json:"max_age"`
}

func NewMsgCleanupOldHistory(sender string, maxAge uint64) *MsgCleanupOldHistory {
	return &MsgCleanupOldHistory{Sender: sender, MaxAge: maxAge}
}

func (msg MsgCleanupOldHistory) Route() string                { return RouterKey }
func (msg MsgCleanupOldHistory) Type() string                 { return TypeMsgCleanupOldHistory }
func (msg MsgCleanupOldHistory) GetSigners() []sdk.AccAddress { return mustSigner(msg.Sender) }
func (msg MsgCleanupOldHistory) GetSender() string            { return msg.Sender }

func (msg MsgCleanupOldHistory) ValidateBasic() error {
	return validateSender(msg.Sender)
}

// MsgTransferOwnership hands the owner role to NewOwner.
type MsgTransferOwnership struct {
	Sender   string `json:"sender"`
	NewOwner string `json:"new_owner"`
}

func NewMsgTransferOwnership(sender, newOwner string) *MsgTransferOwnership {
	return &MsgTransferOwnership{Sender: sender, NewOwner: newOwner}
}

func (msg MsgTransferOwnership) Route() string                { return RouterKey }
func (msg MsgTransferOwnership) Type() string                 { return TypeMsgTransferOwnership }
func (msg MsgTransferOwnership) GetSigners() []sdk.AccAddress { return mustSigner(msg.Sender) }
func (msg MsgTransferOwnership) GetSender() string            { return msg.Sender }

func (msg MsgTransferOwnership) ValidateBasic() error {
	if err := validateSender(msg.Sender); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.NewOwner); err != nil {
		return sdkerrors.Wrapf(sdkerrors.ErrInvalidAddress, "invalid new owner address (%s)", err)
	}
	return nil
}
