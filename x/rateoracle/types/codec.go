package types

import (
	"encoding/json"
	"fmt"

	"github.com/cosmos/cosmos-sdk/codec"
)

var (
	amino = codec.NewLegacyAmino()

	// ModuleCdc encodes module store values and message sign bytes.
	ModuleCdc = amino
)

func init() {
	RegisterLegacyAminoCodec(amino)
	amino.Seal()
}

// RegisterLegacyAminoCodec registers the concrete message types on the given codec.
func RegisterLegacyAminoCodec(cdc *codec.LegacyAmino) {
	cdc.RegisterConcrete(&MsgRequestUpdate{}, "rateoracle/MsgRequestUpdate", nil)
	cdc.RegisterConcrete(&MsgFulfill{}, "rateoracle/MsgFulfill", nil)
	cdc.RegisterConcrete(&MsgRegisterToken{}, "rateoracle/MsgRegisterToken", nil)
	cdc.RegisterConcrete(&MsgSetPaused{}, "rateoracle/MsgSetPaused", nil)
	cdc.RegisterConcrete(&MsgSetSource{}, "rateoracle/MsgSetSource", nil)
	cdc.RegisterConcrete(&MsgSetSubscriptionID{}, "rateoracle/MsgSetSubscriptionID", nil)
	cdc.RegisterConcrete(&MsgSetDonID{}, "rateoracle/MsgSetDonID", nil)
	cdc.RegisterConcrete(&MsgSetGasLimit{}, "rateoracle/MsgSetGasLimit", nil)
	cdc.RegisterConcrete(&MsgCleanupOldHistory{}, "rateoracle/MsgCleanupOldHistory", nil)
	cdc.RegisterConcrete(&MsgTransferOwnership{}, "rateoracle/MsgTransferOwnership", nil)
}

var msgFactories = map[string]func() Msg{
	TypeMsgRequestUpdate:     func() Msg { return &MsgRequestUpdate{} },
	TypeMsgFulfill:           func() Msg { return &MsgFulfill{} },
	TypeMsgRegisterToken:     func() Msg { return &MsgRegisterToken{} },
	TypeMsgSetPaused:         func() Msg { return &MsgSetPaused{} },
	TypeMsgSetSource:         func() Msg { return &MsgSetSource{} },
	TypeMsgSetSubscriptionID: func() Msg { return &MsgSetSubscriptionID{} },
	TypeMsgSetDonID:          func() Msg { return &MsgSetDonID{} },
	TypeMsgSetGasLimit:       func() Msg { return &MsgSetGasLimit{} },
	TypeMsgCleanupOldHistory: func() Msg { return &MsgCleanupOldHistory{} },
	TypeMsgTransferOwnership: func() Msg { return &MsgTransferOwnership{} },
}

type msgEnvelope struct {
	Type string          `json:"type"`
	Msg  json.RawMessage `json:"msg"`
}

// EncodeMsgJSON wraps msg as {"type": ..., "msg": ...} for the tx endpoint.
func EncodeMsgJSON(msg Msg) ([]byte, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msgEnvelope{Type: msg.Type(), Msg: raw})
}

// DecodeMsgJSON is the inverse of EncodeMsgJSON.
func DecodeMsgJSON(bz []byte) (Msg, error) {
	var env msgEnvelope
	if err := json.Unmarshal(bz, &env); err != nil {
		return nil, fmt.Errorf("invalid message envelope: %w", err)
	}

	factory, ok := msgFactories[env.Type]
	if !ok {
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
	if len(env.Msg) == 0 {
		return nil, fmt.Errorf("missing %s message body", env.Type)
	}

	msg := factory()
	if err := json.Unmarshal(env.Msg, msg); err != nil {
		return nil, fmt.Errorf("invalid %s message: %w", env.Type, err)
	}
	return msg, nil
}
