package types

// rateoracle module event types
const (
	EventTypeRateRequested        = "rate_requested"
	EventTypeRatesFulfilled       = "rates_fulfilled"
	EventTypeRateRequestFailed    = "rate_request_failed"
	EventTypeTokenRegistered      = "token_registered"
	EventTypePauseChanged         = "pause_changed"
	EventTypeSourceUpdated        = "source_updated"
	EventTypeSubscriptionUpdated  = "subscription_id_updated"
	EventTypeDonIDUpdated         = "don_id_updated"
	EventTypeGasLimitUpdated      = "gas_limit_updated"
	EventTypeHistoryCleaned       = "history_cleaned"
	EventTypeOwnershipTransferred = "ownership_transferred"
)

// Event attribute keys
const (
	AttributeKeyRequestID      = "request_id"
	AttributeKeyRates          = "rates"
	AttributeKeyTimestamp      = "timestamp"
	AttributeKeyHistoryIndex   = "history_index"
	AttributeKeyError          = "error"
	AttributeKeyToken          = "token"
	AttributeKeyPosition       = "position"
	AttributeKeyPaused         = "paused"
	AttributeKeySource         = "source"
	AttributeKeySubscriptionID = "subscription_id"
	AttributeKeyDonID          = "don_id"
	AttributeKeyGasLimit       = "gas_limit"
	AttributeKeyLengthBefore   = "length_before"
	AttributeKeyLengthAfter    = "length_after"
	AttributeKeyPreviousOwner  = "previous_owner"
	AttributeKeyNewOwner       = "new_owner"
)
