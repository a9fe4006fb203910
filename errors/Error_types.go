package errors

var (
	ErrUnknown              = New(ERR_UNKNOWN, "unknown error")
	ErrInvalidArgument      = New(ERR_INVALID_ARGUMENT, "invalid argument")
	ErrThresholdExceeded    = New(ERR_THRESHOLD_EXCEEDED, "threshold exceeded")
	ErrNotFound             = New(ERR_NOT_FOUND, "not found")
	ErrProcessing           = New(ERR_PROCESSING, "error processing")
	ErrConfiguration        = New(ERR_CONFIGURATION, "configuration error")
	ErrContext              = New(ERR_CONTEXT, "context error")
	ErrContextCanceled      = New(ERR_CONTEXT_CANCELED, "context canceled")
	ErrError                = New(ERR_ERROR, "generic error")
	ErrBlockNotFound        = New(ERR_BLOCK_NOT_FOUND, "block not found")
	ErrBlockInvalid         = New(ERR_BLOCK_INVALID, "block invalid")
	ErrBlockExists          = New(ERR_BLOCK_EXISTS, "block exists")
	ErrTxNotFound           = New(ERR_TX_NOT_FOUND, "tx not found")
	ErrTxInvalid            = New(ERR_TX_INVALID, "tx invalid")
	ErrTxInvalidDoubleSpend = New(ERR_TX_INVALID_DOUBLE_SPEND, "tx invalid double spend")
	ErrTxAlreadyExists      = New(ERR_TX_ALREADY_EXISTS, "tx already exists")
	ErrTxError              = New(ERR_TX_ERROR, "tx error")
	ErrTxInsufficientFee    = New(ERR_TX_INSUFFICIENT_FEE, "tx fee too low")
	ErrServiceUnavailable   = New(ERR_SERVICE_UNAVAILABLE, "service unavailable")
	ErrServiceNotStarted    = New(ERR_SERVICE_NOT_STARTED, "service not started")
	ErrServiceError         = New(ERR_SERVICE_ERROR, "service error")
	ErrStorageUnavailable   = New(ERR_STORAGE_UNAVAILABLE, "storage unavailable")
	ErrStorageNotStarted    = New(ERR_STORAGE_NOT_STARTED, "storage not started")
	ErrStorageError         = New(ERR_STORAGE_ERROR, "storage error")
	ErrUtxoNotFound         = New(ERR_UTXO_NOT_FOUND, "utxo not found")
	ErrSpent                = New(ERR_SPENT, "utxo already spent")
	ErrNetworkError         = New(ERR_NETWORK_ERROR, "network error")

	ErrTemplateMismatch    = New(ERR_MINERID_TEMPLATE_MISMATCH, "miner info script template mismatch")
	ErrDocumentFormat      = New(ERR_MINERID_DOCUMENT_FORMAT, "miner info document format error")
	ErrHeightMismatch      = New(ERR_MINERID_HEIGHT_MISMATCH, "miner info document height mismatch")
	ErrFundingExhausted    = New(ERR_MINERID_FUNDING_EXHAUSTED, "no spendable miner info funding")
	ErrMissingCoin         = New(ERR_MINERID_MISSING_COIN, "miner info funding coin missing")
	ErrTrackingConsistency = New(ERR_MINERID_TRACKING, "miner info tx tracking error")
	ErrBroadcast           = New(ERR_MINERID_BROADCAST, "miner info tx broadcast failed")
	ErrTipRace             = New(ERR_MINERID_TIP_RACE, "chain tip moved during miner info tx creation")
)

// errors initialization functions

func NewUnknownError(message string, params ...interface{}) error {
	return New(ERR_UNKNOWN, message, params...)
}
func NewInvalidArgumentError(message string, params ...interface{}) error {
	return New(ERR_INVALID_ARGUMENT, message, params...)
}
func NewThresholdExceededError(message string, params ...interface{}) error {
	return New(ERR_THRESHOLD_EXCEEDED, message, params...)
}
func NewNotFoundError(message string, params ...interface{}) error {
	return New(ERR_NOT_FOUND, message, params...)
}
func NewProcessingError(message string, params ...interface{}) error {
	return New(ERR_PROCESSING, message, params...)
}
func NewConfigurationError(message string, params ...interface{}) error {
	return New(ERR_CONFIGURATION, message, params...)
}
func NewContextError(message string, params ...interface{}) error {
	return New(ERR_CONTEXT, message, params...)
}
func NewContextCanceledError(message string, params ...interface{}) error {
	return New(ERR_CONTEXT_CANCELED, message, params...)
}
func NewError(message string, params ...interface{}) error {
	return New(ERR_ERROR, message, params...)
}
func NewBlockNotFoundError(message string, params ...interface{}) error {
	return New(ERR_BLOCK_NOT_FOUND, message, params...)
}
func NewBlockInvalidError(message string, params ...interface{}) error {
	return New(ERR_BLOCK_INVALID, message, params...)
}
func NewBlockExistsError(message string, params ...interface{}) error {
	return New(ERR_BLOCK_EXISTS, message, params...)
}
func NewTxNotFoundError(message string, params ...interface{}) error {
	return New(ERR_TX_NOT_FOUND, message, params...)
}
func NewTxInvalidError(message string, params ...interface{}) error {
	return New(ERR_TX_INVALID, message, params...)
}
func NewTxInvalidDoubleSpendError(message string, params ...interface{}) error {
	return New(ERR_TX_INVALID_DOUBLE_SPEND, message, params...)
}
func NewTxAlreadyExistsError(message string, params ...interface{}) error {
	return New(ERR_TX_ALREADY_EXISTS, message, params...)
}
func NewTxError(message string, params ...interface{}) error {
	return New(ERR_TX_ERROR, message, params...)
}
func NewTxInsufficientFeeError(message string, params ...interface{}) error {
	return New(ERR_TX_INSUFFICIENT_FEE, message, params...)
}
func NewServiceUnavailableError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_UNAVAILABLE, message, params...)
}
func NewServiceNotStartedError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_NOT_STARTED, message, params...)
}
func NewServiceError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_ERROR, message, params...)
}
func NewStorageUnavailableError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_UNAVAILABLE, message, params...)
}
func NewStorageNotStartedError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_NOT_STARTED, message, params...)
}
func NewStorageError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_ERROR, message, params...)
}
func NewUtxoNotFoundError(message string, params ...interface{}) error {
	return New(ERR_UTXO_NOT_FOUND, message, params...)
}
func NewSpentError(message string, params ...interface{}) error {
	return New(ERR_SPENT, message, params...)
}
func NewNetworkError(message string, params ...interface{}) error {
	return New(ERR_NETWORK_ERROR, message, params...)
}

// miner info lifecycle

func NewTemplateMismatchError(message string, params ...interface{}) error {
	return New(ERR_MINERID_TEMPLATE_MISMATCH, message, params...)
}
func NewDocumentFormatError(message string, params ...interface{}) error {
	return New(ERR_MINERID_DOCUMENT_FORMAT, message, params...)
}
func NewHeightMismatchError(message string, params ...interface{}) error {
	return New(ERR_MINERID_HEIGHT_MISMATCH, message, params...)
}
func NewFundingExhaustedError(message string, params ...interface{}) error {
	return New(ERR_MINERID_FUNDING_EXHAUSTED, message, params...)
}
func NewMissingCoinError(message string, params ...interface{}) error {
	return New(ERR_MINERID_MISSING_COIN, message, params...)
}
func NewTrackingConsistencyError(message string, params ...interface{}) error {
	return New(ERR_MINERID_TRACKING, message, params...)
}
func NewBroadcastError(message string, params ...interface{}) error {
	return New(ERR_MINERID_BROADCAST, message, params...)
}
func NewTipRaceError(message string, params ...interface{}) *Error {
	return New(ERR_MINERID_TIP_RACE, message, params...)
}
