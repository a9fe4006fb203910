package errors

import "strconv"

// ERR is the numeric error code carried by every *Error. Codes are grouped in
// ranges of ten so GetErrorCategory can bucket them.
type ERR int32

const (
	ERR_UNKNOWN            ERR = 0
	ERR_INVALID_ARGUMENT   ERR = 1
	ERR_THRESHOLD_EXCEEDED ERR = 2
	ERR_NOT_FOUND          ERR = 3
	ERR_PROCESSING         ERR = 4
	ERR_CONFIGURATION      ERR = 5
	ERR_CONTEXT            ERR = 6
	ERR_CONTEXT_CANCELED   ERR = 7
	ERR_ERROR              ERR = 9

	ERR_BLOCK_NOT_FOUND ERR = 10
	ERR_BLOCK_INVALID   ERR = 11
	ERR_BLOCK_EXISTS    ERR = 12

	ERR_TX_NOT_FOUND            ERR = 30
	ERR_TX_INVALID              ERR = 31
	ERR_TX_INVALID_DOUBLE_SPEND ERR = 32
	ERR_TX_ALREADY_EXISTS       ERR = 33
	ERR_TX_ERROR                ERR = 34
	ERR_TX_INSUFFICIENT_FEE     ERR = 35

	ERR_SERVICE_UNAVAILABLE ERR = 50
	ERR_SERVICE_NOT_STARTED ERR = 51
	ERR_SERVICE_ERROR       ERR = 52

	ERR_STORAGE_UNAVAILABLE ERR = 60
	ERR_STORAGE_NOT_STARTED ERR = 61
	ERR_STORAGE_ERROR       ERR = 62

	ERR_UTXO_NOT_FOUND ERR = 70
	ERR_SPENT          ERR = 71

	ERR_NETWORK_ERROR              ERR = 110
	ERR_NETWORK_TIMEOUT            ERR = 111
	ERR_NETWORK_CONNECTION_REFUSED ERR = 112
	ERR_NETWORK_INVALID_RESPONSE   ERR = 113

	ERR_MINERID_TEMPLATE_MISMATCH ERR = 120
	ERR_MINERID_DOCUMENT_FORMAT   ERR = 121
	ERR_MINERID_HEIGHT_MISMATCH   ERR = 122
	ERR_MINERID_FUNDING_EXHAUSTED ERR = 123
	ERR_MINERID_MISSING_COIN      ERR = 124
	ERR_MINERID_TRACKING          ERR = 125
	ERR_MINERID_BROADCAST         ERR = 126
	ERR_MINERID_TIP_RACE          ERR = 127
)

var ERR_name = map[int32]string{
	0:   "UNKNOWN",
	1:   "INVALID_ARGUMENT",
	2:   "THRESHOLD_EXCEEDED",
	3:   "NOT_FOUND",
	4:   "PROCESSING",
	5:   "CONFIGURATION",
	6:   "CONTEXT",
	7:   "CONTEXT_CANCELED",
	9:   "ERROR",
	10:  "BLOCK_NOT_FOUND",
	11:  "BLOCK_INVALID",
	12:  "BLOCK_EXISTS",
	30:  "TX_NOT_FOUND",
	31:  "TX_INVALID",
	32:  "TX_INVALID_DOUBLE_SPEND",
	33:  "TX_ALREADY_EXISTS",
	34:  "TX_ERROR",
	35:  "TX_INSUFFICIENT_FEE",
	50:  "SERVICE_UNAVAILABLE",
	51:  "SERVICE_NOT_STARTED",
	52:  "SERVICE_ERROR",
	60:  "STORAGE_UNAVAILABLE",
	61:  "STORAGE_NOT_STARTED",
	62:  "STORAGE_ERROR",
	70:  "UTXO_NOT_FOUND",
	71:  "SPENT",
	110: "NETWORK_ERROR",
	111: "NETWORK_TIMEOUT",
	112: "NETWORK_CONNECTION_REFUSED",
	113: "NETWORK_INVALID_RESPONSE",
	120: "MINERID_TEMPLATE_MISMATCH",
	121: "MINERID_DOCUMENT_FORMAT",
	122: "MINERID_HEIGHT_MISMATCH",
	123: "MINERID_FUNDING_EXHAUSTED",
	124: "MINERID_MISSING_COIN",
	125: "MINERID_TRACKING",
	126: "MINERID_BROADCAST",
	127: "MINERID_TIP_RACE",
}

var ERR_value = func() map[string]int32 {
	m := make(map[string]int32, len(ERR_name))
	for k, v := range ERR_name {
		m[v] = k
	}

	return m
}()

func (x ERR) Enum() *ERR {
	p := new(ERR)
	*p = x

	return p
}

func (x ERR) String() string {
	if name, ok := ERR_name[int32(x)]; ok {
		return name
	}

	return "ERR_" + strconv.Itoa(int(x))
}
