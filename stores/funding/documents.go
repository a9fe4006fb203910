package funding

import (
	"math"

	"github.com/bsv-blockchain/minerid/errors"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	keyDocumentName  = "funding key"
	seedDocumentName = "funding seed"
)

// KeyDocument is the content of the funding key file.
type KeyDocument struct {
	FundingKey KeyEntry `json:"fundingKey"`
}

type KeyEntry struct {
	PrivateBIP32 string `json:"privateBIP32"`
}

// SeedDocument is the content of the funding seed file. FirstFundingOutpoint is absent until
// the operator has sent coins to the funding destination and recorded the outpoint.
type SeedDocument struct {
	FundingDestination   Destination     `json:"fundingDestination"`
	FirstFundingOutpoint *OutpointEntry `json:"firstFundingOutpoint,omitempty"`
}

type Destination struct {
	AddressBase58 string `json:"addressBase58"`
}

type OutpointEntry struct {
	TxID string `json:"txid"`
	N    uint32 `json:"n"`
}

func MarshalKeyDocument(doc *KeyDocument) ([]byte, error) {
	if doc.FundingKey.PrivateBIP32 == "" {
		return nil, errors.NewFieldError(errors.ERR_CONFIGURATION, keyDocumentName, "fundingKey.privateBIP32", "string", true)
	}

	return json.Marshal(doc)
}

// UnmarshalKeyDocument decodes and checks a funding key document, reporting the first
// missing or mistyped field.
func UnmarshalKeyDocument(b []byte) (*KeyDocument, error) {
	root, err := decodeObject(keyDocumentName, b)
	if err != nil {
		return nil, err
	}

	fundingKey, err := requireObject(keyDocumentName, root, "fundingKey", "fundingKey")
	if err != nil {
		return nil, err
	}

	privateBIP32, err := requireString(keyDocumentName, fundingKey, "privateBIP32", "fundingKey.privateBIP32")
	if err != nil {
		return nil, err
	}

	return &KeyDocument{
		FundingKey: KeyEntry{PrivateBIP32: privateBIP32},
	}, nil
}

func MarshalSeedDocument(doc *SeedDocument) ([]byte, error) {
	if doc.FundingDestination.AddressBase58 == "" {
		return nil, errors.NewFieldError(errors.ERR_CONFIGURATION, seedDocumentName, "fundingDestination.addressBase58", "string", true)
	}

	if doc.FirstFundingOutpoint != nil && doc.FirstFundingOutpoint.TxID == "" {
		return nil, errors.NewFieldError(errors.ERR_CONFIGURATION, seedDocumentName, "firstFundingOutpoint.txid", "string", true)
	}

	return json.Marshal(doc)
}

// UnmarshalSeedDocument decodes and checks a funding seed document. The outpoint is optional
// here; Load is the one that insists on it.
func UnmarshalSeedDocument(b []byte) (*SeedDocument, error) {
	root, err := decodeObject(seedDocumentName, b)
	if err != nil {
		return nil, err
	}

	destination, err := requireObject(seedDocumentName, root, "fundingDestination", "fundingDestination")
	if err != nil {
		return nil, err
	}

	address, err := requireString(seedDocumentName, destination, "addressBase58", "fundingDestination.addressBase58")
	if err != nil {
		return nil, err
	}

	doc := &SeedDocument{
		FundingDestination: Destination{AddressBase58: address},
	}

	if _, ok := root["firstFundingOutpoint"]; !ok {
		return doc, nil
	}

	outpoint, err := requireObject(seedDocumentName, root, "firstFundingOutpoint", "firstFundingOutpoint")
	if err != nil {
		return nil, err
	}

	txID, err := requireString(seedDocumentName, outpoint, "txid", "firstFundingOutpoint.txid")
	if err != nil {
		return nil, err
	}

	n, err := requireUint32(seedDocumentName, outpoint, "n", "firstFundingOutpoint.n")
	if err != nil {
		return nil, err
	}

	doc.FirstFundingOutpoint = &OutpointEntry{
		TxID: txID,
		N:    n,
	}

	return doc, nil
}

func decodeObject(document string, b []byte) (map[string]interface{}, error) {
	var root map[string]interface{}

	if err := json.Unmarshal(b, &root); err != nil {
		return nil, errors.NewConfigurationError("%s document is not valid JSON: %v", document, err)
	}

	if root == nil {
		return nil, errors.NewFieldError(errors.ERR_CONFIGURATION, document, "", "object", false)
	}

	return root, nil
}

func requireObject(document string, parent map[string]interface{}, key, path string) (map[string]interface{}, error) {
	value, ok := parent[key]
	if !ok {
		return nil, errors.NewFieldError(errors.ERR_CONFIGURATION, document, path, "object", true)
	}

	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, errors.NewFieldError(errors.ERR_CONFIGURATION, document, path, "object", false)
	}

	return obj, nil
}

func requireString(document string, parent map[string]interface{}, key, path string) (string, error) {
	value, ok := parent[key]
	if !ok {
		return "", errors.NewFieldError(errors.ERR_CONFIGURATION, document, path, "string", true)
	}

	s, ok := value.(string)
	if !ok {
		return "", errors.NewFieldError(errors.ERR_CONFIGURATION, document, path, "string", false)
	}

	return s, nil
}

func requireUint32(document string, parent map[string]interface{}, key, path string) (uint32, error) {
	value, ok := parent[key]
	if !ok {
		return 0, errors.NewFieldError(errors.ERR_CONFIGURATION, document, path, "integer", true)
	}

	f, ok := value.(float64)
	if !ok || f < 0 || f > math.MaxUint32 || f != math.Trunc(f) {
		return 0, errors.NewFieldError(errors.ERR_CONFIGURATION, document, path, "integer", false)
	}

	return uint32(f), nil
}
