package minerid

import (
	"bytes"
	"encoding/hex"
	"math"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/minerid/errors"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const documentName = "miner info"

// ProtocolPrefix identifies miner info documents in an OP_RETURN output.
var ProtocolPrefix = []byte{0x60, 0x1d, 0xfa, 0xce}

// ProtocolVersion is the only miner info protocol version understood.
var ProtocolVersion = []byte{0x00}

// documentTemplate is OP_FALSE OP_RETURN <prefix> <version>; the document is the next push.
var documentTemplate = []*script.ScriptChunk{
	{Op: bscript.OpFALSE},
	{Op: bscript.OpRETURN},
	{Op: bscript.OpDATA4, Data: ProtocolPrefix},
	{Op: bscript.OpDATA1, Data: ProtocolVersion},
}

// Document is a miner info document. Height is the only block the document is valid for.
type Document struct {
	Version              string                `json:"version"`
	Height               int32                 `json:"height"`
	PrevMinerID          string                `json:"prevMinerId"`
	PrevMinerIDSig       string                `json:"prevMinerIdSig"`
	MinerID              string                `json:"minerId"`
	PrevRevocationKey    string                `json:"prevRevocationKey"`
	PrevRevocationKeySig string                `json:"prevRevocationKeySig"`
	RevocationKey        string                `json:"revocationKey"`
	RevocationMessage    *RevocationMessage    `json:"revocationMessage,omitempty"`
	RevocationMessageSig *RevocationMessageSig `json:"revocationMessageSig,omitempty"`

	// Raw is the document exactly as pushed, including fields not listed above.
	Raw []byte `json:"-"`
}

type RevocationMessage struct {
	CompromisedMinerID string `json:"compromised_minerId"`
}

type RevocationMessageSig struct {
	Sig1 string `json:"sig1"`
	Sig2 string `json:"sig2"`
}

// BuildScript returns the output script carrying doc. It is the inverse of ExtractDocument.
func BuildScript(doc []byte) (*bscript.Script, error) {
	s, err := templateScript()
	if err != nil {
		return nil, err
	}

	if err = s.AppendPushData(doc); err != nil {
		return nil, errors.NewProcessingError("could not push miner info document", err)
	}

	return s, nil
}

// ExtractDocument checks that scriptPubKey starts with the miner info template and decodes the
// document pushed right after it.
func ExtractDocument(scriptPubKey []byte) (*Document, error) {
	chunks, err := script.DecodeScript(scriptPubKey, script.DecodeOptionsParseOpReturn)
	if err != nil {
		template, tErr := templateScript()
		if tErr != nil {
			return nil, tErr
		}

		// a malformed push after an intact template is a document problem
		if bytes.HasPrefix(scriptPubKey, *template) {
			return nil, errors.NewDocumentFormatError("Could not read miner info document: %v", err)
		}

		return nil, errors.NewTemplateMismatchError("failed to extract miner info document from scriptPubKey, expected:[%s] got:[%s]",
			asm(*template), hex.EncodeToString(scriptPubKey))
	}

	for i, expected := range documentTemplate {
		if i >= len(chunks) || !sameChunk(chunks[i], expected) {
			got := ""
			if i < len(chunks) {
				got = chunkASM(chunks[i])
			}

			return nil, errors.NewTemplateMismatchError("failed to extract miner info document from scriptPubKey, expected:[%s] got:[%s]",
				chunkASM(expected), got)
		}
	}

	if len(chunks) == len(documentTemplate) {
		return nil, errors.NewDocumentFormatError("Could not read miner info document: no document after protocol version")
	}

	return ParseDocument(chunks[len(documentTemplate)].Data)
}

// ParseDocument decodes a miner info document and checks the required fields. Unknown top level
// keys are kept in Raw and otherwise ignored; the revocation objects, when present, must not
// carry unknown keys.
func ParseDocument(raw []byte) (*Document, error) {
	var root map[string]interface{}

	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, errors.NewDocumentFormatError("Could not read miner info document: %v", err)
	}

	if root == nil {
		return nil, fieldError("", "object", false)
	}

	doc := &Document{Raw: raw}

	var err error

	if doc.Version, err = documentString(root, "version", "version"); err != nil {
		return nil, err
	}

	if doc.Height, err = documentHeight(root); err != nil {
		return nil, err
	}

	required := []struct {
		key    string
		target *string
	}{
		{"prevMinerId", &doc.PrevMinerID},
		{"prevMinerIdSig", &doc.PrevMinerIDSig},
		{"minerId", &doc.MinerID},
		{"prevRevocationKey", &doc.PrevRevocationKey},
		{"prevRevocationKeySig", &doc.PrevRevocationKeySig},
		{"revocationKey", &doc.RevocationKey},
	}

	for _, field := range required {
		if *field.target, err = documentString(root, field.key, field.key); err != nil {
			return nil, err
		}
	}

	if message, ok, err := optionalObject(root, "revocationMessage", "compromised_minerId"); err != nil {
		return nil, err
	} else if ok {
		doc.RevocationMessage = &RevocationMessage{}

		if doc.RevocationMessage.CompromisedMinerID, err = documentString(message, "compromised_minerId", "revocationMessage.compromised_minerId"); err != nil {
			return nil, err
		}
	}

	if sig, ok, err := optionalObject(root, "revocationMessageSig", "sig1", "sig2"); err != nil {
		return nil, err
	} else if ok {
		doc.RevocationMessageSig = &RevocationMessageSig{}

		if doc.RevocationMessageSig.Sig1, err = documentString(sig, "sig1", "revocationMessageSig.sig1"); err != nil {
			return nil, err
		}

		if doc.RevocationMessageSig.Sig2, err = documentString(sig, "sig2", "revocationMessageSig.sig2"); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

func documentString(parent map[string]interface{}, key, path string) (string, error) {
	value, ok := parent[key]
	if !ok {
		return "", fieldError(path, "string", true)
	}

	s, ok := value.(string)
	if !ok {
		return "", fieldError(path, "string", false)
	}

	return s, nil
}

func documentHeight(root map[string]interface{}) (int32, error) {
	value, ok := root["height"]
	if !ok {
		return 0, fieldError("height", "integer", true)
	}

	height, ok := value.(float64)
	if !ok || height < math.MinInt32 || height > math.MaxInt32 || height != math.Trunc(height) {
		return 0, fieldError("height", "integer", false)
	}

	return int32(height), nil
}

func optionalObject(root map[string]interface{}, key string, allowed ...string) (map[string]interface{}, bool, error) {
	value, ok := root[key]
	if !ok {
		return nil, false, nil
	}

	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, false, fieldError(key, "object", false)
	}

	for field := range obj {
		known := false

		for _, name := range allowed {
			if field == name {
				known = true
				break
			}
		}

		if !known {
			return nil, false, errors.NewDocumentFormatError("Could not read miner info document: unexpected field %q in %s", field, key)
		}
	}

	return obj, true, nil
}

func fieldError(field, expected string, missing bool) error {
	data := &errors.FieldErrData{
		Document: documentName,
		Field:    field,
		Expected: expected,
		Missing:  missing,
	}

	return errors.New(errors.ERR_MINERID_DOCUMENT_FORMAT, "Could not read miner info document: %s", data.Error()).WithData(data)
}

func sameChunk(got, expected *script.ScriptChunk) bool {
	return got.Op == expected.Op && bytes.Equal(got.Data, expected.Data)
}

func templateScript() (*bscript.Script, error) {
	s := &bscript.Script{}

	for _, chunk := range documentTemplate {
		if chunk.Data == nil {
			if err := s.AppendOpcodes(chunk.Op); err != nil {
				return nil, errors.NewProcessingError("could not build miner info script", err)
			}

			continue
		}

		if err := s.AppendPushData(chunk.Data); err != nil {
			return nil, errors.NewProcessingError("could not build miner info script", err)
		}
	}

	return s, nil
}

func chunkASM(chunk *script.ScriptChunk) string {
	s := &bscript.Script{}

	if chunk.Op > bscript.OpFALSE && chunk.Op <= bscript.OpPUSHDATA4 {
		if err := s.AppendPushData(chunk.Data); err != nil {
			return ""
		}
	} else {
		_ = s.AppendOpcodes(chunk.Op)
	}

	return asm(*s)
}

func asm(b []byte) string {
	s := bscript.Script(b)

	str, err := s.ToASM()
	if err != nil {
		return hex.EncodeToString(b)
	}

	return str
}
