package richtext

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Raw payload helpers. The sync coordinator exchanges view trees with
// the editor as opaque JSON bytes; these helpers probe and stamp those
// payloads without forcing a full decode on every debounced keystroke.

// ParsePayload validates and decodes a raw editor payload into a view
// tree. Malformed JSON or a non-document payload returns ErrConversion;
// no partial tree is ever returned.
func ParsePayload(data []byte) (*Node, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: payload is not valid JSON", ErrConversion)
	}
	if t := gjson.GetBytes(data, "type").String(); t != TypeDoc {
		return nil, fmt.Errorf("%w: payload type %q, expected %q", ErrConversion, t, TypeDoc)
	}
	var doc Node
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	return &doc, nil
}

// PayloadRootID returns the embedded root node id of a raw payload, or
// the empty string when absent.
func PayloadRootID(data []byte) string {
	return gjson.GetBytes(data, "attrs."+AttrNodeID).String()
}

// PayloadSyncVersion returns the sync version stamped onto a payload,
// or zero when the payload was never pushed programmatically.
func PayloadSyncVersion(data []byte) int64 {
	return gjson.GetBytes(data, "attrs."+AttrSyncVersion).Int()
}

// StampSyncVersion sets the sync version attribute on a raw payload,
// returning the updated bytes.
func StampSyncVersion(data []byte, version int64) ([]byte, error) {
	out, err := sjson.SetBytes(data, "attrs."+AttrSyncVersion, version)
	if err != nil {
		return nil, fmt.Errorf("%w: stamping sync version: %v", ErrConversion, err)
	}
	return out, nil
}
