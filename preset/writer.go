package preset

import (
	"encoding/binary"
	"fmt"

	"strobe/effects"
)

// Save serializes a document to current-version preset bytes. Loading
// the result reproduces the document, including placeholder records,
// byte for byte.
func Save(doc *Document) ([]byte, error) {
	out := []byte(SignatureV2)
	for _, child := range doc.Root.Children() {
		var err error
		out, err = appendRecord(out, child)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// appendRecord writes one node as an {index, length, payload} record
func appendRecord(out []byte, node effects.Node) ([]byte, error) {
	if list, ok := node.(*effects.List); ok {
		return appendListRecord(out, list)
	}

	id := node.RecordID()
	payload := node.EncodePayload()

	if id.Name != "" {
		// Extension record: prefix the payload with the fixed-width name
		if len(id.Name) > extensionNameLen {
			return nil, fmt.Errorf("preset: extension name %q longer than %d bytes", id.Name, extensionNameLen)
		}
		index := id.Index
		if index < effects.ExtensionBase {
			index = effects.ExtensionBase
		}
		field := make([]byte, extensionNameLen)
		copy(field, id.Name)
		return appendFramed(out, index, append(field, payload...)), nil
	}

	return appendFramed(out, id.Index, payload), nil
}

// appendListRecord writes a list as the sentinel index with a blend byte
// and the child records nested in its payload
func appendListRecord(out []byte, list *effects.List) ([]byte, error) {
	payload := []byte{byte(list.Blend())}
	for _, child := range list.Children() {
		var err error
		payload, err = appendRecord(payload, child)
		if err != nil {
			return nil, err
		}
	}
	return appendFramed(out, effects.ListIndex, payload), nil
}

// appendFramed writes the record header and payload
func appendFramed(out []byte, index int32, payload []byte) []byte {
	out = binary.LittleEndian.AppendUint32(out, uint32(index))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	return append(out, payload...)
}
