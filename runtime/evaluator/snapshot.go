package evaluator

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/wfl-lang/wflcore/core/value"
)

// encodeLocalsSnapshot packs a popped frame's locals into a compact
// CBOR blob (spec's debug-report expansion): only each value's Display
// text survives, since the frame itself is gone by the time a report
// reads it back.
func encodeLocalsSnapshot(locals map[string]value.Value) []byte {
	if len(locals) == 0 {
		return nil
	}
	display := make(map[string]string, len(locals))
	for k, v := range locals {
		display[k] = v.Display()
	}
	blob, err := cbor.Marshal(display)
	if err != nil {
		return nil
	}
	return blob
}

// DecodeLocalsSnapshot is the debug reporter's entry point (spec §3.3):
// decodes a Frame's LocalsSnapshot back into name -> display-text pairs.
func DecodeLocalsSnapshot(blob []byte) (map[string]string, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	var out map[string]string
	if err := cbor.Unmarshal(blob, &out); err != nil {
		return nil, err
	}
	return out, nil
}
