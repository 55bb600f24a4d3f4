package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/nas/internal/tensor"
)

// MergeStateDict copies src into dst with every key prefixed by prefix + ".".
func MergeStateDict(dst map[string]*tensor.RawTensor, prefix string, src map[string]*tensor.RawTensor) {
	for name, raw := range src {
		dst[prefix+"."+name] = raw
	}
}

// SubStateDict returns the entries of stateDict under prefix + ".", with
// the prefix removed.
func SubStateDict(stateDict map[string]*tensor.RawTensor, prefix string) map[string]*tensor.RawTensor {
	sub := make(map[string]*tensor.RawTensor)
	p := prefix + "."
	for key, raw := range stateDict {
		if name, ok := strings.CutPrefix(key, p); ok {
			sub[name] = raw
		}
	}
	return sub
}

// loadEntry copies stateDict[key] into dst.
func loadEntry(stateDict map[string]*tensor.RawTensor, key string, dst *tensor.RawTensor) error {
	raw, ok := stateDict[key]
	if !ok {
		return fmt.Errorf("missing %s in state dict", key)
	}
	if err := dst.CopyFrom(raw); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// loadChildren loads each named child from its prefixed slice of stateDict.
func loadChildren[B tensor.Backend](stateDict map[string]*tensor.RawTensor, children map[string]Module[B]) error {
	for prefix, child := range children {
		if err := child.LoadStateDict(SubStateDict(stateDict, prefix)); err != nil {
			return fmt.Errorf("failed to load %s: %w", prefix, err)
		}
	}
	return nil
}
