package nn

import (
	"fmt"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// StateDict flattens a module tree into name -> tensor. Names are
// hierarchical: child indices joined with dots, ending in the parameter
// or buffer label, e.g. "0.weight" or "2.rmean". The returned tensors
// alias the module's storage.
func StateDict[B tensor.Backend](m Module[B]) map[string]*tensor.RawTensor {
	dict := make(map[string]*tensor.RawTensor)
	collectState("", m, dict)
	return dict
}

func collectState[B tensor.Backend](prefix string, m Module[B], dict map[string]*tensor.RawTensor) {
	for _, p := range m.OwnParameters() {
		dict[prefix+p.Label()] = p.Tensor().Raw()
	}
	for _, b := range m.OwnBuffers() {
		dict[prefix+b.Label()] = b.Tensor().Raw()
	}
	for i, child := range m.Children() {
		collectState(fmt.Sprintf("%s%d.", prefix, i), child, dict)
	}
}

// LoadStateDict copies dict values into the module tree. The module must
// have the same architecture the dictionary was produced from: every
// entry must find a slot of matching shape, and no slot may be left
// unfilled.
func LoadStateDict[B tensor.Backend](m Module[B], dict map[string]*tensor.RawTensor) error {
	seen := make(map[string]bool, len(dict))
	if err := applyState("", m, dict, seen); err != nil {
		return err
	}
	for name := range dict {
		if !seen[name] {
			return fmt.Errorf("state entry %q has no matching slot in module %s", name, m.Label())
		}
	}
	return nil
}

func applyState[B tensor.Backend](prefix string, m Module[B], dict map[string]*tensor.RawTensor, seen map[string]bool) error {
	copyInto := func(name string, dst *tensor.RawTensor) error {
		src, ok := dict[name]
		if !ok {
			return fmt.Errorf("state entry %q missing", name)
		}
		seen[name] = true
		if err := dst.CopyFrom(src); err != nil {
			return fmt.Errorf("state entry %q: %w", name, err)
		}
		return nil
	}

	for _, p := range m.OwnParameters() {
		if err := copyInto(prefix+p.Label(), p.Tensor().Raw()); err != nil {
			return err
		}
	}
	for _, b := range m.OwnBuffers() {
		if err := copyInto(prefix+b.Label(), b.Tensor().Raw()); err != nil {
			return err
		}
	}
	for i, child := range m.Children() {
		if err := applyState(fmt.Sprintf("%s%d.", prefix, i), child, dict, seen); err != nil {
			return err
		}
	}
	return nil
}
