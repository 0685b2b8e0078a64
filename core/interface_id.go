package core

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

var (
	// InterfaceIDERC165 is supportsInterface(bytes4).
	InterfaceIDERC165 = InterfaceID{0x01, 0xff, 0xc9, 0xa7}
	// InterfaceIDInvalid must be reported as unsupported by every compliant
	// ERC165 implementation.
	InterfaceIDInvalid = InterfaceID{0xff, 0xff, 0xff, 0xff}
)

// CapabilityInterface declares a capability by its canonical function
// signatures, e.g. "getUnderlying(address)".
type CapabilityInterface struct {
	Name       string
	Signatures []string
}

// TransformerCapability is the ITransformer operation set.
var TransformerCapability = CapabilityInterface{
	Name: "ITransformer",
	Signatures: []string{
		"getUnderlying(address)",
		"calculateTransformToUnderlying(address,uint256)",
		"calculateTransformToDependent(address,(address,uint256)[])",
		"calculateNeededToTransformToUnderlying(address,(address,uint256)[])",
		"calculateNeededToTransformToDependent(address,uint256)",
		"transformToUnderlying(address,uint256,address,(address,uint256)[],uint256)",
		"transformToDependent(address,(address,uint256)[],address,uint256,uint256)",
		"transformToExpectedUnderlying(address,(address,uint256)[],address,uint256,uint256)",
		"transformToExpectedDependent(address,uint256,address,(address,uint256)[],uint256)",
	},
}

func (c CapabilityInterface) Validate() error {
	if len(c.Signatures) == 0 {
		return fmt.Errorf("core: capability %q declares no signatures", c.Name)
	}
	for _, signature := range c.Signatures {
		if !isCanonicalSignature(canonicalSignature(signature)) {
			return fmt.Errorf("core: capability %q has malformed signature %q", c.Name, signature)
		}
	}
	return nil
}

func (c CapabilityInterface) InterfaceID() InterfaceID {
	return ComputeInterfaceID(c.Signatures...)
}

// Selector returns the first four bytes of keccak256(signature).
func Selector(signature string) InterfaceID {
	hasher := sha3.NewLegacyKeccak256()
	_, _ = hasher.Write([]byte(canonicalSignature(signature)))
	sum := hasher.Sum(nil)
	var out InterfaceID
	copy(out[:], sum[:InterfaceIDLength])
	return out
}

// ComputeInterfaceID XORs the selectors of every signature.
func ComputeInterfaceID(signatures ...string) InterfaceID {
	var out InterfaceID
	for _, signature := range signatures {
		selector := Selector(signature)
		for i := range out {
			out[i] ^= selector[i]
		}
	}
	return out
}

func canonicalSignature(signature string) string {
	return strings.Join(strings.Fields(signature), "")
}

func isCanonicalSignature(signature string) bool {
	open := strings.IndexByte(signature, '(')
	return open > 0 && strings.HasSuffix(signature, ")")
}
