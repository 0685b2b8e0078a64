package core

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	AddressLength     = 20
	InterfaceIDLength = 4
)

var (
	ErrInvalidAddress     = errors.New("core: invalid address")
	ErrInvalidInterfaceID = errors.New("core: invalid interface id")
)

// Address identifies a dependent or a transformer provider. The zero value is
// the reserved "unregistered" marker.
type Address [AddressLength]byte

var ZeroAddress Address

func ParseAddress(value string) (Address, error) {
	raw, err := decodeHexFixed(value, AddressLength)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, value, err)
	}
	var out Address
	copy(out[:], raw)
	return out, nil
}

func MustParseAddress(value string) Address {
	address, err := ParseAddress(value)
	if err != nil {
		panic(err)
	}
	return address
}

// BytesToAddress right-aligns b into an address, keeping the trailing bytes
// when b is longer than an address.
func BytesToAddress(b []byte) Address {
	var out Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(out[AddressLength-len(b):], b)
	return out
}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string {
	return a.Hex()
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// InterfaceID is an ERC165 interface identifier.
type InterfaceID [InterfaceIDLength]byte

func ParseInterfaceID(value string) (InterfaceID, error) {
	raw, err := decodeHexFixed(value, InterfaceIDLength)
	if err != nil {
		return InterfaceID{}, fmt.Errorf("%w: %q: %v", ErrInvalidInterfaceID, value, err)
	}
	var out InterfaceID
	copy(out[:], raw)
	return out, nil
}

func (id InterfaceID) Hex() string {
	return "0x" + hex.EncodeToString(id[:])
}

func (id InterfaceID) String() string {
	return id.Hex()
}

func (id InterfaceID) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

func (id *InterfaceID) UnmarshalText(text []byte) error {
	parsed, err := ParseInterfaceID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Registration binds a transformer provider to the dependents it services.
type Registration struct {
	Provider   Address   `json:"transformer"`
	Dependents []Address `json:"dependents"`
}

func (r Registration) Clone() Registration {
	return Registration{
		Provider:   r.Provider,
		Dependents: cloneAddresses(r.Dependents),
	}
}

// MappingWrite is a single dependent -> provider assignment. A zero provider
// clears the dependent.
type MappingWrite struct {
	Dependent Address
	Provider  Address
}

func ParseAddresses(values []string) ([]Address, error) {
	out := make([]Address, 0, len(values))
	for _, value := range values {
		address, err := ParseAddress(value)
		if err != nil {
			return nil, err
		}
		out = append(out, address)
	}
	return out, nil
}

func AddressStrings(addresses []Address) []string {
	out := make([]string, 0, len(addresses))
	for _, address := range addresses {
		out = append(out, address.Hex())
	}
	return out
}

func cloneAddresses(in []Address) []Address {
	if in == nil {
		return nil
	}
	out := make([]Address, len(in))
	copy(out, in)
	return out
}

func cloneRegistrations(in []Registration) []Registration {
	if in == nil {
		return nil
	}
	out := make([]Registration, 0, len(in))
	for _, registration := range in {
		out = append(out, registration.Clone())
	}
	return out
}

func decodeHexFixed(value string, size int) ([]byte, error) {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		trimmed = trimmed[2:]
	}
	if len(trimmed) != size*2 {
		return nil, fmt.Errorf("expected %d hex digits, got %d", size*2, len(trimmed))
	}
	return hex.DecodeString(trimmed)
}
