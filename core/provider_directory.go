package core

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
)

// ProviderDirectory is an in-process ProviderResolver: contracts are deployed
// into it by address and resolved for probing.
type ProviderDirectory struct {
	mu        sync.RWMutex
	contracts map[Address]CapabilityContract
}

func NewProviderDirectory() *ProviderDirectory {
	return &ProviderDirectory{contracts: make(map[Address]CapabilityContract)}
}

func (d *ProviderDirectory) Deploy(address Address, contract CapabilityContract) error {
	if contract == nil {
		return fmt.Errorf("core: contract is nil")
	}
	if address.IsZero() {
		return fmt.Errorf("core: contract address is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.contracts[address]; exists {
		return fmt.Errorf("core: contract already deployed at %s", address.Hex())
	}
	d.contracts[address] = contract
	return nil
}

func (d *ProviderDirectory) Get(address Address) (CapabilityContract, bool) {
	if address.IsZero() {
		return nil, false
	}
	d.mu.RLock()
	contract, ok := d.contracts[address]
	d.mu.RUnlock()
	return contract, ok
}

func (d *ProviderDirectory) Resolve(_ context.Context, address Address) (CapabilityContract, error) {
	contract, ok := d.Get(address)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, address.Hex())
	}
	return contract, nil
}

// List returns deployed addresses in ascending byte order.
func (d *ProviderDirectory) List() []Address {
	d.mu.RLock()
	addresses := make([]Address, 0, len(d.contracts))
	for address := range d.contracts {
		addresses = append(addresses, address)
	}
	d.mu.RUnlock()
	sort.Slice(addresses, func(i, j int) bool {
		return bytes.Compare(addresses[i][:], addresses[j][:]) < 0
	})
	return addresses
}

// StaticAuthority is a fixed governor identity.
type StaticAuthority struct {
	Address Address
}

func (a StaticAuthority) CurrentAuthority(context.Context) (Address, error) {
	return a.Address, nil
}

type AuthorityFunc func(ctx context.Context) (Address, error)

func (f AuthorityFunc) CurrentAuthority(ctx context.Context) (Address, error) {
	return f(ctx)
}
