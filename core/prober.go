package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const DefaultProbeTimeout = 2 * time.Second

type ProbeStep string

const (
	ProbeStepResolve    ProbeStep = "resolve"
	ProbeStepERC165     ProbeStep = "erc165"
	ProbeStepInvalidID  ProbeStep = "invalid_interface"
	ProbeStepCapability ProbeStep = "capability"
	ProbeStepValid      ProbeStep = "valid"
)

// ProbeReport describes how far a candidate got through the introspection
// sequence.
type ProbeReport struct {
	Candidate Address
	Step      ProbeStep
	Calls     []InterfaceID
	Valid     bool
}

// ProbeError reports a candidate rejected at Step. It matches
// ErrAddressIsNotProvider.
type ProbeError struct {
	Candidate Address
	Step      ProbeStep
	Reason    string
	Cause     error
}

func (e *ProbeError) Error() string {
	msg := fmt.Sprintf("%s: %s rejected at %s: %s", ErrAddressIsNotProvider, e.Candidate.Hex(), e.Step, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ProbeError) Is(target error) bool {
	return target == ErrAddressIsNotProvider
}

func (e *ProbeError) Unwrap() error {
	return e.Cause
}

// InterfaceProber runs the ERC165 detection sequence against a candidate:
// erc165 support must be true, the invalid id must be false, and the
// capability id must be true. Probes run one at a time and stop at the first
// failure.
type InterfaceProber struct {
	resolver   ProviderResolver
	capability InterfaceID
	timeout    time.Duration
}

func NewInterfaceProber(resolver ProviderResolver, capability InterfaceID, timeout time.Duration) *InterfaceProber {
	if timeout < 0 {
		timeout = 0
	}
	return &InterfaceProber{
		resolver:   resolver,
		capability: capability,
		timeout:    timeout,
	}
}

func (p *InterfaceProber) Capability() InterfaceID {
	if p == nil {
		return InterfaceID{}
	}
	return p.capability
}

func (p *InterfaceProber) Probe(ctx context.Context, candidate Address) (ProbeReport, error) {
	report := ProbeReport{Candidate: candidate, Step: ProbeStepResolve}
	reject := func(reason string, cause error) (ProbeReport, error) {
		return report, &ProbeError{Candidate: candidate, Step: report.Step, Reason: reason, Cause: cause}
	}
	if p == nil || p.resolver == nil {
		return reject("no provider resolver configured", nil)
	}
	if candidate.IsZero() {
		return reject("zero address", nil)
	}
	contract, err := p.resolver.Resolve(ctx, candidate)
	if err != nil {
		return reject("contract not resolvable", err)
	}
	if contract == nil {
		return reject("contract not resolvable", ErrProviderNotFound)
	}

	report.Step = ProbeStepERC165
	report.Calls = append(report.Calls, InterfaceIDERC165)
	supported, err := p.supports(ctx, contract, InterfaceIDERC165)
	if err != nil {
		return reject("erc165 probe failed", err)
	}
	if !supported {
		return reject("erc165 not supported", nil)
	}

	report.Step = ProbeStepInvalidID
	report.Calls = append(report.Calls, InterfaceIDInvalid)
	supported, err = p.supports(ctx, contract, InterfaceIDInvalid)
	if err != nil {
		return reject("invalid interface probe failed", err)
	}
	if supported {
		return reject("claims support for "+InterfaceIDInvalid.Hex(), nil)
	}

	report.Step = ProbeStepCapability
	report.Calls = append(report.Calls, p.capability)
	supported, err = p.supports(ctx, contract, p.capability)
	if err != nil {
		return reject("capability probe failed", err)
	}
	if !supported {
		return reject("capability "+p.capability.Hex()+" not supported", nil)
	}

	report.Step = ProbeStepValid
	report.Valid = true
	return report, nil
}

type probeOutcome struct {
	supported bool
	err       error
}

// supports performs one guarded SupportsInterface call. Errors, panics, and
// timeouts all surface as ErrProbeFault.
func (p *InterfaceProber) supports(ctx context.Context, contract CapabilityContract, id InterfaceID) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if p.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
	}
	defer cancel()

	done := make(chan probeOutcome, 1)
	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				done <- probeOutcome{err: fmt.Errorf("%w: supportsInterface(%s) panicked: %v", ErrProbeFault, id.Hex(), recovered)}
			}
		}()
		supported, err := contract.SupportsInterface(callCtx, id)
		done <- probeOutcome{supported: supported, err: err}
	}()

	select {
	case outcome := <-done:
		if outcome.err != nil {
			if errors.Is(outcome.err, ErrProbeFault) {
				return false, outcome.err
			}
			return false, fmt.Errorf("%w: supportsInterface(%s): %w", ErrProbeFault, id.Hex(), outcome.err)
		}
		return outcome.supported, nil
	case <-callCtx.Done():
		return false, fmt.Errorf("%w: supportsInterface(%s): %w", ErrProbeFault, id.Hex(), callCtx.Err())
	}
}
