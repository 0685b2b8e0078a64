package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

var testCapability = TransformerCapability.InterfaceID()

func newTestProber(t *testing.T, contract CapabilityContract) (*InterfaceProber, Address) {
	t.Helper()
	directory := NewProviderDirectory()
	address := testAddress(1)
	if err := directory.Deploy(address, contract); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	return NewInterfaceProber(directory, testCapability, 100*time.Millisecond), address
}

func assertProbeCalls(t *testing.T, got []InterfaceID, want ...InterfaceID) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d probes, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("probe %d: expected %s, got %s", i, want[i].Hex(), got[i].Hex())
		}
	}
}

func TestInterfaceProber_CompliantCandidate(t *testing.T) {
	contract := newCompliantContract(testCapability)
	prober, address := newTestProber(t, contract)

	report, err := prober.Probe(context.Background(), address)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !report.Valid || report.Step != ProbeStepValid {
		t.Fatalf("expected valid report, got %+v", report)
	}
	assertProbeCalls(t, contract.snapshot(), InterfaceIDERC165, InterfaceIDInvalid, testCapability)
}

func TestInterfaceProber_ShortCircuitsOnFirstFailure(t *testing.T) {
	tests := []struct {
		name    string
		answers map[InterfaceID]bool
		step    ProbeStep
		calls   []InterfaceID
	}{
		{
			name:    "no erc165",
			answers: map[InterfaceID]bool{testCapability: true},
			step:    ProbeStepERC165,
			calls:   []InterfaceID{InterfaceIDERC165},
		},
		{
			name:    "claims everything",
			answers: map[InterfaceID]bool{InterfaceIDERC165: true, InterfaceIDInvalid: true, testCapability: true},
			step:    ProbeStepInvalidID,
			calls:   []InterfaceID{InterfaceIDERC165, InterfaceIDInvalid},
		},
		{
			name:    "missing capability",
			answers: map[InterfaceID]bool{InterfaceIDERC165: true},
			step:    ProbeStepCapability,
			calls:   []InterfaceID{InterfaceIDERC165, InterfaceIDInvalid, testCapability},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			contract := &scriptedContract{answers: tc.answers}
			prober, address := newTestProber(t, contract)

			report, err := prober.Probe(context.Background(), address)
			if !errors.Is(err, ErrAddressIsNotProvider) {
				t.Fatalf("expected ErrAddressIsNotProvider, got %v", err)
			}
			var probeErr *ProbeError
			if !errors.As(err, &probeErr) || probeErr.Step != tc.step {
				t.Fatalf("expected probe error at %s, got %v", tc.step, err)
			}
			if report.Valid || report.Step != tc.step {
				t.Fatalf("unexpected report %+v", report)
			}
			assertProbeCalls(t, contract.snapshot(), tc.calls...)
		})
	}
}

func TestInterfaceProber_FoldsFaultsIntoNotProvider(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		contract := newCompliantContract(testCapability)
		contract.failures = map[InterfaceID]error{InterfaceIDInvalid: errors.New("execution reverted")}
		prober, address := newTestProber(t, contract)

		_, err := prober.Probe(context.Background(), address)
		if !errors.Is(err, ErrAddressIsNotProvider) || !errors.Is(err, ErrProbeFault) {
			t.Fatalf("expected folded probe fault, got %v", err)
		}
	})

	t.Run("panic", func(t *testing.T) {
		contract := newCompliantContract(testCapability)
		contract.panics = map[InterfaceID]bool{InterfaceIDERC165: true}
		prober, address := newTestProber(t, contract)

		_, err := prober.Probe(context.Background(), address)
		if !errors.Is(err, ErrAddressIsNotProvider) || !errors.Is(err, ErrProbeFault) {
			t.Fatalf("expected folded probe fault, got %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		contract := newCompliantContract(testCapability)
		contract.blocks = map[InterfaceID]bool{testCapability: true}
		prober, address := newTestProber(t, contract)

		startedAt := time.Now()
		_, err := prober.Probe(context.Background(), address)
		if !errors.Is(err, ErrAddressIsNotProvider) || !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected timeout folded into not-provider, got %v", err)
		}
		if elapsed := time.Since(startedAt); elapsed > 2*time.Second {
			t.Fatalf("expected probe to give up near its timeout, took %s", elapsed)
		}
	})
}

func TestInterfaceProber_RejectsZeroAndUnknownAddresses(t *testing.T) {
	prober := NewInterfaceProber(NewProviderDirectory(), testCapability, time.Second)

	report, err := prober.Probe(context.Background(), ZeroAddress)
	if !errors.Is(err, ErrAddressIsNotProvider) || report.Step != ProbeStepResolve {
		t.Fatalf("expected zero address rejection at resolve, got %v (%+v)", err, report)
	}

	_, err = prober.Probe(context.Background(), testAddress(7))
	if !errors.Is(err, ErrAddressIsNotProvider) || !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("expected unknown address rejection, got %v", err)
	}
}
