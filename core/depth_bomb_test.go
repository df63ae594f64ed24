package core

import (
	"errors"
	"testing"
)

const recursiveBlueprint = "Recursive"

// recursiveNative calls back into itself via the same NativeRegistry,
// simulating a blueprint method that recurses without bound (spec §8
// scenario S3, depth bomb).
func recursiveNative(reg *NativeRegistry) NativeFunction {
	var fn NativeFunction
	fn = func(k *Kernel, frame *CallFrame, args []byte) ([]byte, error) {
		actor := Actor{Blueprint: recursiveBlueprint, Function: "recurse"}
		return reg.Invoke(k, actor, NewCallFrameUpdate(), recursiveBlueprint, "recurse", nil)
	}
	return fn
}

// TestCallDepthExceededAborts is scenario S3: a blueprint whose method
// recursively calls itself aborts with a call-depth-exceeded error once the
// configured maximum is reached.
func TestCallDepthExceededAborts(t *testing.T) {
	limits := DefaultLimits
	limits.MaxCallDepth = 4

	reg := NewNativeRegistry()
	reg.Register(recursiveBlueprint, "recurse", recursiveNative(reg))

	k := NewKernel(NewMemStore(), Hash{}, limits, nil)
	actor := Actor{Blueprint: recursiveBlueprint, Function: "recurse"}
	_, err := reg.Invoke(k, actor, NewCallFrameUpdate(), recursiveBlueprint, "recurse", nil)
	if err == nil {
		t.Fatalf("expected call-depth-exceeded error")
	}
	var limitErr *TransactionLimitsError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected *TransactionLimitsError, got %T: %v", err, err)
	}
	if k.GetCurrentDepth() != 0 {
		t.Fatalf("expected kernel to have unwound back to the root frame, depth=%d", k.GetCurrentDepth())
	}
}
