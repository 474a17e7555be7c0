package action

import (
	"context"
	"errors"
	"testing"
)

// stubAction records what it was configured with.
type stubAction struct {
	typ       string
	params    map[string]any
	configErr error
}

func (a *stubAction) Type() string { return a.typ }
func (a *stubAction) Configure(params map[string]any) error {
	a.params = params
	return a.configErr
}
func (a *stubAction) Run(ctx context.Context, env *Env, sig *Signal) {
	sig.Complete(Outcome{Kind: KindOK})
}
func (a *stubAction) Cancel() {}

func TestRegistryRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("STUB", func() Action { return &stubAction{typ: "STUB"} }); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := reg.Register("STUB", func() Action { return &stubAction{typ: "STUB"} })
	if KindOf(err) != KindDuplicateType {
		t.Fatalf("got %v, want DuplicateType", err)
	}
}

func TestRegistryResolveUnknown(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Resolve("NOPE", nil)
	if KindOf(err) != KindUnknownActionType {
		t.Fatalf("got %v, want UnknownActionType", err)
	}
}

func TestRegistryResolveConfigures(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("STUB", func() Action { return &stubAction{typ: "STUB"} })

	params := map[string]any{"k": "v"}
	a, err := reg.Resolve("STUB", params)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	stub := a.(*stubAction)
	if stub.params["k"] != "v" {
		t.Fatalf("Configure was not called with params: %v", stub.params)
	}
}

func TestRegistryResolvePropagatesInvalidParameter(t *testing.T) {
	reg := NewRegistry()
	bad := Errorf(KindInvalidParameter, "missing thing")
	reg.MustRegister("BAD", func() Action { return &stubAction{typ: "BAD", configErr: bad} })

	_, err := reg.Resolve("BAD", nil)
	if KindOf(err) != KindInvalidParameter {
		t.Fatalf("got %v, want InvalidParameter", err)
	}
}

func TestRegistryResolveReturnsFreshInstances(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("STUB", func() Action { return &stubAction{typ: "STUB"} })

	a1, _ := reg.Resolve("STUB", nil)
	a2, _ := reg.Resolve("STUB", nil)
	if a1 == a2 {
		t.Fatal("Resolve must build a new instance per step")
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(nil) != KindOK {
		t.Fatal("nil should classify as OK")
	}
	if KindOf(errors.New("plain")) != KindFailed {
		t.Fatal("unclassified errors should report KindFailed")
	}
	wrapped := Wrap(KindTimeout, errors.New("inner"), "outer")
	if KindOf(wrapped) != KindTimeout {
		t.Fatal("wrapped kind lost")
	}
}

func TestRegistryTypesSorted(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("B", func() Action { return &stubAction{typ: "B"} })
	reg.MustRegister("A", func() Action { return &stubAction{typ: "A"} })
	types := reg.Types()
	if len(types) != 2 || types[0] != "A" || types[1] != "B" {
		t.Fatalf("Types() = %v", types)
	}
}
