package gate_test

import (
	"context"
	"testing"

	"github.com/tooldesk/quoteflow/internal/gate"
)

type staticPolicy struct{ allow bool }

func (p *staticPolicy) Can(_ context.Context, _ uint, _ gate.Action, _ any) bool {
	return p.allow
}

func TestAuthorizeZeroSubject(t *testing.T) {
	g := gate.NewGate[uint]()
	g.Register("quotation", &staticPolicy{allow: true})
	if err := g.Authorize(context.Background(), 0, gate.ActionView, "quotation", nil); err != gate.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthorizeNoPolicy(t *testing.T) {
	g := gate.NewGate[uint]()
	if err := g.Authorize(context.Background(), 1, gate.ActionView, "machine", nil); err != gate.ErrNoPolicyDefined {
		t.Fatalf("expected ErrNoPolicyDefined, got %v", err)
	}
}

func TestAuthorizeAllowDeny(t *testing.T) {
	g := gate.NewGate[uint]()
	g.Register("allowed", &staticPolicy{allow: true})
	g.Register("denied", &staticPolicy{allow: false})
	if err := g.Authorize(context.Background(), 1, gate.ActionUpdate, "allowed", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := g.Authorize(context.Background(), 1, gate.ActionUpdate, "denied", nil); err != gate.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if !g.Can(context.Background(), 1, gate.ActionUpdate, "allowed", nil) {
		t.Fatal("Can should be true for allowed")
	}
	if g.Can(context.Background(), 1, gate.ActionUpdate, "denied", nil) {
		t.Fatal("Can should be false for denied")
	}
}

func TestPolicyFunc(t *testing.T) {
	g := gate.NewGate[uint]()
	g.Register("quotation", gate.PolicyFunc[uint](func(_ context.Context, subject uint, action gate.Action, _ any) bool {
		return subject == 7 && action == gate.ActionView
	}))
	if !g.Can(context.Background(), 7, gate.ActionView, "quotation", nil) {
		t.Fatal("subject 7 should view")
	}
	if g.Can(context.Background(), 7, gate.ActionDelete, "quotation", nil) {
		t.Fatal("subject 7 should not delete")
	}
	if g.Can(context.Background(), 8, gate.ActionView, "quotation", nil) {
		t.Fatal("subject 8 should not view")
	}
}

func TestPermissionMatches(t *testing.T) {
	cases := []struct {
		have, want string
		match      bool
	}{
		{"quotation:submit", "quotation:submit", true},
		{"quotation:submit", "quotation:reject", false},
		{"quotation:*", "quotation:issue", true},
		{"quotation:*", "machine:update", false},
		{"*:*", "anything:at_all", true},
		{"broken", "quotation:view", false},
	}
	for _, c := range cases {
		if got := gate.Permission(c.have).Matches(gate.Permission(c.want)); got != c.match {
			t.Fatalf("%s matches %s = %v want %v", c.have, c.want, got, c.match)
		}
	}
}

func TestAnyMatches(t *testing.T) {
	perms := []gate.Permission{"quotation:submit", "quotation:revert_to_draft"}
	if !gate.AnyMatches(perms, gate.NewPermission("quotation", "submit")) {
		t.Fatal("expected submit to match")
	}
	if gate.AnyMatches(perms, gate.NewPermission("quotation", "issue")) {
		t.Fatal("issue should not match")
	}
}
