package models

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{name: "pending", input: "pending", want: StatusPending},
		{name: "applied", input: "applied", want: StatusApplied},
		{name: "denied", input: "denied", want: StatusDenied},
		{name: "accepted", input: "accepted", want: StatusAccepted},
		{name: "no_response", input: "no_response", want: StatusNoResponse},
		{name: "unknown value", input: "rejected", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "wrong case", input: "Pending", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseStatus(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStatus(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	terminal := []Status{StatusDenied, StatusAccepted, StatusNoResponse}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%q.IsTerminal() = false, want true", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusApplied} {
		if s.IsTerminal() {
			t.Errorf("%q.IsTerminal() = true, want false", s)
		}
	}
}

func TestStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{name: "pending to applied", from: StatusPending, to: StatusApplied, want: true},
		{name: "pending to denied", from: StatusPending, to: StatusDenied, want: true},
		{name: "pending to accepted", from: StatusPending, to: StatusAccepted, want: true},
		{name: "pending to no_response", from: StatusPending, to: StatusNoResponse, want: true},
		{name: "applied to denied", from: StatusApplied, to: StatusDenied, want: true},
		{name: "applied to accepted", from: StatusApplied, to: StatusAccepted, want: true},
		{name: "applied to no_response", from: StatusApplied, to: StatusNoResponse, want: true},
		{name: "applied back to pending", from: StatusApplied, to: StatusPending, want: false},
		{name: "pending to pending", from: StatusPending, to: StatusPending, want: false},
		{name: "denied is frozen", from: StatusDenied, to: StatusApplied, want: false},
		{name: "accepted is frozen", from: StatusAccepted, to: StatusDenied, want: false},
		{name: "no_response is frozen", from: StatusNoResponse, to: StatusApplied, want: false},
		{name: "denied to denied", from: StatusDenied, to: StatusDenied, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%q.CanTransitionTo(%q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestStatusRank(t *testing.T) {
	// Pending work sorts ahead of submitted, which sorts ahead of closed.
	order := []Status{StatusPending, StatusApplied, StatusDenied, StatusAccepted, StatusNoResponse}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("Rank ordering broken: %q (%d) should sort before %q (%d)",
				order[i-1], order[i-1].Rank(), order[i], order[i].Rank())
		}
	}
}
