package remio

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want []string
	}{
		{
			name: "bare code",
			err:  NewError("", ErrCodeTransportFault, ""),
			want: []string{"remio:", "transport fault"},
		},
		{
			name: "op and message",
			err:  NewError("attach", ErrCodeResourceExhausted, "too many domains"),
			want: []string{"too many domains", "op=attach"},
		},
		{
			name: "domain scoped",
			err:  NewDomainError("pause", 3, ErrCodeProtocolViolation, "not active"),
			want: []string{"not active", "op=pause", "domain=3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("Error() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := NewDomainError("attach", 2, ErrCodeDomainBusy, "already attached")

	if !errors.Is(err, &Error{Code: ErrCodeDomainBusy}) {
		t.Error("errors.Is did not match same code")
	}
	if errors.Is(err, &Error{Code: ErrCodeTransportFault}) {
		t.Error("errors.Is matched different code")
	}
}

func TestIsCode(t *testing.T) {
	err := NewError("notify", ErrCodeProtocolViolation, "unknown domain")

	if !IsCode(err, ErrCodeProtocolViolation) {
		t.Error("IsCode did not match")
	}
	if IsCode(err, ErrCodeDomainBusy) {
		t.Error("IsCode matched wrong code")
	}
	if IsCode(errors.New("plain"), ErrCodeProtocolViolation) {
		t.Error("IsCode matched plain error")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if !IsCode(wrapped, ErrCodeProtocolViolation) {
		t.Error("IsCode did not match through wrapping")
	}
}

func TestWrapError(t *testing.T) {
	if WrapError("x", ErrCodeTransportFault, nil) != nil {
		t.Error("WrapError(nil) != nil")
	}

	inner := errors.New("hypercall timed out")
	err := WrapError("drain", ErrCodeTransportFault, inner)
	if !errors.Is(err, inner) {
		t.Error("wrapped error lost inner")
	}
	if err.Op != "drain" {
		t.Errorf("Op = %q, want drain", err.Op)
	}

	// Wrapping a structured error keeps its identity, updates the op.
	rewrapped := WrapError("destroy", ErrCodeShuttingDown, NewDomainError("pause", 5, ErrCodeProtocolViolation, "bad state"))
	if rewrapped.Op != "destroy" {
		t.Errorf("Op = %q, want destroy", rewrapped.Op)
	}
	if rewrapped.Code != ErrCodeProtocolViolation {
		t.Errorf("Code = %q, want protocol violation", rewrapped.Code)
	}
	if !rewrapped.HasDomain || rewrapped.Domain != 5 {
		t.Errorf("domain context lost: %+v", rewrapped)
	}
}
