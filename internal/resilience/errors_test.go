package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

func TestIsTransient_TransportError(t *testing.T) {
	err := NewTransportError("rcsb: fetch entries", errors.New("dial tcp: refused"))
	if !IsTransient(err) {
		t.Error("expected TransportError to be transient")
	}
}

func TestIsTransient_WrappedTransportError(t *testing.T) {
	inner := NewTransportError("uniprot: get entry", errors.New("eof"))
	wrapped := fmt.Errorf("chunk 3: %w", inner)
	if !IsTransient(wrapped) {
		t.Error("expected wrapped TransportError to be transient")
	}
}

func TestIsTransient_RemoteErrorByStatus(t *testing.T) {
	if !IsTransient(NewRemoteError("rcsb", 503, "busy")) {
		t.Error("503 should be transient")
	}
	if IsTransient(NewRemoteError("rcsb", 400, "bad query")) {
		t.Error("400 should not be transient")
	}
	if IsTransient(NewRemoteError("rcsb", 200, "Field 'x' is undefined")) {
		t.Error("error payload should not be transient")
	}
}

func TestIsTransient_DataShapeError(t *testing.T) {
	if IsTransient(NewDataShapeError("rcsb", "missing data.entries")) {
		t.Error("data shape errors should not be transient")
	}
}

func TestIsTransient_NilError(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error should not be transient")
	}
}

func TestIsTransient_RegularError(t *testing.T) {
	err := errors.New("invalid input: missing field")
	if IsTransient(err) {
		t.Error("regular error should not be transient")
	}
}

func TestIsTransient_ConnectionReset(t *testing.T) {
	err := fmt.Errorf("write tcp: %w", syscall.ECONNRESET)
	if !IsTransient(err) {
		t.Error("ECONNRESET should be transient")
	}
}

func TestIsTransient_NetworkTimeout(t *testing.T) {
	err := &net.DNSError{IsTimeout: true, Err: "timeout"}
	if !IsTransient(err) {
		t.Error("network timeout should be transient")
	}
}

func TestIsTransient_StringPatterns(t *testing.T) {
	patterns := []string{
		"connection reset by peer",
		"broken pipe",
		"TLS handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	}
	for _, p := range patterns {
		if !IsTransient(errors.New(p)) {
			t.Errorf("expected %q to be transient", p)
		}
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("expected HTTP %d to be transient", code)
		}
	}
	for _, code := range []int{200, 201, 400, 401, 403, 404, 405, 409, 422} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("expected HTTP %d to NOT be transient", code)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NewTransportError("op", errors.New("x")), KindTransport},
		{fmt.Errorf("wrapped: %w", NewRemoteError("op", 500, "")), KindRemote},
		{NewDataShapeError("op", "no entries"), KindDataShape},
		{errors.New("plain"), KindUnknown},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	inner := errors.New("root cause")
	te := NewTransportError("rcsb: fetch entries", inner)

	if !errors.Is(te, inner) {
		t.Error("TransportError.Unwrap should return the inner error")
	}
	if te.Error() != "rcsb: fetch entries: transport: root cause" {
		t.Errorf("unexpected message %q", te.Error())
	}
}

func TestRemoteError_Message(t *testing.T) {
	if got := NewRemoteError("rcsb", 502, "").Error(); got != "rcsb: remote: status 502" {
		t.Errorf("unexpected message %q", got)
	}
	if got := NewRemoteError("rcsb", 200, "bad id").Error(); got != "rcsb: remote: status 200: bad id" {
		t.Errorf("unexpected message %q", got)
	}
}
