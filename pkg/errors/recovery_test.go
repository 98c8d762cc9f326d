package errors

import (
	"strings"
	"testing"
)

func TestSafeExecuteRecoversPanic(t *testing.T) {
	err := SafeExecute("fit", func() error {
		panic("matrix is singular")
	})
	if err == nil {
		t.Fatal("expected an error from a panicking function")
	}
	if !strings.Contains(err.Error(), "fit") {
		t.Errorf("error %q does not name the operation", err.Error())
	}
	if !strings.Contains(err.Error(), "matrix is singular") {
		t.Errorf("error %q does not carry the panic value", err.Error())
	}

	var pe *PanicError
	if !As(err, &pe) {
		t.Fatal("expected a PanicError")
	}
	if pe.StackTrace == "" {
		t.Error("expected a captured stack trace")
	}
}

func TestSafeExecutePassesThroughError(t *testing.T) {
	want := New("plain failure")
	err := SafeExecute("fit", func() error { return want })
	if !Is(err, want) {
		t.Errorf("got %v, want the original error", err)
	}
}

func TestSafeExecuteNilOnSuccess(t *testing.T) {
	if err := SafeExecute("fit", func() error { return nil }); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRecoverKeepsExistingError(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err, "stage")
		err = New("first failure")
		panic("then a panic")
	}
	err := run()
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "first failure") {
		t.Errorf("error %q lost the original error", err.Error())
	}
}
