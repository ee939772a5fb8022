package errors

import (
	"errors"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrCancelled", ErrCancelled},
		{"ErrSourceNotFound", ErrSourceNotFound},
		{"ErrDestNotDir", ErrDestNotDir},
		{"ErrDestMissing", ErrDestMissing},
		{"ErrEmptyPath", ErrEmptyPath},
		{"ErrNonUTF8Path", ErrNonUTF8Path},
		{"ErrUnsupportedKind", ErrUnsupportedKind},
		{"ErrPipelineBuild", ErrPipelineBuild},
		{"ErrPipelineIO", ErrPipelineIO},
		{"ErrKeyTooShort", ErrKeyTooShort},
		{"ErrKeyDerivation", ErrKeyDerivation},
		{"ErrEnumeration", ErrEnumeration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Error("sentinel error should not be nil")
			}
			if tt.err.Error() == "" {
				t.Error("sentinel error should have a message")
			}
		})
	}
}

func TestFileError(t *testing.T) {
	baseErr := errors.New("permission denied")
	fileErr := NewFileError("open", "/path/to/file", baseErr)

	if fileErr.Error() != "open /path/to/file: permission denied" {
		t.Errorf("unexpected error message: %s", fileErr.Error())
	}
	if fileErr.Unwrap() != baseErr {
		t.Error("Unwrap should return underlying error")
	}

	fileErrNil := NewFileError("stat", "/some/path", nil)
	if fileErrNil.Error() != "stat /some/path failed" {
		t.Errorf("unexpected error message for nil: %s", fileErrNil.Error())
	}
}

func TestEnumerationError(t *testing.T) {
	baseErr := errors.New("permission denied")
	enumErr := NewEnumerationError("/root", baseErr)

	if enumErr.Error() != "enumeration /root: permission denied" {
		t.Errorf("unexpected error message: %s", enumErr.Error())
	}
	if enumErr.Unwrap() != baseErr {
		t.Error("Unwrap should return underlying error")
	}
}

func TestValidationError(t *testing.T) {
	validErr := NewValidationError("destination", "must already exist")

	expected := "validation: destination: must already exist"
	if validErr.Error() != expected {
		t.Errorf("unexpected error message: %s", validErr.Error())
	}
}

func TestIs(t *testing.T) {
	if !Is(ErrCancelled, ErrCancelled) {
		t.Error("Is should return true for same error")
	}
	if Is(ErrCancelled, ErrDestMissing) {
		t.Error("Is should return false for different errors")
	}
}

func TestAs(t *testing.T) {
	fileErr := NewFileError("read", "/tmp/x", errors.New("boom"))

	var target *FileError
	if !As(fileErr, &target) {
		t.Error("As should find FileError")
	}
	if target.Op != "read" {
		t.Errorf("unexpected Op: %s", target.Op)
	}
}

func TestWrap(t *testing.T) {
	baseErr := errors.New("base")
	wrapped := Wrap(baseErr, "context")

	if wrapped.Error() != "context: base" {
		t.Errorf("unexpected wrapped message: %s", wrapped.Error())
	}
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestConvenienceFunctions(t *testing.T) {
	if !IsCancelled(ErrCancelled) {
		t.Error("IsCancelled should return true for ErrCancelled")
	}
	if IsCancelled(ErrDestMissing) {
		t.Error("IsCancelled should return false for other errors")
	}
}
