package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsCodeSeesThroughWrapping(t *testing.T) {
	base := NotFound("GetCourse", "course %s not found", "c1")
	wrapped := fmt.Errorf("load: %w", base)

	if !IsCode(wrapped, CodeNotFound) {
		t.Fatalf("wrapped error should keep its code")
	}
	if IsCode(wrapped, CodePersistence) {
		t.Fatalf("unexpected code match")
	}
	if IsCode(errors.New("plain"), CodeNotFound) {
		t.Fatalf("uncoded error should not match")
	}
	if got := Wrap(CodePersistence, "Save", wrapped); !IsCode(got, CodeNotFound) {
		t.Fatalf("Wrap must keep an existing code, got %s", CodeOf(got))
	}
}
