//go:build !integration

package extract

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"schedule-ai-ingestion/internal/domain"
)

// stubRunner records the command it was asked to run.
type stubRunner struct {
	gotStdin []byte
	gotName  string
	gotArgs  []string

	stdout []byte
	stderr []byte
	err    error
}

func (r *stubRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	r.gotStdin = stdin
	r.gotName = name
	r.gotArgs = args
	return r.stdout, r.stderr, r.err
}

func TestImageOCRStrategy(t *testing.T) {
	ctx := context.Background()

	t.Run("should report the image family", func(t *testing.T) {
		s := NewImageOCRStrategy(&stubRunner{}, "", "", newTestLogger())
		if s.Family() != domain.FamilyImage {
			t.Errorf("expected family %s, got %s", domain.FamilyImage, s.Family())
		}
	})

	t.Run("should pipe the image through tesseract stdin to stdout", func(t *testing.T) {
		// --- Arrange ---
		runner := &stubRunner{
			stdout: []byte("Final exam 2026-12-18\nHall B\n"),
			stderr: []byte("Estimating resolution as 300"),
		}
		s := NewImageOCRStrategy(runner, "", "deu", newTestLogger())
		img := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

		// --- Act ---
		got, err := s.Extract(ctx, img)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if got != "Final exam 2026-12-18\nHall B\n" {
			t.Errorf("unexpected text %q", got)
		}
		if runner.gotName != "tesseract" {
			t.Errorf("expected the default binary, got %q", runner.gotName)
		}
		wantArgs := []string{"-", "-", "-l", "deu"}
		if len(runner.gotArgs) != len(wantArgs) {
			t.Fatalf("expected args %v, got %v", wantArgs, runner.gotArgs)
		}
		for i, a := range wantArgs {
			if runner.gotArgs[i] != a {
				t.Errorf("arg %d: expected %q, got %q", i, a, runner.gotArgs[i])
			}
		}
		if !bytes.Equal(runner.gotStdin, img) {
			t.Error("expected the raw image bytes on stdin")
		}
	})

	t.Run("should honor a custom binary path and default language", func(t *testing.T) {
		runner := &stubRunner{stdout: []byte("ok")}
		s := NewImageOCRStrategy(runner, "/opt/tesseract/bin/tesseract", "", newTestLogger())

		if _, err := s.Extract(ctx, []byte("img")); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if runner.gotName != "/opt/tesseract/bin/tesseract" {
			t.Errorf("expected the configured binary, got %q", runner.gotName)
		}
		if len(runner.gotArgs) != 4 || runner.gotArgs[3] != "eng" {
			t.Errorf("expected the eng default language, got %v", runner.gotArgs)
		}
	})

	t.Run("should wrap a failed run as an extraction error", func(t *testing.T) {
		runner := &stubRunner{
			stderr: []byte("Error in pixReadStream: Unknown format"),
			err:    errors.New("exit status 1"),
		}
		s := NewImageOCRStrategy(runner, "", "", newTestLogger())

		_, err := s.Extract(ctx, []byte("not an image"))

		var ee *domain.ExtractionError
		if !errors.As(err, &ee) {
			t.Fatalf("expected an ExtractionError, got %v", err)
		}
		if ee.Family != domain.FamilyImage {
			t.Errorf("expected the image family on the error, got %s", ee.Family)
		}
		if !strings.Contains(err.Error(), "tesseract") {
			t.Errorf("expected the tool named in the error, got %q", err.Error())
		}
	})
}
