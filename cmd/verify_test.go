package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/covercare/covercare-cli/config"
	"github.com/covercare/covercare-cli/device"
	"github.com/covercare/covercare-cli/internal/logging"
	"github.com/covercare/covercare-cli/internal/tui"
	"github.com/covercare/covercare-cli/verification"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func writeTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Submit: config.SubmitConfig{
			Mode:     config.SubmitSimulated,
			Timeout:  5 * time.Second,
			SpoolDir: t.TempDir(),
		},
		Device: config.DeviceConfig{CameraPermission: config.PermissionDenied},
	}
}

func testSession(t *testing.T, cfg config.Config) *session {
	t.Helper()
	return newSession(cfg, logging.Nop())
}

func fullAnswers(t *testing.T) answers {
	t.Helper()
	return answers{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Phone:    "+1 (555) 123-4567",
		IDType:   "passport",
		IDNumber: "X1234567",
		Document: writeTempFile(t, "id.png", pngHeader),
	}
}

func TestRunNonInteractiveSubmits(t *testing.T) {
	s := testSession(t, testConfig(t))

	receipt, err := runNonInteractive(context.Background(), s, fullAnswers(t))
	if err != nil {
		t.Fatalf("runNonInteractive: %v", err)
	}
	if receipt.Reference == "" {
		t.Error("expected a reference")
	}
	if !s.ctrl.Submitted() {
		t.Error("expected controller to be submitted")
	}
	form := s.ctrl.Form()
	if form.IDType != verification.IDTypePassport {
		t.Errorf("expected Passport, got %q", form.IDType)
	}
	if form.Document == nil || form.Document.Source != verification.SourceLibrary {
		t.Errorf("expected library document, got %+v", form.Document)
	}
}

func TestRunNonInteractiveSpoolMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Submit.Mode = config.SubmitSpool
	s := testSession(t, cfg)

	receipt, err := runNonInteractive(context.Background(), s, fullAnswers(t))
	if err != nil {
		t.Fatalf("runNonInteractive: %v", err)
	}
	if filepath.Dir(receipt.Location) != cfg.Submit.SpoolDir {
		t.Errorf("expected envelope in %s, got %s", cfg.Submit.SpoolDir, receipt.Location)
	}
	if _, err := os.Stat(receipt.Location); err != nil {
		t.Errorf("expected envelope file: %v", err)
	}
}

func TestRunNonInteractiveReportsFieldErrors(t *testing.T) {
	s := testSession(t, testConfig(t))
	ans := fullAnswers(t)
	ans.Email = "not-an-email"
	ans.Phone = "123"

	_, err := runNonInteractive(context.Background(), s, ans)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var fe verification.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %T: %v", err, err)
	}
	want := verification.FieldErrors{
		verification.FieldEmail:       "Email is invalid",
		verification.FieldPhoneNumber: "Phone number is invalid",
	}
	if diff := cmp.Diff(want, fe); diff != "" {
		t.Errorf("field errors mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(err.Error(), "Personal Information") {
		t.Errorf("expected step title in error, got %q", err)
	}
	if s.ctrl.Step() != verification.StepPersonal {
		t.Errorf("expected to stop on personal step, got %v", s.ctrl.Step())
	}
}

func TestRunNonInteractiveMissingDocument(t *testing.T) {
	s := testSession(t, testConfig(t))
	ans := fullAnswers(t)
	ans.Document = ""

	_, err := runNonInteractive(context.Background(), s, ans)
	if err == nil || !strings.Contains(err.Error(), "Document upload is required") {
		t.Fatalf("expected document error, got %v", err)
	}
}

func TestRunNonInteractiveUnknownIDType(t *testing.T) {
	s := testSession(t, testConfig(t))
	ans := fullAnswers(t)
	ans.IDType = "pasport"

	_, err := runNonInteractive(context.Background(), s, ans)
	if err == nil || !strings.Contains(err.Error(), `did you mean "Passport"`) {
		t.Fatalf("expected suggestion, got %v", err)
	}
}

func TestRunNonInteractiveAcceptsEveryIDTypeFlagValue(t *testing.T) {
	usage := verifyCmd.Flags().Lookup("id-type").Usage
	for _, v := range verification.IDTypeFlagValues {
		if !strings.Contains(usage, v) {
			t.Errorf("expected --id-type help to list %q, got %q", v, usage)
		}

		s := testSession(t, testConfig(t))
		ans := fullAnswers(t)
		ans.IDType = v
		if _, err := runNonInteractive(context.Background(), s, ans); err != nil {
			t.Errorf("--id-type %s: %v", v, err)
		}
	}
}

func TestRunNonInteractiveRejectsNonImage(t *testing.T) {
	s := testSession(t, testConfig(t))
	ans := fullAnswers(t)
	ans.Document = writeTempFile(t, "notes.txt", []byte("hello"))

	_, err := runNonInteractive(context.Background(), s, ans)
	if !errors.Is(err, device.ErrUnsupportedDocument) {
		t.Fatalf("expected ErrUnsupportedDocument, got %v", err)
	}
}

func TestRunNonInteractiveCleansMarkup(t *testing.T) {
	s := testSession(t, testConfig(t))
	ans := fullAnswers(t)
	ans.Name = "<b>Jane</b> Doe"

	if _, err := runNonInteractive(context.Background(), s, ans); err != nil {
		t.Fatalf("runNonInteractive: %v", err)
	}
	if got := s.ctrl.Form().Name; got != "Jane Doe" {
		t.Errorf("expected markup stripped, got %q", got)
	}
}

func TestLoadAnswersAndMerge(t *testing.T) {
	path := writeTempFile(t, "answers.yaml", []byte(`
name: Jane Doe
email: jane@example.com
phone: "5551234567"
id_type: national-id
id_number: "123456789"
document: /tmp/id.png
`))
	a, err := loadAnswers(path)
	if err != nil {
		t.Fatalf("loadAnswers: %v", err)
	}
	merged := a.merge(answers{Email: "other@example.com"})

	want := answers{
		Name:     "Jane Doe",
		Email:    "other@example.com",
		Phone:    "5551234567",
		IDType:   "national-id",
		IDNumber: "123456789",
		Document: "/tmp/id.png",
	}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("answers mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadAnswersRejectsUnknownKeys(t *testing.T) {
	path := writeTempFile(t, "answers.yaml", []byte("nmae: Jane\n"))
	if _, err := loadAnswers(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadAnswersEmptyFile(t *testing.T) {
	path := writeTempFile(t, "answers.yaml", nil)
	a, err := loadAnswers(path)
	if err != nil {
		t.Fatalf("loadAnswers: %v", err)
	}
	if a != (answers{}) {
		t.Errorf("expected empty answers, got %+v", a)
	}
}

// scriptedDriver answers prompts from a fixed script. Running out of select
// answers cancels the run.
type scriptedDriver struct {
	t       *testing.T
	inputs  []string
	selects []int
	labels  []string
}

func (d *scriptedDriver) Input(label, defaultVal string) (string, error) {
	d.labels = append(d.labels, label)
	if len(d.inputs) == 0 {
		d.t.Fatalf("unexpected input prompt %q", label)
	}
	v := d.inputs[0]
	d.inputs = d.inputs[1:]
	return v, nil
}

func (d *scriptedDriver) Select(label string, items []string, cursor int) (int, error) {
	d.labels = append(d.labels, label)
	if len(d.selects) == 0 {
		return -1, tui.ErrCancelled
	}
	v := d.selects[0]
	d.selects = d.selects[1:]
	return v, nil
}

func TestRunPlainHappyPath(t *testing.T) {
	var calls int32
	s := testSession(t, testConfig(t))
	s.ctrl = verification.NewController(verification.WithSubmitter(verification.SubmitterFunc(
		func(ctx context.Context, form verification.Form) (verification.Receipt, error) {
			atomic.AddInt32(&calls, 1)
			return verification.Receipt{Reference: "ref-plain"}, nil
		})))
	doc := writeTempFile(t, "id.png", pngHeader)

	d := &scriptedDriver{
		t: t,
		inputs: []string{
			"", "", "", // personal, all empty: blocked
			"Jane Doe", "jane@example.com", "555-123-4567",
			"X1234567",
			doc,
		},
		selects: []int{
			1, // Passport
			0, // Select File
			2, // Continue
			0, // Submit
		},
	}
	var out bytes.Buffer

	receipt, err := runPlain(context.Background(), s, d, &out)
	if err != nil {
		t.Fatalf("runPlain: %v\n%s", err, out.String())
	}
	if receipt.Reference != "ref-plain" || calls != 1 {
		t.Errorf("expected one submission with ref-plain, got %q after %d calls", receipt.Reference, calls)
	}
	for _, want := range []string{"Full name is required", "Step 4 of 4", "attached id.png"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected output to contain %q:\n%s", want, out.String())
		}
	}
}

func TestRunPlainCameraPermissionDenied(t *testing.T) {
	s := testSession(t, testConfig(t))
	for f, v := range map[verification.Field]string{
		verification.FieldName:        "Jane Doe",
		verification.FieldEmail:       "jane@example.com",
		verification.FieldPhoneNumber: "5551234567",
		verification.FieldIDType:      string(verification.IDTypeNationalID),
		verification.FieldIDNumber:    "1",
	} {
		if err := s.ctrl.UpdateField(f, v); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := s.ctrl.NextStep(); err != nil {
			t.Fatal(err)
		}
	}

	// Take Photo, then the script runs out and the run is cancelled.
	d := &scriptedDriver{t: t, selects: []int{1}}
	var out bytes.Buffer

	_, err := runPlain(context.Background(), s, d, &out)
	if !errors.Is(err, tui.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if !strings.Contains(out.String(), "Camera permission is needed to take a photo") {
		t.Errorf("expected permission notice:\n%s", out.String())
	}
	if s.ctrl.Form().Document != nil {
		t.Error("expected no document")
	}
}

func TestRunPlainRetriesFailedSubmission(t *testing.T) {
	var calls int32
	s := testSession(t, testConfig(t))
	s.ctrl = verification.NewController(verification.WithSubmitter(verification.SubmitterFunc(
		func(ctx context.Context, form verification.Form) (verification.Receipt, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				return verification.Receipt{}, errors.New("service unavailable")
			}
			return verification.Receipt{Reference: "ref-retry"}, nil
		})))
	ans := fullAnswers(t)
	for f, v := range map[verification.Field]string{
		verification.FieldName:        ans.Name,
		verification.FieldEmail:       ans.Email,
		verification.FieldPhoneNumber: ans.Phone,
		verification.FieldIDType:      string(verification.IDTypePassport),
		verification.FieldIDNumber:    ans.IDNumber,
	} {
		if err := s.ctrl.UpdateField(f, v); err != nil {
			t.Fatal(err)
		}
	}
	doc, err := s.library.Open(ans.Document)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ctrl.AttachDocument(doc); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := s.ctrl.NextStep(); err != nil {
			t.Fatal(err)
		}
	}

	d := &scriptedDriver{t: t, selects: []int{0, 0}}
	var out bytes.Buffer

	receipt, err := runPlain(context.Background(), s, d, &out)
	if err != nil {
		t.Fatalf("runPlain: %v", err)
	}
	if receipt.Reference != "ref-retry" || calls != 2 {
		t.Errorf("expected success on second attempt, got %q after %d calls", receipt.Reference, calls)
	}
	if !strings.Contains(out.String(), "service unavailable") {
		t.Errorf("expected failure to be reported:\n%s", out.String())
	}
}

func TestVerifyCmdNonInteractive(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("COVERCARE_SUBMIT_DELAY", "0s")
	doc := writeTempFile(t, "id.png", pngHeader)

	rootCmd.SetArgs([]string{
		"verify", "--non-interactive",
		"--name", "Jane Doe",
		"--email", "jane@example.com",
		"--phone", "5551234567",
		"--id-type", "Driver's License",
		"--id-number", "D123",
		"--document", doc,
	})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("verify error: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "Verification Submitted!") || !strings.Contains(out.String(), "Reference: ") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestConfigCmd(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("COVERCARE_SUBMIT_MODE", "spool")

	rootCmd.SetArgs([]string{"config"})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config error: %v", err)
	}
	for _, want := range []string{"mode: spool", "delay: 2s", "camera_permission: granted"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in output:\n%s", want, out.String())
		}
	}
}
