package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/covercare/covercare-cli/config"
	"github.com/covercare/covercare-cli/device"
	"github.com/covercare/covercare-cli/internal/logging"
	"github.com/covercare/covercare-cli/internal/tui"
	"github.com/covercare/covercare-cli/internal/tui/steps"
	"github.com/covercare/covercare-cli/verification"
)

// verifyOptions holds the collected options for a verification run.
type verifyOptions struct {
	Plain          bool
	NonInteractive bool
	AnswersFile    string
	Answers        answers
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run the identity verification wizard",
	Long: "Walk through personal information, identity information and document upload, " +
		"review the answers and submit them for verification.",
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().Bool("plain", false, "use line-by-line prompts instead of the full-screen wizard")
	verifyCmd.Flags().Bool("non-interactive", false, "run without prompts using flags and/or --answers")
	verifyCmd.Flags().String("answers", "", "YAML file with answers for --non-interactive")
	verifyCmd.Flags().String("name", "", "full name")
	verifyCmd.Flags().String("email", "", "email address")
	verifyCmd.Flags().String("phone", "", "phone number, 10 to 12 digits")
	verifyCmd.Flags().String("id-type", "", "ID type: "+strings.Join(verification.IDTypeFlagValues, ", "))
	verifyCmd.Flags().String("id-number", "", "ID number")
	verifyCmd.Flags().String("document", "", "path to an image of the ID document")
}

// session is everything a verification run needs, built from config.
type session struct {
	cfg     config.Config
	ctrl    *verification.Controller
	library device.Library
	camera  *device.Camera
	logger  logging.Logger
}

func runVerify(cmd *cobra.Command, args []string) error {
	opts := verifyOptions{}
	opts.Plain, _ = cmd.Flags().GetBool("plain")
	opts.NonInteractive, _ = cmd.Flags().GetBool("non-interactive")
	opts.AnswersFile, _ = cmd.Flags().GetString("answers")
	opts.Answers.Name, _ = cmd.Flags().GetString("name")
	opts.Answers.Email, _ = cmd.Flags().GetString("email")
	opts.Answers.Phone, _ = cmd.Flags().GetString("phone")
	opts.Answers.IDType, _ = cmd.Flags().GetString("id-type")
	opts.Answers.IDNumber, _ = cmd.Flags().GetString("id-number")
	opts.Answers.Document, _ = cmd.Flags().GetString("document")

	if opts.Plain && opts.NonInteractive {
		return fmt.Errorf("--plain and --non-interactive cannot be used together")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	// The wizard and the prompts own the terminal.
	var logOut io.Writer
	if opts.NonInteractive {
		logOut = cmd.ErrOrStderr()
	}
	logger, closeLog, err := openLogger(cfg, logOut)
	if err != nil {
		return err
	}
	defer closeLog() //nolint:errcheck

	s := newSession(cfg, logger)
	out := cmd.OutOrStdout()

	var receipt verification.Receipt
	switch {
	case opts.NonInteractive:
		ans := opts.Answers
		if opts.AnswersFile != "" {
			fromFile, err := loadAnswers(opts.AnswersFile)
			if err != nil {
				return err
			}
			ans = fromFile.merge(ans)
		}
		receipt, err = runNonInteractive(cmd.Context(), s, ans)
	case opts.Plain:
		receipt, err = runPlain(cmd.Context(), s, promptuiDriver{}, out)
	default:
		if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("the wizard needs an interactive terminal; use --plain or --non-interactive")
		}
		receipt, err = runTUI(s)
	}
	if err != nil {
		return err
	}

	printReceipt(out, receipt)
	return nil
}

func openLogger(cfg config.Config, fallback io.Writer) (logging.Logger, func() error, error) {
	if cfg.Log.File != "" {
		return logging.OpenFile(cfg.Log.File, verbose)
	}
	if verbose && fallback != nil {
		return logging.NewJSONLogger(fallback, true), func() error { return nil }, nil
	}
	return logging.Nop(), func() error { return nil }, nil
}

func newSession(cfg config.Config, logger logging.Logger) *session {
	return &session{
		cfg: cfg,
		ctrl: verification.NewController(
			verification.WithSubmitter(newSubmitter(cfg)),
			verification.WithLogger(logger),
		),
		library: device.Library{StartDir: cfg.Device.StartDir},
		camera: &device.Camera{
			Permission: device.StaticPermission(cfg.Device.CameraPermission == config.PermissionGranted),
			Command:    device.ParseCommand(cfg.Device.CaptureCommand),
			Timeout:    cfg.Device.CaptureTimeout,
			Logger:     logger,
		},
		logger: logger,
	}
}

func newSubmitter(cfg config.Config) verification.Submitter {
	if cfg.Submit.Mode == config.SubmitSpool {
		return &verification.SpoolSubmitter{Dir: cfg.Submit.SpoolDir}
	}
	return &verification.SimulatedSubmitter{Delay: cfg.Submit.Delay}
}

// submit runs one submission bounded by the configured timeout.
func (s *session) submit(ctx context.Context) (verification.Receipt, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Submit.Timeout)
	defer cancel()
	return s.ctrl.Submit(ctx)
}

func runTUI(s *session) (verification.Receipt, error) {
	theme := tui.DetectTheme(firstNonEmpty(themeOverride, s.cfg.Theme))
	styles := tui.NewStyleSet(theme)

	model := tui.NewWizardModel(theme, steps.New(styles, s.library, s.camera), s.ctrl, tui.WizardOptions{
		Version:       appVersion,
		SubmitTimeout: s.cfg.Submit.Timeout,
		Logger:        s.logger,
	})

	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return verification.Receipt{}, fmt.Errorf("running wizard: %w", err)
	}
	wizard, ok := final.(tui.WizardModel)
	if !ok {
		return verification.Receipt{}, fmt.Errorf("unexpected wizard model %T", final)
	}
	if err := wizard.Err(); err != nil {
		return verification.Receipt{}, err
	}
	if !s.ctrl.Submitted() {
		return verification.Receipt{}, tui.ErrCancelled
	}
	return s.ctrl.Receipt(), nil
}

func printReceipt(w io.Writer, r verification.Receipt) {
	fmt.Fprintln(w, "Verification Submitted!")
	fmt.Fprintln(w, "We will review your documents and let you know once your cover is active.")
	fmt.Fprintf(w, "Reference: %s\n", r.Reference)
	if r.Location != "" {
		fmt.Fprintf(w, "Saved to:  %s\n", r.Location)
	}
}

// fieldErrorLines renders FieldErrors one per line in field order.
func fieldErrorLines(err error) []string {
	var fe verification.FieldErrors
	if !errors.As(err, &fe) {
		return nil
	}
	var lines []string
	for _, f := range fe.Fields() {
		lines = append(lines, fmt.Sprintf("%s: %s", f.Label(), fe[f]))
	}
	return lines
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
