package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultSubmitDelay is the simulated latency of a submission.
const DefaultSubmitDelay = 2 * time.Second

// Receipt acknowledges an accepted submission.
type Receipt struct {
	Reference   string
	SubmittedAt time.Time
	// Location is where the payload was delivered, if anywhere.
	Location string
}

// Submitter delivers a completed form.
type Submitter interface {
	Submit(ctx context.Context, form Form) (Receipt, error)
}

// SubmitterFunc adapts a function to the Submitter interface.
type SubmitterFunc func(ctx context.Context, form Form) (Receipt, error)

func (f SubmitterFunc) Submit(ctx context.Context, form Form) (Receipt, error) {
	return f(ctx, form)
}

// SimulatedSubmitter accepts every form after Delay. Nothing is sent or
// stored.
type SimulatedSubmitter struct {
	Delay time.Duration
	Now   func() time.Time
}

func (s *SimulatedSubmitter) Submit(ctx context.Context, form Form) (Receipt, error) {
	env, err := NewEnvelope(form, s.now())
	if err != nil {
		return Receipt{}, err
	}

	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	return Receipt{Reference: env.Reference, SubmittedAt: env.SubmittedAt}, nil
}

func (s *SimulatedSubmitter) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SpoolSubmitter writes each submission as a JSON envelope into Dir, one
// file per reference. The envelope is checked against the payload schema
// before it is written.
type SpoolSubmitter struct {
	Dir string
	Now func() time.Time
}

func (s *SpoolSubmitter) Submit(ctx context.Context, form Form) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if strings.TrimSpace(s.Dir) == "" {
		return Receipt{}, fmt.Errorf("spool directory is not configured")
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	env, err := NewEnvelope(form, now())
	if err != nil {
		return Receipt{}, err
	}

	if err := env.Validate(); err != nil {
		return Receipt{}, err
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return Receipt{}, fmt.Errorf("encoding submission: %w", err)
	}

	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return Receipt{}, fmt.Errorf("creating spool directory: %w", err)
	}
	path := filepath.Join(s.Dir, env.Reference+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return Receipt{}, fmt.Errorf("writing submission: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return Receipt{}, fmt.Errorf("writing submission: %w", err)
	}

	return Receipt{Reference: env.Reference, SubmittedAt: env.SubmittedAt, Location: path}, nil
}

// Envelope is the submission payload.
type Envelope struct {
	Reference   string    `json:"reference"`
	SubmittedAt time.Time `json:"submitted_at"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	IDType      IDType    `json:"id_type"`
	IDNumber    string    `json:"id_number"`
	Document    Document  `json:"document"`
}

// NewEnvelope builds the payload for form with a fresh reference. The phone
// number is sent in its digits-only form.
func NewEnvelope(form Form, at time.Time) (Envelope, error) {
	if form.Document == nil {
		return Envelope{}, fmt.Errorf("building submission: document is missing")
	}
	return Envelope{
		Reference:   uuid.NewString(),
		SubmittedAt: at.UTC(),
		Name:        strings.TrimSpace(form.Name),
		Email:       strings.TrimSpace(form.Email),
		PhoneNumber: NormalizePhone(form.PhoneNumber),
		IDType:      form.IDType,
		IDNumber:    strings.TrimSpace(form.IDNumber),
		Document:    *form.Document,
	}, nil
}
