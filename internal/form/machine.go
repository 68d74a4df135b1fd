package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wolfman30/visitplus-leads/internal/leads"
)

// State is the lifecycle position of a form.
type State string

const (
	StateEditing    State = "editing"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

var (
	// ErrSubmitInFlight is returned when Submit is called while a previous
	// submission has not finished.
	ErrSubmitInFlight = errors.New("form: submission already in flight")
	// ErrTerminal is returned once the form has been submitted successfully.
	ErrTerminal = errors.New("form: already submitted")
	// ErrNotFinalStep is returned when Submit is called before the last step.
	ErrNotFinalStep = errors.New("form: not on the final step")
	// ErrFieldLocked is returned when a field outside the current step is edited.
	ErrFieldLocked = errors.New("form: field not on the current step")
	// ErrInvalid is returned when Next or Submit is blocked by field errors.
	ErrInvalid = errors.New("form: validation failed")
)

// Submitter delivers validated values to the intake endpoint.
type Submitter interface {
	Submit(ctx context.Context, in leads.Input) (Receipt, error)
}

// Machine holds the client-side state of one form instance. It is safe for
// concurrent use; only one submission can be in flight at a time.
type Machine struct {
	profile   leads.Profile
	submitter Submitter

	mu          sync.Mutex
	state       State
	step        int
	values      map[leads.Field]string
	touched     map[leads.Field]bool
	errs        map[leads.Field]string
	attachments []leads.Attachment
	failure     error
	receipt     Receipt

	observer func(State)
	entered  []State
}

// NewMachine creates a form in the editing state on step 1.
func NewMachine(profile leads.Profile, submitter Submitter) *Machine {
	return &Machine{
		profile:   profile,
		submitter: submitter,
		state:     StateEditing,
		step:      1,
		values:    make(map[leads.Field]string),
		touched:   make(map[leads.Field]bool),
		errs:      make(map[leads.Field]string),
	}
}

// OnStateChange registers fn to receive every state the form enters,
// including the transient failed state that a failed submission passes
// through on its way back to editing. fn runs without the form's lock held.
func (m *Machine) OnStateChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = fn
}

func (m *Machine) enterLocked(s State) {
	m.state = s
	if m.observer != nil {
		m.entered = append(m.entered, s)
	}
}

func (m *Machine) notifyEntered() {
	m.mu.Lock()
	fn, entered := m.observer, m.entered
	m.entered = nil
	m.mu.Unlock()
	for _, s := range entered {
		fn(s)
	}
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Step returns the 1-based step cursor.
func (m *Machine) Step() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step
}

// Value returns the stored value of a field.
func (m *Machine) Value(f leads.Field) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[f]
}

// Error returns the current message for a field, or "".
func (m *Machine) Error(f leads.Field) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errs[f]
}

// Errors returns a copy of all current field messages.
func (m *Machine) Errors() map[leads.Field]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[leads.Field]string, len(m.errs))
	for k, v := range m.errs {
		out[k] = v
	}
	return out
}

// Failure returns the error surfaced by the last failed submission.
func (m *Machine) Failure() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failure
}

// Receipt returns the result of a successful submission.
func (m *Machine) Receipt() Receipt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.receipt
}

// Attachments returns the files currently in the payload.
func (m *Machine) Attachments() []leads.Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]leads.Attachment(nil), m.attachments...)
}

// Set stores a field value and returns what was stored. Phone input is
// formatted as it is typed. Touched fields are re-validated on every change.
func (m *Machine) Set(f leads.Field, value string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.onCurrentStep(f) {
		return "", fmt.Errorf("%w: %s", ErrFieldLocked, f)
	}
	if f == leads.FieldPhone {
		value = leads.FormatPhone(value)
	}
	m.values[f] = value
	if m.touched[f] {
		m.validateLocked(f)
	}
	return value, nil
}

// Blur marks a field touched and validates it. It returns the field message.
func (m *Machine) Blur(f leads.Field) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched[f] = true
	return m.validateLocked(f)
}

// AddAttachment appends a photo to the payload. Files that are not images,
// exceed the size limit or go past the count limit are rejected and never
// enter the payload.
func (m *Machine) AddAttachment(a leads.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.profile.AcceptsAttachments() {
		return fmt.Errorf("%w: attachments not accepted", leads.ErrInvalidAttachment)
	}
	if len(m.attachments) >= m.profile.MaxAttachments {
		return fmt.Errorf("%w: %s", leads.ErrInvalidAttachment, leads.MsgAttachmentMax)
	}
	if err := leads.ValidateAttachment(a, m.profile.MaxAttachmentBytes); err != nil {
		return err
	}
	m.attachments = append(m.attachments, a)
	return nil
}

// RemoveAttachment drops the photo at index i.
func (m *Machine) RemoveAttachment(i int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.attachments) {
		return
	}
	m.attachments = append(m.attachments[:i], m.attachments[i+1:]...)
}

// Next validates the current step and advances when every field passes.
// It never moves past the final step.
func (m *Machine) Next() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.step >= m.profile.StepCount() {
		return nil
	}
	if !m.validateFieldsLocked(m.profile.StepFields(m.step)) {
		return ErrInvalid
	}
	m.step++
	return nil
}

// Back moves to the previous step, never below 1.
func (m *Machine) Back() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.step > 1 {
		m.step--
	}
}

// Submit re-validates every field and, when all pass, hands the values to
// the submitter. On failure the form returns to editing with its values
// intact and may be submitted again.
func (m *Machine) Submit(ctx context.Context) (Receipt, error) {
	defer m.notifyEntered()
	m.mu.Lock()
	switch m.state {
	case StateSubmitting:
		m.mu.Unlock()
		return Receipt{}, ErrSubmitInFlight
	case StateSucceeded:
		m.mu.Unlock()
		return Receipt{}, ErrTerminal
	}
	if m.step < m.profile.StepCount() {
		m.mu.Unlock()
		return Receipt{}, ErrNotFinalStep
	}

	m.enterLocked(StateValidating)
	ok := m.validateFieldsLocked(m.profile.Fields())
	if ok {
		if err := m.profile.CheckAttachments(m.attachments); err != nil {
			ok = false
			m.failure = err
		}
	}
	if !ok {
		m.enterLocked(StateEditing)
		m.mu.Unlock()
		return Receipt{}, ErrInvalid
	}

	m.enterLocked(StateSubmitting)
	m.failure = nil
	in := m.inputLocked()
	m.mu.Unlock()

	receipt, err := m.submitter.Submit(ctx, in)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.failure = err
		m.enterLocked(StateFailed)
		m.enterLocked(StateEditing)
		return Receipt{}, err
	}
	m.enterLocked(StateSucceeded)
	m.receipt = receipt
	return receipt, nil
}

func (m *Machine) inputLocked() leads.Input {
	return leads.Input{
		Name:        m.values[leads.FieldName],
		Email:       m.values[leads.FieldEmail],
		Phone:       m.values[leads.FieldPhone],
		Category:    m.values[leads.FieldCategory],
		Area:        m.values[leads.FieldArea],
		Attachments: append([]leads.Attachment(nil), m.attachments...),
	}
}

func (m *Machine) onCurrentStep(f leads.Field) bool {
	for _, sf := range m.profile.StepFields(m.step) {
		if sf == f {
			return true
		}
	}
	return false
}

// validateFieldsLocked touches and validates fields, reporting whether all pass.
func (m *Machine) validateFieldsLocked(fields []leads.Field) bool {
	ok := true
	for _, f := range fields {
		m.touched[f] = true
		if m.validateLocked(f) != "" {
			ok = false
		}
	}
	return ok
}

func (m *Machine) validateLocked(f leads.Field) string {
	err := m.profile.CheckField(f, m.values[f])
	if err == nil {
		delete(m.errs, f)
		return ""
	}
	msg := err.Error()
	var fe *leads.FieldError
	if errors.As(err, &fe) {
		msg = fe.Message
	}
	m.errs[f] = msg
	return msg
}
