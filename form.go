package directory

import (
	"context"
	"strconv"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidFormTransition = "INVALID_FORM_TRANSITION"
	textCodeDraftInvalid          = "INVALID_FORM_DRAFT"
	textCodeSubmitInFlight        = "SUBMIT_IN_FLIGHT"
)

// ErrInvalidFormTransition is returned when a requested form state change is
// not allowed.
var ErrInvalidFormTransition = goerrors.New("invalid form state transition", goerrors.CategoryConflict).
	WithTextCode(textCodeInvalidFormTransition).
	WithCode(goerrors.CodeConflict)

// ErrDraftInvalid is returned when submit is blocked by field validation. No
// network call is made in that case.
var ErrDraftInvalid = goerrors.New("form draft failed validation", goerrors.CategoryValidation).
	WithTextCode(textCodeDraftInvalid).
	WithCode(goerrors.CodeBadRequest)

// ErrSubmitInFlight is returned when a second submit arrives while one is
// already running.
var ErrSubmitInFlight = goerrors.New("a submission is already in flight", goerrors.CategoryConflict).
	WithTextCode(textCodeSubmitInFlight).
	WithCode(goerrors.CodeConflict)

// FormState is a form instance's lifecycle state.
type FormState string

const (
	FormIdle       FormState = "idle"
	FormEditing    FormState = "editing"
	FormValidating FormState = "validating"
	FormSubmitting FormState = "submitting"
	FormSucceeded  FormState = "succeeded"
	FormFailed     FormState = "failed"
)

// FormMode selects which fields a form carries and validates.
type FormMode string

const (
	FormModeLogin    FormMode = "login"
	FormModeRegister FormMode = "register"
	FormModeCreate   FormMode = "create"
	FormModeEdit     FormMode = "edit"
)

// FormDraft is the transient, form-scoped edit state. It lives from modal
// open to submit-success or cancel and is never persisted.
type FormDraft struct {
	Fields          map[string]string
	FieldErrors     map[string]string
	Mode            FormMode
	TargetAccountID int64
}

func newDraft(mode FormMode, target int64) FormDraft {
	return FormDraft{
		Fields:          map[string]string{},
		FieldErrors:     map[string]string{},
		Mode:            mode,
		TargetAccountID: target,
	}
}

func (d FormDraft) clone() FormDraft {
	out := newDraft(d.Mode, d.TargetAccountID)
	for k, v := range d.Fields {
		out.Fields[k] = v
	}
	for k, v := range d.FieldErrors {
		out.FieldErrors[k] = v
	}
	return out
}

// Validate re-checks every applicable field and returns the error map. The
// draft is submittable iff the map is empty.
func (d *FormDraft) Validate() map[string]string {
	errs := map[string]string{}
	for _, name := range applicableFields(d.Mode) {
		if msg := validateField(d.Mode, name, d.Fields[name]); msg != "" {
			errs[name] = msg
		}
	}
	d.FieldErrors = errs
	return errs
}

// RoleKeyOrDefault parses the draft's role key, defaulting to Patient as the
// registration form does.
func (d FormDraft) RoleKeyOrDefault() int {
	if v := d.Fields[FieldRoleKey]; v != "" {
		if key, err := strconv.Atoi(v); err == nil {
			return key
		}
	}
	return RolePatient.Key()
}

func (d FormDraft) registerInput() RegisterInput {
	return RegisterInput{
		FullName: strings.TrimSpace(d.Fields[FieldFullName]),
		Email:    d.Fields[FieldEmail],
		Password: d.Fields[FieldPassword],
		RoleKey:  d.RoleKeyOrDefault(),
	}
}

func (d FormDraft) createInput() CreateAccountInput {
	return CreateAccountInput{
		FullName: strings.TrimSpace(d.Fields[FieldFullName]),
		Email:    d.Fields[FieldEmail],
		Password: d.Fields[FieldPassword],
		RoleKey:  d.RoleKeyOrDefault(),
	}
}

func (d FormDraft) updateInput() UpdateAccountInput {
	return UpdateAccountInput{
		FullName: strings.TrimSpace(d.Fields[FieldFullName]),
		Email:    d.Fields[FieldEmail],
		RoleKey:  d.RoleKeyOrDefault(),
	}
}

// SubmitFunc performs the single network call a submission is allowed.
type SubmitFunc func(ctx context.Context, draft FormDraft) error

// Form is a per-instance state machine mediating user edits through field
// validation and one remote call per submission.
type Form struct {
	mu          sync.Mutex
	state       FormState
	draft       FormDraft
	submit      SubmitFunc
	onSuccess   func(ctx context.Context)
	failure     string
	discarded   bool
	logger      Logger
	transitions map[FormState]map[FormState]struct{}
}

// FormOption customizes Form construction.
type FormOption func(*Form)

// WithFormLogger overrides the default logger.
func WithFormLogger(logger Logger) FormOption {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithFormSuccessHandler runs after a successful submission, once the draft
// has been discarded.
func WithFormSuccessHandler(fn func(ctx context.Context)) FormOption {
	return func(f *Form) {
		f.onSuccess = fn
	}
}

// NewForm returns an idle form in the given mode. submit is invoked exactly
// once per accepted submission.
func NewForm(mode FormMode, submit SubmitFunc, opts ...FormOption) *Form {
	f := &Form{
		state:  FormIdle,
		draft:  newDraft(mode, 0),
		submit: submit,
		logger: defLogger{},
		transitions: map[FormState]map[FormState]struct{}{
			FormIdle: {
				FormEditing:    {},
				FormValidating: {},
			},
			FormEditing: {
				FormValidating: {},
			},
			FormValidating: {
				FormEditing:    {},
				FormSubmitting: {},
			},
			FormSubmitting: {
				FormSucceeded: {},
				FormFailed:    {},
			},
			FormFailed: {
				FormEditing:    {},
				FormValidating: {},
			},
			FormSucceeded: {
				FormIdle: {},
			},
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// NewLoginForm builds the authentication form driving guard.Login.
func NewLoginForm(guard *Guard, opts ...FormOption) *Form {
	return NewForm(FormModeLogin, func(ctx context.Context, draft FormDraft) error {
		return guard.Login(ctx, draft.Fields[FieldEmail], draft.Fields[FieldPassword])
	}, opts...)
}

// NewRegisterForm builds the self-registration form.
func NewRegisterForm(api DirectoryAPI, opts ...FormOption) *Form {
	return NewForm(FormModeRegister, func(ctx context.Context, draft FormDraft) error {
		return api.Register(ctx, draft.registerInput())
	}, opts...)
}

// NewAccountCreateForm builds the administrator create modal. The roster
// refreshes itself after the mutation.
func NewAccountCreateForm(roster *Roster, opts ...FormOption) *Form {
	return NewForm(FormModeCreate, func(ctx context.Context, draft FormDraft) error {
		return roster.Create(ctx, draft.createInput())
	}, opts...)
}

// NewAccountEditForm builds the edit modal for one account. Edits never
// validate nor send a password.
func NewAccountEditForm(roster *Roster, target int64, opts ...FormOption) *Form {
	form := NewForm(FormModeEdit, func(ctx context.Context, draft FormDraft) error {
		return roster.Update(ctx, draft.TargetAccountID, draft.updateInput())
	}, opts...)
	form.draft.TargetAccountID = target
	return form
}

// State returns the form's current state.
func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Draft returns a copy of the current draft.
func (f *Form) Draft() FormDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.clone()
}

// FieldErrors returns a copy of the per-field error map.
func (f *Form) FieldErrors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for k, v := range f.draft.FieldErrors {
		out[k] = v
	}
	return out
}

// Failure returns the last terminal failure message shown to the user.
func (f *Form) Failure() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failure
}

// Seed pre-populates fields while the form is idle, as the edit modal does
// when opening over an existing account.
func (f *Form) Seed(fields map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != FormIdle {
		return f.invalidTransition(f.state, FormIdle)
	}
	for k, v := range fields {
		f.draft.Fields[k] = v
	}
	return nil
}

// SetField records a keystroke-level change and validates the touched field
// synchronously.
func (f *Form) SetField(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.transition(FormEditing); err != nil {
		return err
	}

	f.draft.Fields[name] = value
	if msg := validateField(f.draft.Mode, name, value); msg != "" {
		f.draft.FieldErrors[name] = msg
	} else {
		delete(f.draft.FieldErrors, name)
	}
	return nil
}

// Blur re-validates a field without changing its value.
func (f *Form) Blur(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg := validateField(f.draft.Mode, name, f.draft.Fields[name]); msg != "" {
		f.draft.FieldErrors[name] = msg
	} else {
		delete(f.draft.FieldErrors, name)
	}
}

// Submit re-validates every applicable field and, when the draft is clean,
// issues exactly one remote call. A validation failure returns the form to
// Editing without touching the network. A second submit while one is in
// flight is rejected.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()

	if f.state == FormSubmitting {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	if err := f.transition(FormValidating); err != nil {
		f.mu.Unlock()
		return err
	}

	if errs := f.draft.Validate(); len(errs) > 0 {
		f.state = FormEditing
		f.mu.Unlock()
		return ErrDraftInvalid.WithMetadata(map[string]any{"fields": errs})
	}

	f.state = FormSubmitting
	f.failure = ""
	snapshot := f.draft.clone()
	f.mu.Unlock()

	err := f.submit(ctx, snapshot)

	f.mu.Lock()
	if f.discarded {
		// The modal is gone; a late response has no effect on state.
		f.mu.Unlock()
		return err
	}

	if err != nil {
		f.state = FormFailed
		f.failure = failureMessage(err)
		// Password never survives a terminal transition.
		delete(f.draft.Fields, FieldPassword)
		delete(f.draft.FieldErrors, FieldPassword)
		f.mu.Unlock()
		return err
	}

	f.state = FormSucceeded
	f.draft = newDraft(f.draft.Mode, f.draft.TargetAccountID)
	onSuccess := f.onSuccess
	f.mu.Unlock()

	if onSuccess != nil {
		onSuccess(ctx)
	}
	return nil
}

// Reset returns a terminal form to Idle with a fresh draft.
func (f *Form) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != FormSucceeded && f.state != FormFailed && f.state != FormEditing {
		return f.invalidTransition(f.state, FormIdle)
	}
	f.state = FormIdle
	f.draft = newDraft(f.draft.Mode, f.draft.TargetAccountID)
	f.failure = ""
	return nil
}

// Discard drops the form when its modal closes. An in-flight request is not
// cancelled; its response is ignored.
func (f *Form) Discard() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discarded = true
	f.draft = newDraft(f.draft.Mode, f.draft.TargetAccountID)
}

// transition moves the machine to target, honoring the transition graph.
// Self transitions are no-ops.
func (f *Form) transition(target FormState) error {
	if f.state == target {
		return nil
	}
	if allowed, ok := f.transitions[f.state]; ok {
		if _, exists := allowed[target]; exists {
			f.state = target
			return nil
		}
	}
	return f.invalidTransition(f.state, target)
}

func (f *Form) invalidTransition(from, to FormState) error {
	return ErrInvalidFormTransition.WithMetadata(map[string]any{
		"from": string(from),
		"to":   string(to),
	})
}

// failureMessage selects the user-facing text for a failed submission.
// Server rejection messages surface verbatim.
func failureMessage(err error) string {
	if failure, ok := FailureFrom(err); ok {
		return failure.UserMessage()
	}
	return err.Error()
}
