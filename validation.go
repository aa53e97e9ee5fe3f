package directory

import (
	"errors"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Field names shared by the authentication and account-management forms.
const (
	FieldFullName = "fullName"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldRoleKey  = "roleKey"
)

const (
	msgFullNameTooShort = "must be at least 3 characters"
	msgEmailInvalid     = "must be a valid email address"
	msgPasswordTooShort = "must be at least 6 characters"
	msgRequired         = "is required"
	msgRoleInvalid      = "must be a valid role"
)

// ValidateFullName checks that the trimmed name has at least 3 characters.
func ValidateFullName(value string) error {
	return validation.Validate(strings.TrimSpace(value),
		validation.Required.Error(msgFullNameTooShort),
		validation.Length(3, 0).Error(msgFullNameTooShort),
	)
}

// ValidateEmail checks the local@domain.tld shape.
func ValidateEmail(value string) error {
	return validation.Validate(value,
		validation.Required.Error(msgRequired),
		is.Email.Error(msgEmailInvalid),
	)
}

// ValidatePassword enforces the minimum length used when setting a
// credential. Edit flows never call this: edits do not alter credentials.
func ValidatePassword(value string) error {
	return validation.Validate(value,
		validation.Required.Error(msgPasswordTooShort),
		validation.Length(6, 0).Error(msgPasswordTooShort),
	)
}

// ValidateLoginPassword only requires presence; the service decides whether
// the credential matches.
func ValidateLoginPassword(value string) error {
	return validation.Validate(value,
		validation.Required.Error(msgRequired),
	)
}

// ValidateRoleKey accepts an empty value (the form defaults it) or a numeric
// key naming one of the predefined roles.
func ValidateRoleKey(value string) error {
	if value == "" {
		return nil
	}
	key, err := strconv.Atoi(value)
	if err != nil {
		return errors.New(msgRoleInvalid)
	}
	if _, ok := RoleFromKey(key); !ok {
		return errors.New(msgRoleInvalid)
	}
	return nil
}

// applicableFields returns the fields validated for a form mode. The
// password is active only where a credential is being set.
func applicableFields(mode FormMode) []string {
	switch mode {
	case FormModeLogin:
		return []string{FieldEmail, FieldPassword}
	case FormModeRegister, FormModeCreate:
		return []string{FieldFullName, FieldEmail, FieldPassword, FieldRoleKey}
	case FormModeEdit:
		return []string{FieldFullName, FieldEmail, FieldRoleKey}
	default:
		return nil
	}
}

// validateField runs the rule for one field and returns the message, or the
// empty string when the value is acceptable.
func validateField(mode FormMode, name, value string) string {
	var err error
	switch name {
	case FieldFullName:
		err = ValidateFullName(value)
	case FieldEmail:
		err = ValidateEmail(value)
	case FieldPassword:
		if mode == FormModeLogin {
			err = ValidateLoginPassword(value)
		} else {
			err = ValidatePassword(value)
		}
	case FieldRoleKey:
		err = ValidateRoleKey(value)
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
