package directory

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// ErrorCategory classifies directory errors for reporting and control flow.
type ErrorCategory string

const (
	ErrorCategoryConnection     ErrorCategory = "connection"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryPermission     ErrorCategory = "permission"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryConflict       ErrorCategory = "conflict"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryServer         ErrorCategory = "server"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// Error provides operation context and a category for a failed directory call.
type Error struct {
	Operation string        // The operation that failed
	Category  ErrorCategory // Error category
	LDAPCode  uint16        // LDAP result code, if any
	Message   string        // Human-readable message
	DN        string        // DN involved, if applicable
	Cause     error         // Underlying error
}

func (e *Error) Error() string {
	var parts []string

	if e.LDAPCode > 0 {
		parts = append(parts, fmt.Sprintf("directory %s failed (code %d)", e.Operation, e.LDAPCode))
	} else {
		parts = append(parts, fmt.Sprintf("directory %s failed", e.Operation))
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.DN != "" {
		parts = append(parts, fmt.Sprintf("DN: %s", e.DN))
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a categorized directory error from an underlying failure.
func NewError(operation string, err error) *Error {
	if err == nil {
		return nil
	}

	derr := &Error{
		Operation: operation,
		Cause:     err,
		Message:   err.Error(),
	}

	if ldapErr, ok := err.(*ldap.Error); ok {
		derr.LDAPCode = ldapErr.ResultCode
		derr.Category = categorizeCode(ldapErr.ResultCode)
		if ldapErr.Err != nil {
			derr.Message = ldapErr.Err.Error()
		}
	} else {
		derr.Category = categorizeGeneric(err)
	}

	return derr
}

// WrapError wraps an error with operation context, preserving an existing
// *Error rather than double-wrapping it.
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}

	if derr, ok := err.(*Error); ok {
		if derr.Operation == "" {
			derr.Operation = operation
		}
		return derr
	}

	return NewError(operation, err)
}

func categorizeCode(code uint16) ErrorCategory {
	switch code {
	case ldap.LDAPResultInvalidCredentials,
		ldap.LDAPResultInappropriateAuthentication,
		ldap.LDAPResultStrongAuthRequired:
		return ErrorCategoryAuthentication

	case ldap.LDAPResultInsufficientAccessRights,
		ldap.LDAPResultUnwillingToPerform:
		return ErrorCategoryPermission

	case ldap.LDAPResultNoSuchObject,
		ldap.LDAPResultNoSuchAttribute:
		return ErrorCategoryNotFound

	case ldap.LDAPResultEntryAlreadyExists,
		ldap.LDAPResultAttributeOrValueExists,
		ldap.LDAPResultObjectClassViolation,
		ldap.LDAPResultNotAllowedOnNonLeaf:
		return ErrorCategoryConflict

	case ldap.LDAPResultInvalidAttributeSyntax,
		ldap.LDAPResultConstraintViolation,
		ldap.LDAPResultInvalidDNSyntax,
		ldap.LDAPResultNamingViolation:
		return ErrorCategoryValidation

	case ldap.LDAPResultServerDown,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultBusy,
		ldap.LDAPResultTimeLimitExceeded:
		return ErrorCategoryServer

	case ldap.LDAPResultConnectError,
		ldap.LDAPResultProtocolError:
		return ErrorCategoryConnection

	default:
		return ErrorCategoryUnknown
	}
}

func categorizeGeneric(err error) ErrorCategory {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "connection"),
		strings.Contains(msg, "network"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "broken pipe"):
		return ErrorCategoryConnection
	case strings.Contains(msg, "credentials"),
		strings.Contains(msg, "authentication"):
		return ErrorCategoryAuthentication
	case strings.Contains(msg, "not found"),
		strings.Contains(msg, "no such object"):
		return ErrorCategoryNotFound
	case strings.Contains(msg, "access"),
		strings.Contains(msg, "denied"),
		strings.Contains(msg, "permission"):
		return ErrorCategoryPermission
	default:
		return ErrorCategoryUnknown
	}
}

// GetErrorCategory returns the category of any error, directory-typed or not.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	if derr, ok := err.(*Error); ok {
		return derr.Category
	}

	if ldapErr, ok := err.(*ldap.Error); ok {
		return categorizeCode(ldapErr.ResultCode)
	}

	return categorizeGeneric(err)
}

// IsNotFoundError reports whether an error indicates a missing object.
func IsNotFoundError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryNotFound
}

// IsConflictError reports whether an error indicates an already-exists conflict.
func IsConflictError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryConflict
}

// IsUnavailableError reports whether an error indicates the directory itself
// cannot be reached. Such errors are job-fatal rather than per-item.
func IsUnavailableError(err error) bool {
	cat := GetErrorCategory(err)
	return cat == ErrorCategoryConnection || cat == ErrorCategoryServer
}
