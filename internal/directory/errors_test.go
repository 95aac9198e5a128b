package directory

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError_CategorizesLDAPCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     uint16
		expected ErrorCategory
	}{
		{name: "invalid credentials", code: ldap.LDAPResultInvalidCredentials, expected: ErrorCategoryAuthentication},
		{name: "insufficient access", code: ldap.LDAPResultInsufficientAccessRights, expected: ErrorCategoryPermission},
		{name: "no such object", code: ldap.LDAPResultNoSuchObject, expected: ErrorCategoryNotFound},
		{name: "already exists", code: ldap.LDAPResultEntryAlreadyExists, expected: ErrorCategoryConflict},
		{name: "value exists", code: ldap.LDAPResultAttributeOrValueExists, expected: ErrorCategoryConflict},
		{name: "constraint violation", code: ldap.LDAPResultConstraintViolation, expected: ErrorCategoryValidation},
		{name: "server down", code: ldap.LDAPResultServerDown, expected: ErrorCategoryServer},
		{name: "busy", code: ldap.LDAPResultBusy, expected: ErrorCategoryServer},
		{name: "unknown code", code: ldap.LDAPResultOther, expected: ErrorCategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError("search", ldap.NewError(tt.code, errors.New("boom")))
			assert.Equal(t, tt.expected, err.Category)
			assert.Equal(t, tt.code, err.LDAPCode)
		})
	}
}

func TestNewError_CategorizesGenericErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorCategory
	}{
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), expected: ErrorCategoryConnection},
		{name: "timeout", err: errors.New("i/o timeout"), expected: ErrorCategoryConnection},
		{name: "credentials", err: errors.New("invalid credentials supplied"), expected: ErrorCategoryAuthentication},
		{name: "not found", err: errors.New("object not found"), expected: ErrorCategoryNotFound},
		{name: "denied", err: errors.New("request denied"), expected: ErrorCategoryPermission},
		{name: "anything else", err: errors.New("kaboom"), expected: ErrorCategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewError("op", tt.err).Category)
		})
	}
}

func TestWrapError_PreservesExistingError(t *testing.T) {
	original := &Error{Operation: "search", Category: ErrorCategoryNotFound, Message: "gone"}

	wrapped := WrapError("outer", original)
	require.Same(t, original, wrapped)
	assert.Equal(t, "search", original.Operation)
}

func TestWrapError_FillsMissingOperation(t *testing.T) {
	original := &Error{Category: ErrorCategoryNotFound, Message: "gone"}

	wrapped := WrapError("resolve", original)
	var derr *Error
	require.ErrorAs(t, wrapped, &derr)
	assert.Equal(t, "resolve", derr.Operation)
}

func TestWrapError_NilPassthrough(t *testing.T) {
	assert.NoError(t, WrapError("op", nil))
}

func TestError_MessageFormat(t *testing.T) {
	err := &Error{
		Operation: "add_member",
		Category:  ErrorCategoryConflict,
		LDAPCode:  ldap.LDAPResultAttributeOrValueExists,
		Message:   "value exists",
		DN:        "CN=GrpA,DC=example,DC=com",
	}

	msg := err.Error()
	assert.Contains(t, msg, "add_member")
	assert.Contains(t, msg, fmt.Sprintf("code %d", ldap.LDAPResultAttributeOrValueExists))
	assert.Contains(t, msg, "value exists")
	assert.Contains(t, msg, "CN=GrpA,DC=example,DC=com")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewError("op", cause)
	assert.ErrorIs(t, err, cause)
}

func TestCategoryPredicates(t *testing.T) {
	notFound := &Error{Category: ErrorCategoryNotFound}
	conflict := &Error{Category: ErrorCategoryConflict}
	connErr := &Error{Category: ErrorCategoryConnection}
	serverErr := &Error{Category: ErrorCategoryServer}

	assert.True(t, IsNotFoundError(notFound))
	assert.False(t, IsNotFoundError(conflict))
	assert.True(t, IsConflictError(conflict))
	assert.True(t, IsUnavailableError(connErr))
	assert.True(t, IsUnavailableError(serverErr))
	assert.False(t, IsUnavailableError(notFound))
	assert.False(t, IsNotFoundError(nil))
}
