// Package directory provides access to an Active Directory domain over LDAP:
// a low-level client with simple-bind and Kerberos authentication, and the
// Gateway service exposing the group and membership operations the batch
// engine consumes. Identities are addressed by DN, objectGUID, or
// sAMAccountName; binary objectGUID and objectSid values are decoded into
// their canonical string forms.
package directory
