package directory

import (
	"context"
	"crypto/tls"
	"time"
)

// ConnectionConfig holds configuration for the LDAP connection to the domain.
type ConnectionConfig struct {
	// Connection settings
	URL     string        `default:""`    // LDAP URL, e.g. ldaps://dc01.example.com:636
	BaseDN  string        `default:""`    // Base DN for all searches
	Timeout time.Duration `default:"30s"` // Per-operation timeout

	// Authentication settings
	Username       string // Bind identity (DN, UPN, or DOMAIN\sam)
	Password       string // Password for simple bind
	KerberosRealm  string // Kerberos realm for GSSAPI bind
	KerberosKeytab string // Path to keytab file
	KerberosCCache string // Path to credential cache
	KerberosConfig string `default:"/etc/krb5.conf"` // Path to krb5.conf

	// TLS settings
	TLSConfig *tls.Config
	StartTLS  bool // Upgrade plain ldap:// connections with StartTLS
	Insecure  bool // Skip certificate verification (not recommended)
}

// AuthMethod defines how the client authenticates to the directory.
type AuthMethod int

const (
	AuthSimpleBind AuthMethod = iota
	AuthKerberos
)

// GetAuthMethod determines the authentication method from the configuration.
// Kerberos takes precedence when a realm is configured.
func (c *ConnectionConfig) GetAuthMethod() AuthMethod {
	if c.KerberosRealm != "" {
		return AuthKerberos
	}
	return AuthSimpleBind
}

// SearchScope defines LDAP search scope.
type SearchScope int

const (
	ScopeBaseObject SearchScope = iota
	ScopeSingleLevel
	ScopeWholeSubtree
)

// SearchRequest encapsulates LDAP search parameters.
type SearchRequest struct {
	BaseDN     string
	Scope      SearchScope
	Filter     string
	Attributes []string
	SizeLimit  int
	TimeLimit  time.Duration
}

// SearchResult contains search results.
type SearchResult struct {
	Entries []*Entry
}

// Entry is a minimal view of an LDAP entry. Raw attribute access is needed
// for binary values such as objectGUID and objectSid.
type Entry struct {
	DN         string
	Attributes map[string][]string
	Raw        map[string][][]byte
}

// GetAttributeValue returns the first value of the named attribute, or "".
func (e *Entry) GetAttributeValue(name string) string {
	if vals := e.Attributes[name]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// GetAttributeValues returns all values of the named attribute.
func (e *Entry) GetAttributeValues(name string) []string {
	return e.Attributes[name]
}

// GetRawAttributeValue returns the first raw value of the named attribute.
func (e *Entry) GetRawAttributeValue(name string) []byte {
	if vals := e.Raw[name]; len(vals) > 0 {
		return vals[0]
	}
	return nil
}

// AddRequest encapsulates LDAP add parameters.
type AddRequest struct {
	DN         string
	Attributes map[string][]string
}

// ModifyRequest encapsulates LDAP modify parameters. DeleteAttributes removes
// whole attributes; DeleteValues removes specific values from an attribute.
type ModifyRequest struct {
	DN                string
	AddAttributes     map[string][]string
	ReplaceAttributes map[string][]string
	DeleteAttributes  []string
	DeleteValues      map[string][]string
}

// ModifyDNRequest encapsulates LDAP modify-DN parameters (rename and/or move).
type ModifyDNRequest struct {
	DN           string
	NewRDN       string
	DeleteOldRDN bool
	NewSuperior  string
}

// Client provides low-level LDAP operations against one directory.
type Client interface {
	Connect(ctx context.Context) error
	Close() error

	Search(ctx context.Context, req *SearchRequest) (*SearchResult, error)
	SearchWithPaging(ctx context.Context, req *SearchRequest) (*SearchResult, error)
	Add(ctx context.Context, req *AddRequest) error
	Modify(ctx context.Context, req *ModifyRequest) error
	ModifyDN(ctx context.Context, req *ModifyDNRequest) error
	Delete(ctx context.Context, dn string) error

	Ping(ctx context.Context) error
}
