package directory

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog"
)

const defaultPageSize = 500

// ldapClient implements Client on top of go-ldap.
type ldapClient struct {
	config *ConnectionConfig
	conn   *ldap.Conn
	log    zerolog.Logger
}

// NewClient creates an LDAP client for the configured directory. The client
// does not connect until Connect is called.
func NewClient(config *ConnectionConfig, log zerolog.Logger) (Client, error) {
	if config == nil {
		return nil, fmt.Errorf("connection config cannot be nil")
	}
	if config.URL == "" {
		return nil, fmt.Errorf("directory URL is required")
	}
	if config.BaseDN == "" {
		return nil, fmt.Errorf("base DN is required")
	}

	return &ldapClient{
		config: config,
		log:    log.With().Str("component", "directory").Logger(),
	}, nil
}

func (c *ldapClient) Connect(ctx context.Context) error {
	tlsConfig := c.config.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: c.config.Insecure,
		}
	}

	conn, err := ldap.DialURL(c.config.URL,
		ldap.DialWithDialer(&net.Dialer{Timeout: c.config.Timeout}),
		ldap.DialWithTLSConfig(tlsConfig),
	)
	if err != nil {
		return NewError("connect", err)
	}

	if c.config.StartTLS && strings.HasPrefix(c.config.URL, "ldap://") {
		if err := conn.StartTLS(tlsConfig); err != nil {
			_ = conn.Close()
			return NewError("start_tls", err)
		}
	}

	conn.SetTimeout(c.config.Timeout)

	if err := c.authenticate(conn); err != nil {
		_ = conn.Close()
		return err
	}

	c.conn = conn
	c.log.Debug().Str("url", c.config.URL).Str("base_dn", c.config.BaseDN).Msg("connected to directory")
	return nil
}

func (c *ldapClient) authenticate(conn *ldap.Conn) error {
	switch c.config.GetAuthMethod() {
	case AuthKerberos:
		if err := kerberosBind(conn, c.config); err != nil {
			return WrapError("kerberos_bind", err)
		}
	default:
		if c.config.Username == "" {
			if err := conn.UnauthenticatedBind(""); err != nil {
				return NewError("anonymous_bind", err)
			}
			return nil
		}
		if err := conn.Bind(c.config.Username, c.config.Password); err != nil {
			return NewError("simple_bind", err)
		}
	}
	return nil
}

func (c *ldapClient) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *ldapClient) checkConnected() error {
	if c.conn == nil {
		return &Error{
			Operation: "check_connection",
			Category:  ErrorCategoryConnection,
			Message:   "not connected to directory",
		}
	}
	return nil
}

func (c *ldapClient) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	return c.search(ctx, req, false)
}

func (c *ldapClient) SearchWithPaging(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	return c.search(ctx, req, true)
}

func (c *ldapClient) search(ctx context.Context, req *SearchRequest, paged bool) (*SearchResult, error) {
	if err := c.checkConnected(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, NewError("search", err)
	}

	timeLimit := int(req.TimeLimit / time.Second)
	if timeLimit == 0 && c.config.Timeout > 0 {
		timeLimit = int(c.config.Timeout / time.Second)
	}

	ldapReq := ldap.NewSearchRequest(
		req.BaseDN,
		searchScope(req.Scope),
		ldap.NeverDerefAliases,
		req.SizeLimit,
		timeLimit,
		false,
		req.Filter,
		req.Attributes,
		nil,
	)

	start := time.Now()
	var result *ldap.SearchResult
	var err error
	if paged {
		result, err = c.conn.SearchWithPaging(ldapReq, defaultPageSize)
	} else {
		result, err = c.conn.Search(ldapReq)
	}
	if err != nil {
		// A size-limit overrun on a capped search still carries the partial
		// result set; the engine caps deliberately.
		if ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) && result != nil {
			err = nil
		} else {
			return nil, NewError("search", err)
		}
	}

	c.log.Trace().
		Str("base_dn", req.BaseDN).
		Str("filter", req.Filter).
		Int("entries", len(result.Entries)).
		Dur("duration", time.Since(start)).
		Msg("search completed")

	return &SearchResult{Entries: convertEntries(result.Entries)}, nil
}

func (c *ldapClient) Add(ctx context.Context, req *AddRequest) error {
	if err := c.checkConnected(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return NewError("add", err)
	}

	ldapReq := ldap.NewAddRequest(req.DN, nil)
	for name, values := range req.Attributes {
		ldapReq.Attribute(name, values)
	}

	if err := c.conn.Add(ldapReq); err != nil {
		derr := NewError("add", err)
		derr.DN = req.DN
		return derr
	}
	return nil
}

func (c *ldapClient) Modify(ctx context.Context, req *ModifyRequest) error {
	if err := c.checkConnected(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return NewError("modify", err)
	}

	ldapReq := ldap.NewModifyRequest(req.DN, nil)
	for name, values := range req.AddAttributes {
		ldapReq.Add(name, values)
	}
	for name, values := range req.ReplaceAttributes {
		ldapReq.Replace(name, values)
	}
	for _, name := range req.DeleteAttributes {
		ldapReq.Delete(name, nil)
	}
	for name, values := range req.DeleteValues {
		ldapReq.Delete(name, values)
	}

	if err := c.conn.Modify(ldapReq); err != nil {
		derr := NewError("modify", err)
		derr.DN = req.DN
		return derr
	}
	return nil
}

func (c *ldapClient) ModifyDN(ctx context.Context, req *ModifyDNRequest) error {
	if err := c.checkConnected(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return NewError("modify_dn", err)
	}

	ldapReq := ldap.NewModifyDNRequest(req.DN, req.NewRDN, req.DeleteOldRDN, req.NewSuperior)
	if err := c.conn.ModifyDN(ldapReq); err != nil {
		derr := NewError("modify_dn", err)
		derr.DN = req.DN
		return derr
	}
	return nil
}

func (c *ldapClient) Delete(ctx context.Context, dn string) error {
	if err := c.checkConnected(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return NewError("delete", err)
	}

	if err := c.conn.Del(ldap.NewDelRequest(dn, nil)); err != nil {
		derr := NewError("delete", err)
		derr.DN = dn
		return derr
	}
	return nil
}

// Ping verifies the directory is reachable by reading the root DSE.
func (c *ldapClient) Ping(ctx context.Context) error {
	_, err := c.Search(ctx, &SearchRequest{
		BaseDN:     "",
		Scope:      ScopeBaseObject,
		Filter:     "(objectClass=*)",
		Attributes: []string{"supportedLDAPVersion"},
		SizeLimit:  1,
	})
	if err != nil {
		return WrapError("ping", err)
	}
	return nil
}

func searchScope(scope SearchScope) int {
	switch scope {
	case ScopeBaseObject:
		return ldap.ScopeBaseObject
	case ScopeSingleLevel:
		return ldap.ScopeSingleLevel
	default:
		return ldap.ScopeWholeSubtree
	}
}

func convertEntries(entries []*ldap.Entry) []*Entry {
	converted := make([]*Entry, 0, len(entries))
	for _, entry := range entries {
		e := &Entry{
			DN:         entry.DN,
			Attributes: make(map[string][]string, len(entry.Attributes)),
			Raw:        make(map[string][][]byte, len(entry.Attributes)),
		}
		for _, attr := range entry.Attributes {
			e.Attributes[attr.Name] = attr.Values
			e.Raw[attr.Name] = attr.ByteValues
		}
		converted = append(converted, e)
	}
	return converted
}
