package directory

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog"
)

// Gateway exposes the directory operations the batch engine consumes.
// Implementations are expected to be slow and fallible; callers own isolation
// of per-item failures, the gateway owns nothing beyond the single call.
type Gateway interface {
	// Ping verifies the directory is reachable.
	Ping(ctx context.Context) error

	// ResolveByKey looks up a group by unique key: DN, objectGUID, or
	// sAMAccountName. A missing object yields a not_found categorized error.
	ResolveByKey(ctx context.Context, identity string) (*Group, error)

	// SearchByName searches groups by common name. 0, 1, or many results.
	SearchByName(ctx context.Context, name string) ([]*Group, error)

	// CreateGroup creates a new group and returns it as stored.
	CreateGroup(ctx context.Context, spec *GroupSpec) (*Group, error)

	// DeleteObject removes the object at dn.
	DeleteObject(ctx context.Context, dn string) error

	// RenameObject changes the leading RDN of the object at dn.
	RenameObject(ctx context.Context, dn, newName string) error

	// MoveObject relocates the object at dn under a new parent container.
	MoveObject(ctx context.Context, dn, newParentDN string) error

	// SetAttributes replaces attribute values on the object at dn.
	SetAttributes(ctx context.Context, dn string, attrs map[string][]string) error

	// ClearAttributes removes the named attributes from the object at dn.
	ClearAttributes(ctx context.Context, dn string, names []string) error

	// AddMember adds memberDN to the group at groupDN.
	AddMember(ctx context.Context, groupDN, memberDN string) error

	// RemoveMember removes memberDN from the group at groupDN.
	RemoveMember(ctx context.Context, groupDN, memberDN string) error

	// ListMembers returns the members of the group at groupDN, direct or
	// flattened through nested groups.
	ListMembers(ctx context.Context, groupDN string, recursive bool) ([]*Member, error)

	// ResolveTypedIdentity resolves a member identity probing user, computer,
	// then group object classes; first match wins.
	ResolveTypedIdentity(ctx context.Context, identity string) (*Member, error)
}

// Service implements Gateway over a low-level LDAP client.
type Service struct {
	client  Client
	baseDN  string
	timeout time.Duration
	log     zerolog.Logger
}

// NewService creates a directory gateway bound to a base DN.
func NewService(client Client, baseDN string, log zerolog.Logger) *Service {
	return &Service{
		client:  client,
		baseDN:  baseDN,
		timeout: 30 * time.Second,
		log:     log.With().Str("component", "gateway").Logger(),
	}
}

// SetTimeout sets the per-operation search timeout.
func (s *Service) SetTimeout(timeout time.Duration) {
	s.timeout = timeout
}

func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *Service) ResolveByKey(ctx context.Context, identity string) (*Group, error) {
	var req *SearchRequest

	switch {
	case LooksLikeDN(identity):
		req = &SearchRequest{
			BaseDN:     identity,
			Scope:      ScopeBaseObject,
			Filter:     "(objectClass=group)",
			Attributes: groupAttributes,
			SizeLimit:  1,
			TimeLimit:  s.timeout,
		}
	case IsValidGUID(identity):
		filter, err := GUIDSearchFilter(identity)
		if err != nil {
			return nil, WrapError("resolve_by_key", err)
		}
		req = &SearchRequest{
			BaseDN:     s.baseDN,
			Scope:      ScopeWholeSubtree,
			Filter:     fmt.Sprintf("(&(objectClass=group)%s)", filter),
			Attributes: groupAttributes,
			SizeLimit:  1,
			TimeLimit:  s.timeout,
		}
	default:
		req = &SearchRequest{
			BaseDN:     s.baseDN,
			Scope:      ScopeWholeSubtree,
			Filter:     fmt.Sprintf("(&(objectClass=group)(sAMAccountName=%s))", ldap.EscapeFilter(identity)),
			Attributes: groupAttributes,
			SizeLimit:  1,
			TimeLimit:  s.timeout,
		}
	}

	result, err := s.client.Search(ctx, req)
	if err != nil {
		// A base-object search for a nonexistent DN fails with noSuchObject
		// rather than returning zero entries.
		if IsNotFoundError(err) {
			return nil, s.notFound("resolve_by_key", identity)
		}
		return nil, WrapError("resolve_by_key", err)
	}

	if len(result.Entries) == 0 {
		return nil, s.notFound("resolve_by_key", identity)
	}

	return entryToGroup(result.Entries[0])
}

func (s *Service) SearchByName(ctx context.Context, name string) ([]*Group, error) {
	result, err := s.client.SearchWithPaging(ctx, &SearchRequest{
		BaseDN:     s.baseDN,
		Scope:      ScopeWholeSubtree,
		Filter:     fmt.Sprintf("(&(objectClass=group)(cn=%s))", ldap.EscapeFilter(name)),
		Attributes: groupAttributes,
		TimeLimit:  s.timeout,
	})
	if err != nil {
		return nil, WrapError("search_by_name", err)
	}

	groups := make([]*Group, 0, len(result.Entries))
	for _, entry := range result.Entries {
		if entry == nil {
			continue
		}
		group, err := entryToGroup(entry)
		if err != nil {
			s.log.Warn().Str("dn", entry.DN).Err(err).Msg("skipping malformed group entry")
			continue
		}
		groups = append(groups, group)
	}

	return groups, nil
}

func (s *Service) CreateGroup(ctx context.Context, spec *GroupSpec) (*Group, error) {
	if spec == nil {
		return nil, fmt.Errorf("group spec cannot be nil")
	}
	if spec.Name == "" || spec.Container == "" {
		return nil, fmt.Errorf("group name and container are required")
	}

	sam := spec.SAMAccountName
	if sam == "" {
		sam = spec.Name
	}

	groupDN := fmt.Sprintf("CN=%s,%s", EscapeDNValue(spec.Name), spec.Container)
	groupType := CalculateGroupType(spec.Scope, spec.Category)

	attributes := map[string][]string{
		"objectClass":    {"top", "group"},
		"cn":             {spec.Name},
		"sAMAccountName": {sam},
		"groupType":      {strconv.FormatInt(int64(groupType), 10)},
	}
	if spec.Description != "" {
		attributes["description"] = []string{spec.Description}
	}

	if err := s.client.Add(ctx, &AddRequest{DN: groupDN, Attributes: attributes}); err != nil {
		return nil, WrapError("create_group", err)
	}

	created, err := s.ResolveByKey(ctx, groupDN)
	if err != nil {
		return nil, WrapError("retrieve_created_group", err)
	}
	return created, nil
}

func (s *Service) DeleteObject(ctx context.Context, dn string) error {
	return WrapError("delete_object", s.client.Delete(ctx, dn))
}

func (s *Service) RenameObject(ctx context.Context, dn, newName string) error {
	if newName == "" {
		return fmt.Errorf("new name cannot be empty")
	}

	return WrapError("rename_object", s.client.ModifyDN(ctx, &ModifyDNRequest{
		DN:           dn,
		NewRDN:       fmt.Sprintf("cn=%s", EscapeDNValue(newName)),
		DeleteOldRDN: true,
	}))
}

func (s *Service) MoveObject(ctx context.Context, dn, newParentDN string) error {
	rdn := LeadingRDN(dn)
	if rdn == "" {
		return fmt.Errorf("cannot determine RDN of %q", dn)
	}

	return WrapError("move_object", s.client.ModifyDN(ctx, &ModifyDNRequest{
		DN:           dn,
		NewRDN:       rdn,
		DeleteOldRDN: true,
		NewSuperior:  newParentDN,
	}))
}

func (s *Service) SetAttributes(ctx context.Context, dn string, attrs map[string][]string) error {
	return WrapError("set_attributes", s.client.Modify(ctx, &ModifyRequest{
		DN:                dn,
		ReplaceAttributes: attrs,
	}))
}

func (s *Service) ClearAttributes(ctx context.Context, dn string, names []string) error {
	return WrapError("clear_attributes", s.client.Modify(ctx, &ModifyRequest{
		DN:               dn,
		DeleteAttributes: names,
	}))
}

func (s *Service) AddMember(ctx context.Context, groupDN, memberDN string) error {
	return WrapError("add_member", s.client.Modify(ctx, &ModifyRequest{
		DN:            groupDN,
		AddAttributes: map[string][]string{"member": {memberDN}},
	}))
}

func (s *Service) RemoveMember(ctx context.Context, groupDN, memberDN string) error {
	return WrapError("remove_member", s.client.Modify(ctx, &ModifyRequest{
		DN:           groupDN,
		DeleteValues: map[string][]string{"member": {memberDN}},
	}))
}

func (s *Service) notFound(operation, identity string) *Error {
	return &Error{
		Operation: operation,
		Category:  ErrorCategoryNotFound,
		Message:   fmt.Sprintf("no object found for %q", identity),
	}
}
