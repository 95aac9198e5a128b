package directory

import (
	"context"
	"fmt"

	"github.com/go-ldap/ldap/v3"
)

// MemberClass identifies the directory object class of a group member.
type MemberClass string

const (
	MemberClassUser     MemberClass = "user"
	MemberClassComputer MemberClass = "computer"
	MemberClassGroup    MemberClass = "group"
)

// memberProbeOrder is the fixed resolution order for member identities:
// first match wins, exhaustion is a typed not-found.
var memberProbeOrder = []MemberClass{MemberClassUser, MemberClassComputer, MemberClassGroup}

// Member is a resolved group member of any supported class.
type Member struct {
	Class             MemberClass `json:"class"`
	ObjectGUID        string      `json:"objectGUID"`
	DistinguishedName string      `json:"distinguishedName"`
	SAMAccountName    string      `json:"sAMAccountName"`
	Name              string      `json:"name"`
}

var memberAttributes = []string{"objectGUID", "distinguishedName", "cn", "sAMAccountName", "objectClass"}

func (s *Service) ResolveTypedIdentity(ctx context.Context, identity string) (*Member, error) {
	if LooksLikeDN(identity) {
		return s.resolveMemberByDN(ctx, identity)
	}

	for _, class := range memberProbeOrder {
		member, err := s.probeMember(ctx, class, identity)
		if err != nil {
			return nil, WrapError("resolve_typed_identity", err)
		}
		if member != nil {
			return member, nil
		}
	}

	return nil, s.notFound("resolve_typed_identity", identity)
}

// probeMember searches for an identity constrained to one object class.
// Returns (nil, nil) when the class yields no match.
func (s *Service) probeMember(ctx context.Context, class MemberClass, identity string) (*Member, error) {
	escaped := ldap.EscapeFilter(identity)

	var filter string
	switch class {
	case MemberClassUser:
		// Computers carry objectClass=user too; exclude them on the user probe.
		filter = fmt.Sprintf("(&(objectClass=user)(!(objectClass=computer))(|(sAMAccountName=%s)(userPrincipalName=%s)(cn=%s)))", escaped, escaped, escaped)
	case MemberClassComputer:
		// Machine accounts use a trailing $ in sAMAccountName.
		filter = fmt.Sprintf("(&(objectClass=computer)(|(sAMAccountName=%s$)(sAMAccountName=%s)(cn=%s)))", escaped, escaped, escaped)
	case MemberClassGroup:
		filter = fmt.Sprintf("(&(objectClass=group)(|(sAMAccountName=%s)(cn=%s)))", escaped, escaped)
	default:
		return nil, fmt.Errorf("unsupported member class %q", class)
	}

	result, err := s.client.Search(ctx, &SearchRequest{
		BaseDN:     s.baseDN,
		Scope:      ScopeWholeSubtree,
		Filter:     filter,
		Attributes: memberAttributes,
		SizeLimit:  1,
		TimeLimit:  s.timeout,
	})
	if err != nil {
		return nil, err
	}
	if len(result.Entries) == 0 {
		return nil, nil
	}

	return entryToMember(result.Entries[0], class), nil
}

func (s *Service) resolveMemberByDN(ctx context.Context, dn string) (*Member, error) {
	result, err := s.client.Search(ctx, &SearchRequest{
		BaseDN:     dn,
		Scope:      ScopeBaseObject,
		Filter:     "(objectClass=*)",
		Attributes: memberAttributes,
		SizeLimit:  1,
		TimeLimit:  s.timeout,
	})
	if err != nil {
		if IsNotFoundError(err) {
			return nil, s.notFound("resolve_typed_identity", dn)
		}
		return nil, WrapError("resolve_typed_identity", err)
	}
	if len(result.Entries) == 0 {
		return nil, s.notFound("resolve_typed_identity", dn)
	}

	entry := result.Entries[0]
	return entryToMember(entry, classifyEntry(entry)), nil
}

func (s *Service) ListMembers(ctx context.Context, groupDN string, recursive bool) ([]*Member, error) {
	// LDAP_MATCHING_RULE_IN_CHAIN walks nested group membership server-side.
	matchRule := "memberOf"
	if recursive {
		matchRule = "memberOf:1.2.840.113556.1.4.1941:"
	}

	result, err := s.client.SearchWithPaging(ctx, &SearchRequest{
		BaseDN:     s.baseDN,
		Scope:      ScopeWholeSubtree,
		Filter:     fmt.Sprintf("(%s=%s)", matchRule, ldap.EscapeFilter(groupDN)),
		Attributes: memberAttributes,
		TimeLimit:  s.timeout,
	})
	if err != nil {
		return nil, WrapError("list_members", err)
	}

	members := make([]*Member, 0, len(result.Entries))
	for _, entry := range result.Entries {
		members = append(members, entryToMember(entry, classifyEntry(entry)))
	}

	return members, nil
}

// classifyEntry maps an entry's objectClass values onto a member class,
// honoring the user/computer/group probe order.
func classifyEntry(entry *Entry) MemberClass {
	classes := make(map[string]bool)
	for _, c := range entry.GetAttributeValues("objectClass") {
		classes[c] = true
	}

	switch {
	case classes["computer"]:
		return MemberClassComputer
	case classes["user"]:
		return MemberClassUser
	case classes["group"]:
		return MemberClassGroup
	default:
		return MemberClassUser
	}
}

func entryToMember(entry *Entry, class MemberClass) *Member {
	return &Member{
		Class:             class,
		ObjectGUID:        ExtractGUID(entry),
		DistinguishedName: entry.DN,
		SAMAccountName:    entry.GetAttributeValue("sAMAccountName"),
		Name:              entry.GetAttributeValue("cn"),
	}
}
