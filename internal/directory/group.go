package directory

import (
	"fmt"
	"strconv"
)

// GroupScope represents the scope of an Active Directory group.
type GroupScope string

const (
	GroupScopeGlobal      GroupScope = "Global"
	GroupScopeUniversal   GroupScope = "Universal"
	GroupScopeDomainLocal GroupScope = "DomainLocal"
)

func (gs GroupScope) String() string {
	return string(gs)
}

// GroupCategory represents the category of an Active Directory group.
type GroupCategory string

const (
	GroupCategorySecurity     GroupCategory = "Security"
	GroupCategoryDistribution GroupCategory = "Distribution"
)

func (gc GroupCategory) String() string {
	return string(gc)
}

// Active Directory groupType bit flags.
const (
	GroupTypeFlagGlobal      int32 = 0x00000002 // ADS_GROUP_TYPE_GLOBAL_GROUP
	GroupTypeFlagDomainLocal int32 = 0x00000004 // ADS_GROUP_TYPE_DOMAIN_LOCAL_GROUP
	GroupTypeFlagUniversal   int32 = 0x00000008 // ADS_GROUP_TYPE_UNIVERSAL_GROUP
	GroupTypeFlagSecurity    int32 = -2147483648 // ADS_GROUP_TYPE_SECURITY_ENABLED
)

// Group represents an Active Directory group.
type Group struct {
	ObjectGUID        string        `json:"objectGUID"`
	DistinguishedName string        `json:"distinguishedName"`
	ObjectSid         string        `json:"objectSid,omitempty"`
	Name              string        `json:"name"` // cn
	SAMAccountName    string        `json:"sAMAccountName"`
	Description       string        `json:"description,omitempty"`
	Scope             GroupScope    `json:"scope"`
	Category          GroupCategory `json:"category"`
	GroupType         int32         `json:"groupType"`
	Container         string        `json:"container"`
	MemberDNs         []string      `json:"memberDNs,omitempty"`
}

// HasMember reports whether the given DN is a direct member of the group.
func (g *Group) HasMember(dn string) bool {
	for _, m := range g.MemberDNs {
		if EqualDN(m, dn) {
			return true
		}
	}
	return false
}

// GroupSpec describes a group to be created.
type GroupSpec struct {
	Name           string
	SAMAccountName string
	Container      string
	Description    string
	Scope          GroupScope
	Category       GroupCategory
}

// CalculateGroupType calculates the AD groupType value from scope and category.
func CalculateGroupType(scope GroupScope, category GroupCategory) int32 {
	var groupType int32

	switch scope {
	case GroupScopeDomainLocal:
		groupType |= GroupTypeFlagDomainLocal
	case GroupScopeUniversal:
		groupType |= GroupTypeFlagUniversal
	default:
		groupType |= GroupTypeFlagGlobal
	}

	if category == GroupCategorySecurity {
		groupType |= GroupTypeFlagSecurity
	}

	return groupType
}

// ParseGroupType extracts scope and category from an AD groupType value.
func ParseGroupType(groupType int32) (GroupScope, GroupCategory) {
	var scope GroupScope
	switch {
	case groupType&GroupTypeFlagGlobal != 0:
		scope = GroupScopeGlobal
	case groupType&GroupTypeFlagDomainLocal != 0:
		scope = GroupScopeDomainLocal
	case groupType&GroupTypeFlagUniversal != 0:
		scope = GroupScopeUniversal
	default:
		scope = GroupScopeGlobal
	}

	category := GroupCategoryDistribution
	if groupType&GroupTypeFlagSecurity != 0 {
		category = GroupCategorySecurity
	}

	return scope, category
}

// ValidateScopeChange checks whether a scope conversion is allowed by AD.
// Direct Global <-> DomainLocal conversions must pass through Universal.
func ValidateScopeChange(current, next GroupScope) error {
	if current == next {
		return nil
	}

	if (current == GroupScopeGlobal && next == GroupScopeDomainLocal) ||
		(current == GroupScopeDomainLocal && next == GroupScopeGlobal) {
		return fmt.Errorf("direct conversion from %s to %s is not allowed, convert via Universal scope first", current, next)
	}

	return nil
}

// groupAttributes is the attribute set fetched for group objects.
var groupAttributes = []string{
	"objectGUID", "distinguishedName", "objectSid", "cn", "sAMAccountName",
	"description", "groupType", "member",
}

// entryToGroup converts an LDAP entry to a Group.
func entryToGroup(entry *Entry) (*Group, error) {
	if entry == nil {
		return nil, fmt.Errorf("entry cannot be nil")
	}

	group := &Group{
		ObjectGUID:        ExtractGUID(entry),
		DistinguishedName: entry.DN,
		ObjectSid:         ExtractSID(entry),
		Name:              entry.GetAttributeValue("cn"),
		SAMAccountName:    entry.GetAttributeValue("sAMAccountName"),
		Description:       entry.GetAttributeValue("description"),
		Container:         ParentContainer(entry.DN),
		MemberDNs:         entry.GetAttributeValues("member"),
	}

	if s := entry.GetAttributeValue("groupType"); s != "" {
		if gt, err := strconv.ParseInt(s, 10, 32); err == nil {
			group.GroupType = int32(gt)
			group.Scope, group.Category = ParseGroupType(group.GroupType)
		}
	}

	return group, nil
}
