package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateGroupType(t *testing.T) {
	tests := []struct {
		name     string
		scope    GroupScope
		category GroupCategory
		expected int32
	}{
		{
			name:     "global security",
			scope:    GroupScopeGlobal,
			category: GroupCategorySecurity,
			expected: -2147483646,
		},
		{
			name:     "universal security",
			scope:    GroupScopeUniversal,
			category: GroupCategorySecurity,
			expected: -2147483640,
		},
		{
			name:     "domain local security",
			scope:    GroupScopeDomainLocal,
			category: GroupCategorySecurity,
			expected: -2147483644,
		},
		{
			name:     "global distribution",
			scope:    GroupScopeGlobal,
			category: GroupCategoryDistribution,
			expected: 2,
		},
		{
			name:     "universal distribution",
			scope:    GroupScopeUniversal,
			category: GroupCategoryDistribution,
			expected: 8,
		},
		{
			name:     "domain local distribution",
			scope:    GroupScopeDomainLocal,
			category: GroupCategoryDistribution,
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CalculateGroupType(tt.scope, tt.category))
		})
	}
}

func TestParseGroupType_RoundTrip(t *testing.T) {
	scopes := []GroupScope{GroupScopeGlobal, GroupScopeUniversal, GroupScopeDomainLocal}
	categories := []GroupCategory{GroupCategorySecurity, GroupCategoryDistribution}

	for _, scope := range scopes {
		for _, category := range categories {
			gt := CalculateGroupType(scope, category)
			gotScope, gotCategory := ParseGroupType(gt)
			assert.Equal(t, scope, gotScope)
			assert.Equal(t, category, gotCategory)
		}
	}
}

func TestValidateScopeChange(t *testing.T) {
	tests := []struct {
		name    string
		current GroupScope
		next    GroupScope
		wantErr bool
	}{
		{name: "same scope", current: GroupScopeGlobal, next: GroupScopeGlobal},
		{name: "global to universal", current: GroupScopeGlobal, next: GroupScopeUniversal},
		{name: "universal to global", current: GroupScopeUniversal, next: GroupScopeGlobal},
		{name: "universal to domain local", current: GroupScopeUniversal, next: GroupScopeDomainLocal},
		{name: "domain local to universal", current: GroupScopeDomainLocal, next: GroupScopeUniversal},
		{name: "global to domain local forbidden", current: GroupScopeGlobal, next: GroupScopeDomainLocal, wantErr: true},
		{name: "domain local to global forbidden", current: GroupScopeDomainLocal, next: GroupScopeGlobal, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScopeChange(tt.current, tt.next)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "via Universal")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGroup_HasMember(t *testing.T) {
	g := &Group{MemberDNs: []string{
		"CN=Alice,OU=Users,DC=example,DC=com",
		"CN=Bob,OU=Users,DC=example,DC=com",
	}}

	assert.True(t, g.HasMember("CN=Alice,OU=Users,DC=example,DC=com"))
	assert.True(t, g.HasMember("cn=alice,ou=users,dc=example,dc=com"))
	assert.False(t, g.HasMember("CN=Carol,OU=Users,DC=example,DC=com"))
}

func TestEntryToGroup(t *testing.T) {
	entry := &Entry{
		DN: "CN=Engineering,OU=Groups,DC=example,DC=com",
		Attributes: map[string][]string{
			"cn":             {"Engineering"},
			"sAMAccountName": {"engineering"},
			"description":    {"Engineering department"},
			"groupType":      {"-2147483646"},
			"member": {
				"CN=Alice,OU=Users,DC=example,DC=com",
			},
		},
	}

	group, err := entryToGroup(entry)
	require.NoError(t, err)

	assert.Equal(t, "Engineering", group.Name)
	assert.Equal(t, "engineering", group.SAMAccountName)
	assert.Equal(t, GroupScopeGlobal, group.Scope)
	assert.Equal(t, GroupCategorySecurity, group.Category)
	assert.Equal(t, "OU=Groups,DC=example,DC=com", group.Container)
	assert.Len(t, group.MemberDNs, 1)
}

func TestEntryToGroup_NilEntry(t *testing.T) {
	_, err := entryToGroup(nil)
	require.Error(t, err)
}
