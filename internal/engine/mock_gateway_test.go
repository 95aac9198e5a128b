package engine

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/isometry/groupops/internal/directory"
	"github.com/isometry/groupops/internal/report"
)

// mockGateway implements directory.Gateway for testing the engine.
type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockGateway) ResolveByKey(ctx context.Context, identity string) (*directory.Group, error) {
	args := m.Called(ctx, identity)
	var group *directory.Group
	if v := args.Get(0); v != nil {
		group = v.(*directory.Group)
	}
	return group, args.Error(1)
}

func (m *mockGateway) SearchByName(ctx context.Context, name string) ([]*directory.Group, error) {
	args := m.Called(ctx, name)
	var groups []*directory.Group
	if v := args.Get(0); v != nil {
		groups = v.([]*directory.Group)
	}
	return groups, args.Error(1)
}

func (m *mockGateway) CreateGroup(ctx context.Context, spec *directory.GroupSpec) (*directory.Group, error) {
	args := m.Called(ctx, spec)
	var group *directory.Group
	if v := args.Get(0); v != nil {
		group = v.(*directory.Group)
	}
	return group, args.Error(1)
}

func (m *mockGateway) DeleteObject(ctx context.Context, dn string) error {
	args := m.Called(ctx, dn)
	return args.Error(0)
}

func (m *mockGateway) RenameObject(ctx context.Context, dn, newName string) error {
	args := m.Called(ctx, dn, newName)
	return args.Error(0)
}

func (m *mockGateway) MoveObject(ctx context.Context, dn, newParentDN string) error {
	args := m.Called(ctx, dn, newParentDN)
	return args.Error(0)
}

func (m *mockGateway) SetAttributes(ctx context.Context, dn string, attrs map[string][]string) error {
	args := m.Called(ctx, dn, attrs)
	return args.Error(0)
}

func (m *mockGateway) ClearAttributes(ctx context.Context, dn string, names []string) error {
	args := m.Called(ctx, dn, names)
	return args.Error(0)
}

func (m *mockGateway) AddMember(ctx context.Context, groupDN, memberDN string) error {
	args := m.Called(ctx, groupDN, memberDN)
	return args.Error(0)
}

func (m *mockGateway) RemoveMember(ctx context.Context, groupDN, memberDN string) error {
	args := m.Called(ctx, groupDN, memberDN)
	return args.Error(0)
}

func (m *mockGateway) ListMembers(ctx context.Context, groupDN string, recursive bool) ([]*directory.Member, error) {
	args := m.Called(ctx, groupDN, recursive)
	var members []*directory.Member
	if v := args.Get(0); v != nil {
		members = v.([]*directory.Member)
	}
	return members, args.Error(1)
}

func (m *mockGateway) ResolveTypedIdentity(ctx context.Context, identity string) (*directory.Member, error) {
	args := m.Called(ctx, identity)
	var member *directory.Member
	if v := args.Get(0); v != nil {
		member = v.(*directory.Member)
	}
	return member, args.Error(1)
}

// notFoundErr builds a not_found categorized error the way the gateway does.
func notFoundErr(identity string) error {
	return &directory.Error{
		Operation: "resolve_by_key",
		Category:  directory.ErrorCategoryNotFound,
		Message:   "no object found for " + identity,
	}
}

// directoryMemberFixture is a resolved user member shared across tests.
var directoryMemberFixture = directory.Member{
	Class:             directory.MemberClassUser,
	ObjectGUID:        "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
	DistinguishedName: "CN=Alice,OU=Users,DC=example,DC=com",
	SAMAccountName:    "alice",
	Name:              "Alice",
}

// testGroup builds a resolved group fixture.
func testGroup(name, container string) *directory.Group {
	return &directory.Group{
		ObjectGUID:        "11111111-2222-3333-4444-555555555555",
		DistinguishedName: "CN=" + name + "," + container,
		Name:              name,
		SAMAccountName:    name,
		Scope:             directory.GroupScopeGlobal,
		Category:          directory.GroupCategorySecurity,
		Container:         container,
	}
}

// nopEmitter discards all protocol output.
type nopEmitter struct{}

func (nopEmitter) Progress(report.Progress)    {}
func (nopEmitter) Result(*report.Result) error { return nil }
