package job

import (
	"fmt"
	"sort"
	"strings"
)

// Operation names a catalog entry. Operation names are matched
// case-insensitively on input and normalized to their canonical form.
type Operation string

const (
	OpCreateGroup      Operation = "createGroup"
	OpCopyGroup        Operation = "copyGroup"
	OpDeleteGroup      Operation = "deleteGroup"
	OpRenameGroup      Operation = "renameGroup"
	OpMoveGroup        Operation = "moveGroup"
	OpSetGroupScope    Operation = "setGroupScope"
	OpSetGroupCategory Operation = "setGroupCategory"
	OpSetDescription   Operation = "setDescription"
	OpAddMembers       Operation = "addMembers"
	OpRemoveMembers    Operation = "removeMembers"
	OpListMembers      Operation = "listMembers"
)

func (o Operation) String() string {
	return string(o)
}

// Shape describes how the batch executor iterates an operation.
type Shape int

const (
	// ShapeSynthesize creates a new object; there is no target to resolve.
	ShapeSynthesize Shape = iota
	// ShapeSingleAxis applies one mutation per resolved target.
	ShapeSingleAxis
	// ShapeCrossProduct iterates member identities across resolved target
	// groups, one unit of work per (member, group) pair.
	ShapeCrossProduct
	// ShapeReadOnly reads targets without mutating anything.
	ShapeReadOnly
)

// Spec is the static classification of one operation. Destructive operations
// default to dry-run; the engine never mutates under a destructive operation
// unless the job explicitly disables dry-run.
type Spec struct {
	Name          Operation
	Shape         Shape
	Destructive   bool
	DefaultDryRun bool
}

// catalog is consulted once at dispatch time; the default-safe dry-run
// convention lives here rather than in per-handler logic.
var catalog = map[Operation]Spec{
	OpCreateGroup:      {Name: OpCreateGroup, Shape: ShapeSynthesize},
	OpCopyGroup:        {Name: OpCopyGroup, Shape: ShapeSynthesize},
	OpDeleteGroup:      {Name: OpDeleteGroup, Shape: ShapeSingleAxis, Destructive: true, DefaultDryRun: true},
	OpRenameGroup:      {Name: OpRenameGroup, Shape: ShapeSingleAxis, Destructive: true, DefaultDryRun: true},
	OpMoveGroup:        {Name: OpMoveGroup, Shape: ShapeSingleAxis, Destructive: true, DefaultDryRun: true},
	OpSetGroupScope:    {Name: OpSetGroupScope, Shape: ShapeSingleAxis, Destructive: true, DefaultDryRun: true},
	OpSetGroupCategory: {Name: OpSetGroupCategory, Shape: ShapeSingleAxis, Destructive: true, DefaultDryRun: true},
	OpSetDescription:   {Name: OpSetDescription, Shape: ShapeSingleAxis},
	OpAddMembers:       {Name: OpAddMembers, Shape: ShapeCrossProduct},
	OpRemoveMembers:    {Name: OpRemoveMembers, Shape: ShapeCrossProduct, Destructive: true, DefaultDryRun: true},
	OpListMembers:      {Name: OpListMembers, Shape: ShapeReadOnly},
}

// Lookup finds the catalog entry for an operation name, case-insensitively.
func Lookup(name string) (Spec, error) {
	for op, spec := range catalog {
		if strings.EqualFold(string(op), name) {
			return spec, nil
		}
	}
	return Spec{}, fmt.Errorf("unknown operation %q (valid: %s)", name, strings.Join(OperationNames(), ", "))
}

// OperationNames returns the sorted canonical operation names.
func OperationNames() []string {
	names := make([]string, 0, len(catalog))
	for op := range catalog {
		names = append(names, string(op))
	}
	sort.Strings(names)
	return names
}
