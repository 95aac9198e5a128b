package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/isometry/groupops/internal/directory"
	"github.com/isometry/groupops/internal/job"
	"github.com/isometry/groupops/internal/report"
)

// handlerFunc executes one catalog operation: rows in processing order,
// affected-target identifiers, or a job-fatal error (gate or precondition).
type handlerFunc func(d *Driver, ctx context.Context, j *job.Job, dryRun bool, span Span) ([]OutcomeRow, []report.AffectedTarget, error)

var handlers = map[job.Operation]handlerFunc{
	job.OpCreateGroup:      (*Driver).handleCreateGroup,
	job.OpCopyGroup:        (*Driver).handleCopyGroup,
	job.OpDeleteGroup:      (*Driver).handleDeleteGroup,
	job.OpRenameGroup:      (*Driver).handleRenameGroup,
	job.OpMoveGroup:        (*Driver).handleMoveGroup,
	job.OpSetGroupScope:    (*Driver).handleSetGroupScope,
	job.OpSetGroupCategory: (*Driver).handleSetGroupCategory,
	job.OpSetDescription:   (*Driver).handleSetDescription,
	job.OpAddMembers:       (*Driver).handleAddMembers,
	job.OpRemoveMembers:    (*Driver).handleRemoveMembers,
	job.OpListMembers:      (*Driver).handleListMembers,
}

// affectedFromTargets collects identifiers for every target that resolved.
func affectedFromTargets(targets []ResolvedTarget) []report.AffectedTarget {
	affected := make([]report.AffectedTarget, 0, len(targets))
	for _, t := range targets {
		a := report.AffectedTarget{Identity: t.Identity}
		if t.Object != nil {
			a.ObjectGUID = t.Object.ObjectGUID
			a.DistinguishedName = t.Object.DistinguishedName
		}
		affected = append(affected, a)
	}
	return affected
}

func (d *Driver) handleCreateGroup(ctx context.Context, j *job.Job, dryRun bool, span Span) ([]OutcomeRow, []report.AffectedTarget, error) {
	spec := &directory.GroupSpec{
		Name:           j.NewName,
		SAMAccountName: j.SAMAccount,
		Container:      j.TargetPath,
		Description:    j.Description,
		Scope:          directory.GroupScope(j.NewScope),
		Category:       directory.GroupCategory(j.NewCategory),
	}

	var rows []OutcomeRow
	affected := []report.AffectedTarget{{Identity: j.NewName}}

	if dryRun {
		rows = d.executor.appendRow(rows, j.NewName, "",
			WouldDo("would create %s %s group %q in %s", spec.Scope, spec.Category, spec.Name, spec.Container))
		span.Emit(1, "dry-run complete")
		return rows, affected, nil
	}

	span.Emit(0.5, fmt.Sprintf("creating group %s", spec.Name))
	created, err := d.gw.CreateGroup(ctx, spec)
	if err != nil {
		rows = d.executor.appendRow(rows, j.NewName, "", Failed(err))
		return rows, affected, nil
	}

	rows = d.executor.appendRow(rows, created.Name, "", Succeeded("created %s", created.DistinguishedName))
	affected[0].ObjectGUID = created.ObjectGUID
	affected[0].DistinguishedName = created.DistinguishedName
	span.Emit(1, "group created")
	return rows, affected, nil
}

func (d *Driver) handleCopyGroup(ctx context.Context, j *job.Job, dryRun bool, span Span) ([]OutcomeRow, []report.AffectedTarget, error) {
	span.Emit(0, fmt.Sprintf("resolving source group %s", j.SourceGroup))
	source := d.resolver.Resolve(ctx, j.SourceGroup)
	if !source.Success {
		return nil, nil, fmt.Errorf("source group %s could not be resolved: %s", j.SourceGroup, source.Err)
	}

	container := j.TargetPath
	if container == "" {
		container = source.Object.Container
	}

	spec := &directory.GroupSpec{
		Name:           j.NewName,
		SAMAccountName: j.SAMAccount,
		Container:      container,
		Description:    source.Object.Description,
		Scope:          source.Object.Scope,
		Category:       source.Object.Category,
	}
	if j.Description != "" {
		spec.Description = j.Description
	}

	var rows []OutcomeRow
	affected := []report.AffectedTarget{{Identity: j.NewName}}

	if dryRun {
		rows = d.executor.appendRow(rows, j.NewName, "",
			WouldDo("would copy %s to new %s %s group %q in %s",
				source.Object.Name, spec.Scope, spec.Category, spec.Name, container))
		if j.CopyMembers {
			rows = d.copyMembersPreview(ctx, rows, source.Object, j.NewName)
		}
		span.Emit(1, "dry-run complete")
		return rows, affected, nil
	}

	span.Emit(0.3, fmt.Sprintf("creating group %s", spec.Name))
	created, err := d.gw.CreateGroup(ctx, spec)
	if err != nil {
		rows = d.executor.appendRow(rows, j.NewName, "", Failed(err))
		return rows, affected, nil
	}

	rows = d.executor.appendRow(rows, created.Name, "",
		Succeeded("copied %s to %s", source.Object.Name, created.DistinguishedName))
	affected[0].ObjectGUID = created.ObjectGUID
	affected[0].DistinguishedName = created.DistinguishedName

	if j.CopyMembers {
		rows = d.copyMembers(ctx, rows, source.Object, created, span.Sub(0.4, 1))
	}

	span.Emit(1, "copy complete")
	return rows, affected, nil
}

// copyMembers re-adds each direct member of the source group to the copy, one
// unit of work per member.
func (d *Driver) copyMembers(ctx context.Context, rows []OutcomeRow, source *directory.Group, created *directory.Group, span Span) []OutcomeRow {
	members, err := d.gw.ListMembers(ctx, source.DistinguishedName, false)
	if err != nil {
		return d.executor.appendRow(rows, source.Name, created.Name, Failed(err))
	}

	for i, m := range members {
		span.Step(i, len(members), fmt.Sprintf("copying member %s", m.SAMAccountName))
		if err := d.gw.AddMember(ctx, created.DistinguishedName, m.DistinguishedName); err != nil {
			rows = d.executor.appendRow(rows, memberLabel(m), created.Name, Failed(err))
			continue
		}
		rows = d.executor.appendRow(rows, memberLabel(m), created.Name,
			Succeeded("added %s to %s", m.DistinguishedName, created.Name))
	}
	return rows
}

func (d *Driver) copyMembersPreview(ctx context.Context, rows []OutcomeRow, source *directory.Group, newName string) []OutcomeRow {
	members, err := d.gw.ListMembers(ctx, source.DistinguishedName, false)
	if err != nil {
		return d.executor.appendRow(rows, source.Name, newName, Failed(err))
	}
	for _, m := range members {
		rows = d.executor.appendRow(rows, memberLabel(m), newName,
			WouldDo("would add %s to %s", m.DistinguishedName, newName))
	}
	return rows
}

func (d *Driver) handleDeleteGroup(ctx context.Context, j *job.Job, dryRun bool, span Span) ([]OutcomeRow, []report.AffectedTarget, error) {
	targets := d.resolver.ResolveMany(ctx, j.TargetGroups, span.Sub(0, 0.3))

	rows := d.executor.RunSingle(ctx, targets, span.Sub(0.3, 1), func(ctx context.Context, t *ResolvedTarget) (Outcome, error) {
		if dryRun {
			return WouldDo("would delete group %s", t.Object.DistinguishedName), nil
		}
		if err := d.gw.DeleteObject(ctx, t.Object.DistinguishedName); err != nil {
			return Outcome{}, err
		}
		return Succeeded("deleted %s", t.Object.DistinguishedName), nil
	})

	return rows, affectedFromTargets(targets), nil
}

func (d *Driver) handleRenameGroup(ctx context.Context, j *job.Job, dryRun bool, span Span) ([]OutcomeRow, []report.AffectedTarget, error) {
	targets := d.resolver.ResolveMany(ctx, j.TargetGroups, span.Sub(0, 0.3))

	rows := d.executor.RunSingle(ctx, targets, span.Sub(0.3, 1), func(ctx context.Context, t *ResolvedTarget) (Outcome, error) {
		if t.Object.Name == j.NewName {
			return Skipped("group is already named %q", j.NewName), nil
		}
		if dryRun {
			return WouldDo("would rename %s to %q", t.Object.Name, j.NewName), nil
		}
		if err := d.gw.RenameObject(ctx, t.Object.DistinguishedName, j.NewName); err != nil {
			return Outcome{}, err
		}
		return Succeeded("renamed %s to %q", t.Object.Name, j.NewName), nil
	})

	return rows, affectedFromTargets(targets), nil
}

func (d *Driver) handleMoveGroup(ctx context.Context, j *job.Job, dryRun bool, span Span) ([]OutcomeRow, []report.AffectedTarget, error) {
	targets := d.resolver.ResolveMany(ctx, j.TargetGroups, span.Sub(0, 0.3))

	rows := d.executor.RunSingle(ctx, targets, span.Sub(0.3, 1), func(ctx context.Context, t *ResolvedTarget) (Outcome, error) {
		if directory.EqualDN(t.Object.Container, j.TargetPath) {
			return Skipped("%s is already located in %s", t.Object.Name, j.TargetPath), nil
		}
		if dryRun {
			return WouldDo("would move %s to %s", t.Object.Name, j.TargetPath), nil
		}
		if err := d.gw.MoveObject(ctx, t.Object.DistinguishedName, j.TargetPath); err != nil {
			return Outcome{}, err
		}
		return Succeeded("moved %s to %s", t.Object.Name, j.TargetPath), nil
	})

	return rows, affectedFromTargets(targets), nil
}

func (d *Driver) handleSetGroupScope(ctx context.Context, j *job.Job, dryRun bool, span Span) ([]OutcomeRow, []report.AffectedTarget, error) {
	want := directory.GroupScope(j.NewScope)
	targets := d.resolver.ResolveMany(ctx, j.TargetGroups, span.Sub(0, 0.3))

	rows := d.executor.RunSingle(ctx, targets, span.Sub(0.3, 1), func(ctx context.Context, t *ResolvedTarget) (Outcome, error) {
		if t.Object.Scope == want {
			return Skipped("scope of %s is already %s", t.Object.Name, want), nil
		}
		if err := directory.ValidateScopeChange(t.Object.Scope, want); err != nil {
			return Outcome{}, err
		}
		if dryRun {
			return WouldDo("would change scope of %s from %s to %s", t.Object.Name, t.Object.Scope, want), nil
		}

		groupType := directory.CalculateGroupType(want, t.Object.Category)
		err := d.gw.SetAttributes(ctx, t.Object.DistinguishedName, map[string][]string{
			"groupType": {strconv.FormatInt(int64(groupType), 10)},
		})
		if err != nil {
			return Outcome{}, err
		}
		return Succeeded("changed scope of %s from %s to %s", t.Object.Name, t.Object.Scope, want), nil
	})

	return rows, affectedFromTargets(targets), nil
}

func (d *Driver) handleSetGroupCategory(ctx context.Context, j *job.Job, dryRun bool, span Span) ([]OutcomeRow, []report.AffectedTarget, error) {
	want := directory.GroupCategory(j.NewCategory)
	targets := d.resolver.ResolveMany(ctx, j.TargetGroups, span.Sub(0, 0.3))

	rows := d.executor.RunSingle(ctx, targets, span.Sub(0.3, 1), func(ctx context.Context, t *ResolvedTarget) (Outcome, error) {
		if t.Object.Category == want {
			return Skipped("category of %s is already %s", t.Object.Name, want), nil
		}
		if dryRun {
			return WouldDo("would change category of %s from %s to %s", t.Object.Name, t.Object.Category, want), nil
		}

		groupType := directory.CalculateGroupType(t.Object.Scope, want)
		err := d.gw.SetAttributes(ctx, t.Object.DistinguishedName, map[string][]string{
			"groupType": {strconv.FormatInt(int64(groupType), 10)},
		})
		if err != nil {
			return Outcome{}, err
		}
		return Succeeded("changed category of %s from %s to %s", t.Object.Name, t.Object.Category, want), nil
	})

	return rows, affectedFromTargets(targets), nil
}

func (d *Driver) handleSetDescription(ctx context.Context, j *job.Job, dryRun bool, span Span) ([]OutcomeRow, []report.AffectedTarget, error) {
	targets := d.resolver.ResolveMany(ctx, j.TargetGroups, span.Sub(0, 0.3))

	rows := d.executor.RunSingle(ctx, targets, span.Sub(0.3, 1), func(ctx context.Context, t *ResolvedTarget) (Outcome, error) {
		if t.Object.Description == j.Description {
			return Skipped("description of %s is already up to date", t.Object.Name), nil
		}
		if dryRun {
			if j.Description == "" {
				return WouldDo("would clear description of %s", t.Object.Name), nil
			}
			return WouldDo("would set description of %s to %q", t.Object.Name, j.Description), nil
		}

		// An empty description clears the attribute; AD rejects empty values.
		if j.Description == "" {
			if err := d.gw.ClearAttributes(ctx, t.Object.DistinguishedName, []string{"description"}); err != nil {
				return Outcome{}, err
			}
			return Succeeded("cleared description of %s", t.Object.Name), nil
		}

		err := d.gw.SetAttributes(ctx, t.Object.DistinguishedName, map[string][]string{
			"description": {j.Description},
		})
		if err != nil {
			return Outcome{}, err
		}
		return Succeeded("set description of %s", t.Object.Name), nil
	})

	return rows, affectedFromTargets(targets), nil
}

func (d *Driver) handleAddMembers(ctx context.Context, j *job.Job, dryRun bool, span Span) ([]OutcomeRow, []report.AffectedTarget, error) {
	groups := d.resolver.ResolveMany(ctx, j.TargetGroups, span.Sub(0, 0.3))

	rows, err := d.executor.RunCrossProduct(ctx, j.Members, groups, span.Sub(0.3, 1),
		func(ctx context.Context, member string, group *ResolvedTarget) (Outcome, error) {
			m, err := d.gw.ResolveTypedIdentity(ctx, member)
			if err != nil {
				if directory.IsNotFoundError(err) {
					return Failedf("%q does not match a user, computer, or group", member), nil
				}
				return Outcome{}, err
			}

			if group.Object.HasMember(m.DistinguishedName) {
				return Skipped("%s is already a member of %s", memberLabel(m), group.Object.Name), nil
			}
			if dryRun {
				return WouldDo("would add %s %s to %s", m.Class, memberLabel(m), group.Object.Name), nil
			}

			if err := d.gw.AddMember(ctx, group.Object.DistinguishedName, m.DistinguishedName); err != nil {
				// A conflict means another writer added the member first.
				if directory.IsConflictError(err) {
					return Skipped("%s is already a member of %s", memberLabel(m), group.Object.Name), nil
				}
				return Outcome{}, err
			}
			return Succeeded("added %s %s to %s", m.Class, memberLabel(m), group.Object.Name), nil
		})
	if err != nil {
		return nil, nil, err
	}

	return rows, affectedFromTargets(groups), nil
}

func (d *Driver) handleRemoveMembers(ctx context.Context, j *job.Job, dryRun bool, span Span) ([]OutcomeRow, []report.AffectedTarget, error) {
	groups := d.resolver.ResolveMany(ctx, j.TargetGroups, span.Sub(0, 0.3))

	rows, err := d.executor.RunCrossProduct(ctx, j.Members, groups, span.Sub(0.3, 1),
		func(ctx context.Context, member string, group *ResolvedTarget) (Outcome, error) {
			m, err := d.gw.ResolveTypedIdentity(ctx, member)
			if err != nil {
				if directory.IsNotFoundError(err) {
					return Failedf("%q does not match a user, computer, or group", member), nil
				}
				return Outcome{}, err
			}

			if !group.Object.HasMember(m.DistinguishedName) {
				return Skipped("%s is not a member of %s", memberLabel(m), group.Object.Name), nil
			}
			if dryRun {
				return WouldDo("would remove %s %s from %s", m.Class, memberLabel(m), group.Object.Name), nil
			}

			if err := d.gw.RemoveMember(ctx, group.Object.DistinguishedName, m.DistinguishedName); err != nil {
				if directory.IsNotFoundError(err) {
					return Skipped("%s is not a member of %s", memberLabel(m), group.Object.Name), nil
				}
				return Outcome{}, err
			}
			return Succeeded("removed %s %s from %s", m.Class, memberLabel(m), group.Object.Name), nil
		})
	if err != nil {
		return nil, nil, err
	}

	return rows, affectedFromTargets(groups), nil
}

func (d *Driver) handleListMembers(ctx context.Context, j *job.Job, _ bool, span Span) ([]OutcomeRow, []report.AffectedTarget, error) {
	targets := d.resolver.ResolveMany(ctx, j.TargetGroups, span.Sub(0, 0.3))

	var rows []OutcomeRow
	listSpan := span.Sub(0.3, 1)

	for i := range targets {
		target := &targets[i]
		listSpan.Step(i, len(targets), fmt.Sprintf("listing members of %s", target.Label()))

		if !target.Success {
			rows = d.executor.appendRow(rows, target.Label(), "", Failedf("%s", target.Err))
			continue
		}

		members, err := d.gw.ListMembers(ctx, target.Object.DistinguishedName, j.Recursive)
		if err != nil {
			rows = d.executor.appendRow(rows, target.Label(), "", Failed(err))
			continue
		}

		if len(members) == 0 {
			rows = d.executor.appendRow(rows, target.Label(), target.Object.Name, Skipped("group has no members"))
			continue
		}

		for _, m := range members {
			rows = d.executor.appendRow(rows, memberLabel(m), target.Object.Name,
				Succeeded("%s %s", m.Class, m.DistinguishedName))
		}
	}

	listSpan.Emit(1, "listing complete")
	return rows, affectedFromTargets(targets), nil
}

func memberLabel(m *directory.Member) string {
	if m.SAMAccountName != "" {
		return m.SAMAccountName
	}
	if m.Name != "" {
		return m.Name
	}
	return m.DistinguishedName
}
