package job

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance returns the shared validator configured for job structs.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		validateInst = validator.New(validator.WithRequiredStructEnabled())
	})
	return validateInst
}

// Validate checks structural validity plus the per-operation parameter
// contract. All violations here are precondition errors: job-fatal, raised
// before any directory call.
func Validate(j *Job) error {
	if j == nil {
		return fmt.Errorf("job cannot be nil")
	}

	if err := validatorInstance().Struct(j); err != nil {
		return convertValidationError(err)
	}

	spec, err := Lookup(j.Operation)
	if err != nil {
		return err
	}

	if len(j.TargetGroups) > MaxListItems {
		return fmt.Errorf("targetGroups exceeds the %d item cap (%d supplied)", MaxListItems, len(j.TargetGroups))
	}
	if len(j.Members) > MaxListItems {
		return fmt.Errorf("members exceeds the %d item cap (%d supplied)", MaxListItems, len(j.Members))
	}

	return validateParams(j, spec)
}

func validateParams(j *Job, spec Spec) error {
	requireTargets := func() error {
		if len(j.TargetGroups) == 0 {
			return fmt.Errorf("%s requires at least one target group", spec.Name)
		}
		return nil
	}

	switch spec.Name {
	case OpCreateGroup:
		if j.NewName == "" {
			return fmt.Errorf("createGroup requires newName")
		}
		if j.TargetPath == "" {
			return fmt.Errorf("createGroup requires targetPath (the container DN)")
		}
		if j.NewScope == "" {
			return fmt.Errorf("createGroup requires newScope")
		}
		if j.NewCategory == "" {
			return fmt.Errorf("createGroup requires newCategory")
		}

	case OpCopyGroup:
		if j.SourceGroup == "" {
			return fmt.Errorf("copyGroup requires sourceGroup")
		}
		if j.NewName == "" {
			return fmt.Errorf("copyGroup requires newName")
		}

	case OpDeleteGroup, OpListMembers:
		return requireTargets()

	case OpRenameGroup:
		if err := requireTargets(); err != nil {
			return err
		}
		if len(j.TargetGroups) > 1 {
			return fmt.Errorf("renameGroup accepts exactly one target group (%d supplied)", len(j.TargetGroups))
		}
		if j.NewName == "" {
			return fmt.Errorf("renameGroup requires newName")
		}

	case OpMoveGroup:
		if err := requireTargets(); err != nil {
			return err
		}
		if j.TargetPath == "" {
			return fmt.Errorf("moveGroup requires targetPath (the destination container DN)")
		}

	case OpSetGroupScope:
		if err := requireTargets(); err != nil {
			return err
		}
		if j.NewScope == "" {
			return fmt.Errorf("setGroupScope requires newScope")
		}

	case OpSetGroupCategory:
		if err := requireTargets(); err != nil {
			return err
		}
		if j.NewCategory == "" {
			return fmt.Errorf("setGroupCategory requires newCategory")
		}

	case OpSetDescription:
		return requireTargets()

	case OpAddMembers, OpRemoveMembers:
		if err := requireTargets(); err != nil {
			return err
		}
		if len(j.Members) == 0 {
			return fmt.Errorf("%s requires at least one member", spec.Name)
		}
	}

	return nil
}

// convertValidationError flattens validator violations into one readable error.
func convertValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fieldName(fe)))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fieldName(fe), strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fieldName(fe), fe.Tag()))
		}
	}

	return fmt.Errorf("invalid job: %s", strings.Join(msgs, "; "))
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return fe.StructField()
	}
	// Field names surface to operators in yaml casing.
	return strings.ToLower(name[:1]) + name[1:]
}
