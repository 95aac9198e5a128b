package job

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// MaxListItems caps every target and member list. Jobs beyond the cap are a
// precondition error, never silently truncated.
const MaxListItems = 50

// IdentityList accepts either a delimited string ("a, b; c") or a YAML/JSON
// sequence and normalizes both into an ordered list: split on comma, semicolon
// and newline, trimmed, empty entries discarded.
type IdentityList []string

// UnmarshalYAML implements yaml.Unmarshaler for both accepted input forms.
func (l *IdentityList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var raw string
		if err := node.Decode(&raw); err != nil {
			return err
		}
		*l = SplitIdentityList(raw)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		normalized := make(IdentityList, 0, len(items))
		for _, item := range items {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				normalized = append(normalized, trimmed)
			}
		}
		*l = normalized
		return nil
	default:
		return fmt.Errorf("identity list must be a string or a sequence, got %s", node.Tag)
	}
}

// SplitIdentityList splits a delimited identity string into an ordered list.
func SplitIdentityList(raw string) IdentityList {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})

	list := make(IdentityList, 0, len(fields))
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}

// Job is one unit of work read once at start: an operation name plus its
// parameter set. Zero values mean "not supplied"; required parameters are
// enforced per operation by Validate.
type Job struct {
	Operation string `yaml:"operation" validate:"required"`

	TargetGroups IdentityList `yaml:"targetGroups"`
	Members      IdentityList `yaml:"members"`

	// DryRun is tri-state: nil defers to the operation's catalog default.
	DryRun *bool `yaml:"dryRun"`

	// Operation-specific scalars.
	NewName     string `yaml:"newName"`
	NewScope    string `yaml:"newScope" validate:"omitempty,oneof=Global Universal DomainLocal"`
	NewCategory string `yaml:"newCategory" validate:"omitempty,oneof=Security Distribution"`
	TargetPath  string `yaml:"targetPath"`
	Description string `yaml:"description"`
	SourceGroup string `yaml:"sourceGroup"`
	SAMAccount  string `yaml:"samAccountName"`
	CopyMembers bool   `yaml:"copyMembers" default:"false"`
	Recursive   bool   `yaml:"recursive" default:"false"`
}

// Load reads and validates one job description from r (YAML; JSON is accepted
// as a YAML subset).
func Load(r io.Reader) (*Job, error) {
	j := &Job{}
	if err := defaults.Set(j); err != nil {
		return nil, fmt.Errorf("failed to apply job defaults: %w", err)
	}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(j); err != nil {
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}

	if err := Validate(j); err != nil {
		return nil, err
	}

	return j, nil
}

// LoadFile reads one job description from a file, or stdin when path is "-".
func LoadFile(path string) (*Job, error) {
	if path == "-" {
		return Load(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open job file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Mode returns the resolved catalog entry and the effective dry-run flag for
// the job, applying the default-safe convention for destructive operations.
func (j *Job) Mode() (Spec, bool, error) {
	spec, err := Lookup(j.Operation)
	if err != nil {
		return Spec{}, false, err
	}

	dryRun := spec.DefaultDryRun
	if j.DryRun != nil {
		dryRun = *j.DryRun
	}

	return spec, dryRun, nil
}
