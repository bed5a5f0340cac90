package groups

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spaghettifunk/anima-scenes/engine/core"
)

/** @brief How a scene reaches memory. */
type ResourceKind int

const (
	/** @brief Loaded through the scene runtime by name. */
	KindDirect ResourceKind = iota
	/** @brief Loaded through an addressable reference that must be released explicitly. */
	KindIndirect
)

func (k ResourceKind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindIndirect:
		return "indirect"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseResourceKind accepts "direct" and "indirect" (case-insensitive).
// An empty string means direct.
func ParseResourceKind(s string) (ResourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "direct":
		return KindDirect, nil
	case "indirect", "addressable":
		return KindIndirect, nil
	default:
		return KindDirect, fmt.Errorf("unknown resource kind %q", s)
	}
}

/** @brief Identifies a loadable scene. */
type ResourceReference struct {
	/** @brief The scene name as it appears in the loaded-scene table. */
	Name string
	/** @brief Direct or indirect. */
	Kind ResourceKind
	/** @brief Lookup key for the indirect runtime. Falls back to Name when empty. */
	Address string
}

func (r ResourceReference) Key() string {
	if r.Address != "" {
		return r.Address
	}
	return r.Name
}

// RoleTag is the role a scene plays in a group. Only RoleActive changes
// orchestrator behaviour; the others are descriptive.
type RoleTag string

const (
	RoleActive        RoleTag = "active"
	RoleMainMenu      RoleTag = "main_menu"
	RoleUserInterface RoleTag = "user_interface"
	RoleHUD           RoleTag = "hud"
	RoleCinematic     RoleTag = "cinematic"
	RoleEnvironment   RoleTag = "environment"
	RoleTooling       RoleTag = "tooling"
)

type Entry struct {
	Reference ResourceReference
	Role      RoleTag
}

// Definition is an ordered, read-only mapping from scene reference to role.
type Definition struct {
	Name    string
	Entries []Entry
}

func NewDefinition(name string, entries ...Entry) *Definition {
	return &Definition{Name: name, Entries: entries}
}

// FindByRole returns the first reference carrying tag, in definition order.
func (d *Definition) FindByRole(tag RoleTag) (ResourceReference, bool) {
	if d == nil {
		return ResourceReference{}, false
	}
	for _, e := range d.Entries {
		if e.Role == tag {
			return e.Reference, true
		}
	}
	return ResourceReference{}, false
}

func (d *Definition) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Entries)
}

func (d *Definition) IsEmpty() bool {
	return d.Len() == 0
}

// Names returns the scene names in definition order.
func (d *Definition) Names() []string {
	names := make([]string, 0, d.Len())
	if d == nil {
		return names
	}
	for _, e := range d.Entries {
		names = append(names, e.Reference.Name)
	}
	return names
}

// Validate reports authoring mistakes: empty or duplicated names, unknown
// kinds and more than one active entry. The orchestrator does not require a
// valid definition; asset loaders and tooling do.
func (d *Definition) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: definition is nil", core.ErrInvalidDefinition)
	}
	var errs []error
	seen := make(map[string]bool, len(d.Entries))
	active := 0
	for i, e := range d.Entries {
		name := e.Reference.Name
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("entry %d: scene name is empty", i))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("entry %d: scene %q listed more than once", i, name))
		}
		seen[name] = true
		if e.Reference.Kind != KindDirect && e.Reference.Kind != KindIndirect {
			errs = append(errs, fmt.Errorf("entry %d: scene %q has unknown kind %d", i, name, e.Reference.Kind))
		}
		if e.Role == RoleActive {
			active++
		}
	}
	if active > 1 {
		errs = append(errs, fmt.Errorf("%d entries are tagged %q, at most one is allowed", active, RoleActive))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %q: %w", core.ErrInvalidDefinition, d.Name, errors.Join(errs...))
	}
	return nil
}
