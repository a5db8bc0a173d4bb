package upgradeplan

import (
	"fmt"
	"strings"
)

// Action is the transition the planner assigns to a package or cluster.
//
// On the installed side it says what happens to the existing software; on the
// new-media side it says how the replacement gets onto the system.
type Action int

//go:generate stringer -type=Action,Status,Shared,PType,ModuleType,MediaKind,EnvAction -linecomment

const (
	NoActionDefined    Action = iota // NO_ACTION_DEFINED
	ToBePreserved                    // TO_BE_PRESERVED
	ToBeRemoved                      // TO_BE_REMOVED
	ToBeReplaced                     // TO_BE_REPLACED
	ToBePkgadded                     // TO_BE_PKGADDED
	ToBeSpooled                      // TO_BE_SPOOLED
	AddedBySharedEnv                 // ADDED_BY_SHARED_ENV
	ExistingNoAction                 // EXISTING_NO_ACTION
	CannotBeAddedToEnv               // CANNOT_BE_ADDED_TO_ENV
)

// MarshalText implements [encoding.TextMarshaler].
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (a *Action) UnmarshalText(b []byte) error {
	i := enumIndex(_Action_name, _Action_index[:], b)
	if i == -1 {
		return fmt.Errorf("unknown action %q", string(b))
	}
	*a = Action(i)
	return nil
}

// Status is the selection state of a package or cluster.
type Status int

const (
	Unselected        Status = iota // UNSELECTED
	Selected                        // SELECTED
	Required                        // REQUIRED
	PartiallySelected               // PARTIALLY_SELECTED
)

// MarshalText implements [encoding.TextMarshaler].
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (s *Status) UnmarshalText(b []byte) error {
	i := enumIndex(_Status_name, _Status_index[:], b)
	if i == -1 {
		return fmt.Errorf("unknown status %q", string(b))
	}
	*s = Status(i)
	return nil
}

// IsSelected reports whether the status puts content on the system.
func (s Status) IsSelected() bool {
	return s == Selected || s == Required
}

// Shared describes how an installed package relates to other environments.
type Shared int

const (
	NotDuplicate  Shared = iota // NOTDUPLICATE
	Duplicate                   // DUPLICATE
	NullPkg                     // NULLPKG
	SpooledNotDup               // SPOOLED_NOTDUP
	SpooledDup                  // SPOOLED_DUP
)

// MarshalText implements [encoding.TextMarshaler].
func (s Shared) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (s *Shared) UnmarshalText(b []byte) error {
	i := enumIndex(_Shared_name, _Shared_index[:], b)
	if i == -1 {
		return fmt.Errorf("unknown shared-ness %q", string(b))
	}
	*s = Shared(i)
	return nil
}

// Spooled reports whether the package was installed as a spool template.
func (s Shared) Spooled() bool {
	return s == SpooledNotDup || s == SpooledDup
}

// PType is the SUNW_PKGTYPE of a package: which part of the filesystem its
// contents land in.
type PType int

const (
	PTypeUnknown PType = iota // UNKNOWN
	PTypeRoot                 // ROOT
	PTypeUsr                  // USR
	PTypeKVM                  // KVM
	PTypeOW                   // OW
	PTypeOpt                  // OPT
)

// ParsePType maps a SUNW_PKGTYPE value onto a PType. Unrecognized values are
// PTypeUnknown.
func ParsePType(s string) PType {
	i := enumIndex(_PType_name, _PType_index[:], []byte(strings.ToUpper(strings.TrimSpace(s))))
	if i == -1 {
		return PTypeUnknown
	}
	return PType(i)
}

// MarshalText implements [encoding.TextMarshaler].
func (p PType) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (p *PType) UnmarshalText(b []byte) error {
	*p = ParsePType(string(b))
	return nil
}

// ModuleType tags the variants of the software tree.
type ModuleType int

const (
	PackageModule     ModuleType = iota // PACKAGE
	ClusterModule                       // CLUSTER
	MetaclusterModule                   // METACLUSTER
	LocaleModule                        // LOCALE
	ProductModule                       // PRODUCT
	NullProductModule                   // NULLPRODUCT
	MediaModule                         // MEDIA
)

// MarshalText implements [encoding.TextMarshaler].
func (t ModuleType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (t *ModuleType) UnmarshalText(b []byte) error {
	i := enumIndex(_ModuleType_name, _ModuleType_index[:], b)
	if i == -1 {
		return fmt.Errorf("unknown module type %q", string(b))
	}
	*t = ModuleType(i)
	return nil
}

// EnvAction is what is happening to an environment as a whole.
type EnvAction int

const (
	EnvToBeUpgraded EnvAction = iota // ENV_TO_BE_UPGRADED
	AddSvcToEnv                      // ADD_SVC_TO_ENV
)

// MarshalText implements [encoding.TextMarshaler].
func (e EnvAction) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (e *EnvAction) UnmarshalText(b []byte) error {
	i := enumIndex(_EnvAction_name, _EnvAction_index[:], b)
	if i == -1 {
		return fmt.Errorf("unknown environment action %q", string(b))
	}
	*e = EnvAction(i)
	return nil
}

// Flag is the set of modifiers that may accompany an [Action].
type Flag uint16

const (
	DoPkgrm Flag = 1 << iota
	ContentsGoingAway
	InstanceAlreadyPresent
	ZoneSpooled
	IsUnbundledPkg
)

var flagNames = [...]string{
	"DO_PKGRM",
	"CONTENTS_GOING_AWAY",
	"INSTANCE_ALREADY_PRESENT",
	"ZONE_SPOOLED",
	"IS_UNBUNDLED_PKG",
}

// String implements [fmt.Stringer]. Set flags are joined with "|".
func (f Flag) String() string {
	return bitString(uint(f), flagNames[:])
}

// MarshalText implements [encoding.TextMarshaler].
func (f Flag) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (f *Flag) UnmarshalText(b []byte) error {
	v, err := parseBits(string(b), flagNames[:])
	if err != nil {
		return err
	}
	*f = Flag(v)
	return nil
}

// PlanFlags are the flags owned by the planner. Loading a view clears them.
const PlanFlags = DoPkgrm | ContentsGoingAway | InstanceAlreadyPresent | IsUnbundledPkg

func enumIndex(names string, index []uint8, text []byte) int {
	for i := 0; i+1 < len(index); i++ {
		if names[index[i]:index[i+1]] == string(text) {
			return i
		}
	}
	return -1
}

func bitString(v uint, names []string) string {
	if v == 0 {
		return ""
	}
	var b strings.Builder
	for i, n := range names {
		if v&(1<<i) == 0 {
			continue
		}
		if b.Len() != 0 {
			b.WriteByte('|')
		}
		b.WriteString(n)
		v &^= 1 << i
	}
	if v != 0 {
		if b.Len() != 0 {
			b.WriteByte('|')
		}
		fmt.Fprintf(&b, "%#x", v)
	}
	return b.String()
}

func parseBits(s string, names []string) (uint, error) {
	var v uint
	if s == "" {
		return 0, nil
	}
Split:
	for _, f := range strings.Split(s, "|") {
		for i, n := range names {
			if f == n {
				v |= 1 << i
				continue Split
			}
		}
		return 0, fmt.Errorf("unknown flag %q", f)
	}
	return v, nil
}
