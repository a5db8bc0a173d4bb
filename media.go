package upgradeplan

import "fmt"

// MediaKind says what a [Media] holds.
type MediaKind int

const (
	MediaImage   MediaKind = iota // MEDIA_IMAGE
	Installed                     // INSTALLED
	InstalledSvc                  // INSTALLED_SVC
)

// MarshalText implements [encoding.TextMarshaler].
func (k MediaKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (k *MediaKind) UnmarshalText(b []byte) error {
	i := enumIndex(_MediaKind_name, _MediaKind_index[:], b)
	if i == -1 {
		return fmt.Errorf("unknown media kind %q", string(b))
	}
	*k = MediaKind(i)
	return nil
}

// MediaFlag is the set of flags on a [Media].
type MediaFlag uint8

const (
	// BasisOfUpgrade marks the environment being upgraded directly: the
	// local global zone.
	BasisOfUpgrade MediaFlag = 1 << iota
	// SplitFromServer marks a service whose /usr is split from the server's.
	SplitFromServer
	// SvcToBeRemoved marks a service being removed rather than upgraded.
	SvcToBeRemoved
)

var mediaFlagNames = [...]string{
	"BASIS_OF_UPGRADE",
	"SPLIT_FROM_SERVER",
	"SVC_TO_BE_REMOVED",
}

// String implements [fmt.Stringer].
func (f MediaFlag) String() string {
	return bitString(uint(f), mediaFlagNames[:])
}

// MarshalText implements [encoding.TextMarshaler].
func (f MediaFlag) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (f *MediaFlag) UnmarshalText(b []byte) error {
	v, err := parseBits(string(b), mediaFlagNames[:])
	if err != nil {
		return err
	}
	*f = MediaFlag(v)
	return nil
}

// Media is a source of software: an installed environment (global zone,
// non-global zone, diskless client root, service) or the new media image.
type Media struct {
	Product *Product `json:"-"`
	// Dir is where the media is mounted.
	Dir string `json:"dir"`
	// Zone is the non-global zone name, if the media is one.
	Zone  string    `json:"zone,omitempty"`
	Kind  MediaKind `json:"kind"`
	Flags MediaFlag `json:"flags,omitempty"`
	// Env is what is happening to the environment: upgraded, or having a
	// service added.
	Env EnvAction `json:"env"`
}

var _ Module = (*Media)(nil)

func (*Media) module() {}

// ModuleType implements [Module].
func (*Media) ModuleType() ModuleType { return MediaModule }

// IsZone reports whether the media is a non-global zone.
func (m *Media) IsZone() bool {
	return m.Zone != "" && m.Zone != "global"
}

// IsInstalled reports whether the media is an installed environment of
// either kind.
func (m *Media) IsInstalled() bool {
	return m.Kind == Installed || m.Kind == InstalledSvc
}

// String implements [fmt.Stringer].
func (m *Media) String() string {
	if m.IsZone() {
		return m.Kind.String() + ":" + m.Dir + " (zone " + m.Zone + ")"
	}
	return m.Kind.String() + ":" + m.Dir
}

// Module is a node of the software tree. It is one of [*Package], [*Cluster],
// [*Locale], [*Product], or [*Media]; callers switch on the concrete type.
type Module interface {
	ModuleType() ModuleType
	module()
}
