package upgradeplan

// Locale is a locale offered by a product and the packages realizing it.
type Locale struct {
	Tag         string     `json:"tag"`
	Description string     `json:"description,omitempty"`
	Packages    []*Package `json:"-"`
	Selected    bool       `json:"selected,omitempty"`
}

var _ Module = (*Locale)(nil)

func (*Locale) module() {}

// ModuleType implements [Module].
func (*Locale) ModuleType() ModuleType { return LocaleModule }

// Geo is a geographic region grouping locales.
type Geo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Locales     []string `json:"locales,omitempty"`
	Selected    bool     `json:"selected,omitempty"`
}
