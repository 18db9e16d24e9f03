package buildnumber

// Placeholder values published when metadata cannot be resolved.
const (
	UnknownRevision     = "UNKNOWN_REVISION"
	UnknownBranch       = "UNKNOWN_BRANCH"
	UnknownTag          = "UNKNOWN_TAG"
	UnknownCommitsCount = "-1"
	UnknownBuildnumber  = "UNKNOWN_BUILDNUMBER"
)

// Default output property names.
const (
	DefaultRevisionProperty     = "git.revision"
	DefaultBranchProperty       = "git.branch"
	DefaultTagProperty          = "git.tag"
	DefaultCommitsCountProperty = "git.commitsCount"
	DefaultBuildnumberProperty  = "git.buildnumber"
)

// Values holds the five published strings. They are either all derived from
// one extraction or all equal to the Unknown placeholders.
type Values struct {
	Revision     string
	Branch       string
	Tag          string
	CommitsCount string
	Buildnumber  string
}

// Unknown returns the fixed placeholder set.
func Unknown() Values {
	return Values{
		Revision:     UnknownRevision,
		Branch:       UnknownBranch,
		Tag:          UnknownTag,
		CommitsCount: UnknownCommitsCount,
		Buildnumber:  UnknownBuildnumber,
	}
}

// IsUnknown reports whether v is the placeholder set.
func (v Values) IsUnknown() bool {
	return v == Unknown()
}

// Publish writes all five values into store under names.
func (v Values) Publish(store PropertyStore, names PropertyNames) {
	names = names.WithDefaults()

	store.SetProperty(names.Revision, v.Revision)
	store.SetProperty(names.Branch, v.Branch)
	store.SetProperty(names.Tag, v.Tag)
	store.SetProperty(names.CommitsCount, v.CommitsCount)
	store.SetProperty(names.Buildnumber, v.Buildnumber)
}

// PropertyNames configures the keys the values are published under.
// Empty fields fall back to the defaults.
type PropertyNames struct {
	Revision     string
	Branch       string
	Tag          string
	CommitsCount string
	Buildnumber  string
}

// DefaultPropertyNames returns the git.* key set.
func DefaultPropertyNames() PropertyNames {
	return PropertyNames{
		Revision:     DefaultRevisionProperty,
		Branch:       DefaultBranchProperty,
		Tag:          DefaultTagProperty,
		CommitsCount: DefaultCommitsCountProperty,
		Buildnumber:  DefaultBuildnumberProperty,
	}
}

// WithDefaults returns a copy of n with empty fields replaced by defaults.
func (n PropertyNames) WithDefaults() PropertyNames {
	d := DefaultPropertyNames()
	if n.Revision == "" {
		n.Revision = d.Revision
	}
	if n.Branch == "" {
		n.Branch = d.Branch
	}
	if n.Tag == "" {
		n.Tag = d.Tag
	}
	if n.CommitsCount == "" {
		n.CommitsCount = d.CommitsCount
	}
	if n.Buildnumber == "" {
		n.Buildnumber = d.Buildnumber
	}
	return n
}

// PropertyStore is the caller-owned key/value store values are published to.
type PropertyStore interface {
	SetProperty(key, value string)
}

// Properties is a map-backed PropertyStore.
type Properties map[string]string

// SetProperty implements PropertyStore.
func (p Properties) SetProperty(key, value string) {
	p[key] = value
}
