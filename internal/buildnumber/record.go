package buildnumber

import "strconv"

// shortRevisionLength is the number of leading hex characters kept in the
// abbreviated revision.
const shortRevisionLength = 7

// Record is the metadata returned by a single extraction.
// Records are passed by value and never mutated after construction.
type Record struct {
	// Revision is the full commit identifier.
	Revision string
	// ShortRevision is the abbreviated form of Revision.
	ShortRevision string
	// Branch is the current branch name, empty for a detached HEAD.
	Branch string
	// Tag lists the tags pointing at the current commit, empty if none.
	Tag string
	// CommitsCount is the number of commits reachable from the current commit.
	CommitsCount int
}

// NewRecord builds a Record and derives its ShortRevision.
func NewRecord(revision, branch, tag string, commitsCount int) Record {
	return Record{
		Revision:      revision,
		ShortRevision: abbreviate(revision),
		Branch:        branch,
		Tag:           tag,
		CommitsCount:  commitsCount,
	}
}

func abbreviate(revision string) string {
	if len(revision) <= shortRevisionLength {
		return revision
	}
	return revision[:shortRevisionLength]
}

// CommitsCountString returns CommitsCount in decimal form.
func (r Record) CommitsCountString() string {
	return strconv.Itoa(r.CommitsCount)
}

// DefaultBuildnumber returns the composite buildnumber used when no custom
// expression is configured: "<tag or branch>.<commitsCount>.<shortRevision>".
// The tag takes precedence over the branch; when both are empty the prefix is
// dropped.
func (r Record) DefaultBuildnumber() string {
	prefix := r.Tag
	if prefix == "" {
		prefix = r.Branch
	}

	bn := r.CommitsCountString() + "." + r.ShortRevision
	if prefix == "" {
		return bn
	}
	return prefix + "." + bn
}

// Values returns the five published values derived from r and the given
// composite buildnumber.
func (r Record) Values(buildnumber string) Values {
	return Values{
		Revision:     r.Revision,
		Branch:       r.Branch,
		Tag:          r.Tag,
		CommitsCount: r.CommitsCountString(),
		Buildnumber:  buildnumber,
	}
}
