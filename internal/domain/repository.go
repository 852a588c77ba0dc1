package domain

// Repository represents a GitHub repository as returned by the listing endpoint
type Repository struct {
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	Description *string `json:"description"`
	HTMLURL     string  `json:"html_url"`
	Private     bool    `json:"private"`
	Fork        bool    `json:"fork"`
	Stars       int     `json:"stars"`
	Language    *string `json:"language"`
	UpdatedAt   string  `json:"updated_at"`
}

// RepoRef is a canonical owner/repo pair. Repo is empty when only an owner was given.
type RepoRef struct {
	Owner string
	Repo  string
}

// FullName returns "owner/repo", or just the owner when no repository is set
func (r RepoRef) FullName() string {
	if r.Repo == "" {
		return r.Owner
	}
	return r.Owner + "/" + r.Repo
}

// HasRepo reports whether the reference names a repository
func (r RepoRef) HasRepo() bool {
	return r.Repo != ""
}

// ListOptions controls a repository listing
type ListOptions struct {
	Type    string // "all", "owner" or "member"
	Sort    string // "created", "updated", "pushed" or "full_name"
	PerPage int
}

// Repository listing constraints
var (
	RepoTypes = []string{"all", "owner", "member"}
	RepoSorts = []string{"created", "updated", "pushed", "full_name"}
)

const MaxPerPage = 100

// DefaultListOptions returns the listing defaults
func DefaultListOptions() ListOptions {
	return ListOptions{Type: "all", Sort: "updated", PerPage: MaxPerPage}
}
