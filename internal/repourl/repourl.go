// Package repourl normalises the ways a GitHub repository or account can be
// written (bare "owner/repo", profile URL, repository URL) into a RepoRef.
package repourl

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kurihiro0119/devprofile-api/internal/domain"
)

// ErrInvalidFormat is returned when an input matches none of the accepted shapes
var ErrInvalidFormat = errors.New("invalid repository format")

var (
	// scheme and www are optional; the host must contain a dot to be recognised
	urlPattern = regexp.MustCompile(`^(?:[a-zA-Z][a-zA-Z0-9+.-]*://)?(?:www\.)?([a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)*\.[a-zA-Z]{2,})(?::\d+)?/([^/?#]+)(?:/([^/?#]+))?`)

	// GitHub usernames/orgs: 1-39 alphanumeric or hyphen, not starting with hyphen
	validOwner = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,38}$`)
	// GitHub repo names: 1-100 alphanumeric, hyphen, underscore, or dot
	validRepo = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,100}$`)
)

// Parse extracts owner and, when present, repo from a URL such as
// https://github.com/owner or https://github.com/owner/repo.git.
func Parse(rawURL string) (domain.RepoRef, error) {
	s := clean(rawURL)
	m := urlPattern.FindStringSubmatch(s)
	if m == nil {
		return domain.RepoRef{}, fmt.Errorf("%w: %q is not a recognisable URL", ErrInvalidFormat, rawURL)
	}
	ref := domain.RepoRef{
		Owner: m[2],
		Repo:  strings.TrimSuffix(m[3], ".git"),
	}
	if err := validate(ref); err != nil {
		return domain.RepoRef{}, err
	}
	return ref, nil
}

// ParseRef accepts a bare "owner/repo" string or a repository URL and returns
// the canonical pair. Inputs that do not name a repository are rejected.
func ParseRef(input string) (domain.RepoRef, error) {
	s := clean(input)
	var (
		ref domain.RepoRef
		err error
	)
	if looksLikeURL(s) {
		ref, err = Parse(s)
	} else {
		ref, err = parseBare(s)
	}
	if err != nil {
		return domain.RepoRef{}, err
	}
	if !ref.HasRepo() {
		return domain.RepoRef{}, fmt.Errorf("%w: %q does not name a repository, use 'owner/repo'", ErrInvalidFormat, input)
	}
	return ref, nil
}

// ParseOwner accepts a bare username or a profile/repository URL and returns the owner
func ParseOwner(input string) (string, error) {
	s := clean(input)
	if looksLikeURL(s) {
		ref, err := Parse(s)
		if err != nil {
			return "", err
		}
		return ref.Owner, nil
	}
	s = strings.TrimPrefix(s, "@")
	if !validOwner.MatchString(s) {
		return "", fmt.Errorf("%w: invalid owner %q", ErrInvalidFormat, input)
	}
	return s, nil
}

func parseBare(s string) (domain.RepoRef, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return domain.RepoRef{}, fmt.Errorf("%w: use 'owner/repo'", ErrInvalidFormat)
	}
	ref := domain.RepoRef{Owner: parts[0], Repo: strings.TrimSuffix(parts[1], ".git")}
	if err := validate(ref); err != nil {
		return domain.RepoRef{}, err
	}
	return ref, nil
}

func validate(ref domain.RepoRef) error {
	if !validOwner.MatchString(ref.Owner) {
		return fmt.Errorf("%w: invalid owner %q", ErrInvalidFormat, ref.Owner)
	}
	if ref.Repo != "" && !validRepo.MatchString(ref.Repo) {
		return fmt.Errorf("%w: invalid repo %q", ErrInvalidFormat, ref.Repo)
	}
	return nil
}

// clean trims whitespace, trailing slashes and a trailing ".git"
func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "/")
	s = strings.TrimSuffix(s, ".git")
	return s
}

func looksLikeURL(s string) bool {
	if strings.Contains(s, "://") {
		return true
	}
	host, _, found := strings.Cut(s, "/")
	return found && strings.Contains(host, ".")
}
