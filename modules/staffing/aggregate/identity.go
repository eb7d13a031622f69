package aggregate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/myscheduling/seedload/modules/staffing/domain"
)

const (
	DefaultEmailDomain     = "aleutfederal.com"
	DefaultRootManagerName = "Geoff Vaughan"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(s), "."), ".")
}

// SlugEmail builds first.last@domain from free-text name parts.
func SlugEmail(first, last, emailDomain string) string {
	base := strings.Trim(slug(first)+"."+slug(last), ".")
	return base + "@" + emailDomain
}

type Option func(r *Resolver)

func WithEmailDomain(d string) Option {
	return func(r *Resolver) {
		if d = strings.TrimSpace(d); d != "" {
			r.emailDomain = strings.TrimPrefix(d, "@")
		}
	}
}

// WithRootManager names the employee who never has a manager. An empty name
// disables the override.
func WithRootManager(name string) Option {
	return func(r *Resolver) {
		fields := strings.Fields(name)
		r.rootFirst, r.rootLast = "", ""
		if len(fields) == 0 {
			return
		}
		r.rootFirst = strings.ToLower(fields[0])
		r.rootLast = strings.ToLower(strings.Join(fields[1:], " "))
	}
}

// Resolver assigns natural keys to employees and resolves manager links.
type Resolver struct {
	emailDomain string
	rootFirst   string
	rootLast    string
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{emailDomain: DefaultEmailDomain}
	WithRootManager(DefaultRootManagerName)(r)
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve fills Employee.Email, ForcedRoot and the dataset's manager links.
// Employees are visited in first-seen order, so the same input always yields
// the same emails.
func (r *Resolver) Resolve(ds *domain.Dataset) {
	taken := make(map[string]struct{}, len(ds.Employees))
	for _, e := range ds.Employees {
		e.Email = r.uniqueEmail(e, taken)
		taken[e.Email] = struct{}{}
	}

	ds.ManagerLinks = make([]domain.ManagerLink, 0, len(ds.Employees))
	ds.UnresolvedManagers = nil
	for _, e := range ds.Employees {
		link := domain.ManagerLink{EmployeeID: e.SourceID}
		unresolved := false
		if e.ManagerSourceID != nil {
			if _, ok := ds.Employee(*e.ManagerSourceID); ok {
				id := *e.ManagerSourceID
				link.ManagerID = &id
			} else {
				unresolved = true
			}
		}
		// The root override is applied last so it wins over source data.
		if r.isRoot(e) {
			e.ForcedRoot = true
			link.ManagerID = nil
			unresolved = false
		}
		if unresolved {
			ds.UnresolvedManagers = append(ds.UnresolvedManagers, e.SourceID)
		}
		ds.ManagerLinks = append(ds.ManagerLinks, link)
	}
}

func (r *Resolver) uniqueEmail(e *domain.Employee, taken map[string]struct{}) string {
	email := SlugEmail(e.FirstName, e.LastName, r.emailDomain)
	if _, dup := taken[email]; !dup {
		return email
	}
	email = SlugEmail(e.FirstName, fmt.Sprintf("%s.%d", e.LastName, e.SourceID), r.emailDomain)
	for n := 2; ; n++ {
		if _, dup := taken[email]; !dup {
			return email
		}
		email = SlugEmail(e.FirstName, fmt.Sprintf("%s.%d.%d", e.LastName, e.SourceID, n), r.emailDomain)
	}
}

func (r *Resolver) isRoot(e *domain.Employee) bool {
	if r.rootFirst == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(e.FirstName), r.rootFirst) &&
		strings.HasPrefix(strings.ToLower(e.LastName), r.rootLast)
}
