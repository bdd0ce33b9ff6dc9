package share

import "strings"

// Privilege is a capability a non-owner may hold on a shared file. The set is
// closed; owners implicitly hold every privilege.
type Privilege string

const (
	PrivilegeDownload Privilege = "download"
	PrivilegeRename   Privilege = "rename"
	PrivilegeDelete   Privilege = "delete"
)

// ParsePrivilege translates a privilege name arriving at the boundary into
// its internal identifier.
func ParsePrivilege(name string) (Privilege, error) {
	switch Privilege(strings.ToLower(strings.TrimSpace(name))) {
	case PrivilegeDownload:
		return PrivilegeDownload, nil
	case PrivilegeRename:
		return PrivilegeRename, nil
	case PrivilegeDelete:
		return PrivilegeDelete, nil
	default:
		return "", ErrUnknownPrivilege
	}
}

// ParsePrivileges resolves a list of privilege names, deduplicating while
// preserving order.
func ParsePrivileges(names []string) ([]Privilege, error) {
	seen := make(map[Privilege]struct{}, len(names))
	out := make([]Privilege, 0, len(names))
	for _, name := range names {
		p, err := ParsePrivilege(name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}
