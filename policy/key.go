package policy

import (
	"fmt"
	"strings"
)

// PolicyKey identifies a named retry configuration, scoped by
// namespace so two call sites (or two services sharing a control
// plane) can each own a "default" policy without colliding. It is
// comparable, so it can key a map or a PolicyCache directly.
type PolicyKey struct {
	Namespace string
	Name      string
}

func (k PolicyKey) String() string {
	if k.Namespace == "" {
		return k.Name
	}
	return k.Namespace + "/" + k.Name
}

// ParseKey parses "namespace/name" into a PolicyKey. A string with no
// slash is treated as a bare name in the empty namespace.
func ParseKey(s string) (PolicyKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PolicyKey{}, fmt.Errorf("policy: empty key")
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		ns, name := s[:i], s[i+1:]
		if name == "" {
			return PolicyKey{}, fmt.Errorf("policy: key %q has an empty name", s)
		}
		return PolicyKey{Namespace: ns, Name: name}, nil
	}
	return PolicyKey{Name: s}, nil
}
