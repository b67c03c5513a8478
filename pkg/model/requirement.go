package model

import (
	"encoding/json"
	"strings"

	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
)

// VersionRequirement is a conjunction of clauses, each constraining a
// lower bound, an upper bound, or an exact match. An empty requirement
// matches any version.
type VersionRequirement struct {
	raw     string
	clauses []clause
}

type clauseOp string

const (
	opEQ    clauseOp = "="
	opGE    clauseOp = ">="
	opGT    clauseOp = ">"
	opLE    clauseOp = "<="
	opLT    clauseOp = "<"
	opTilde clauseOp = "~"
	opCaret clauseOp = "^"
)

type clause struct {
	op  clauseOp
	ver Version
}

// AnyVersion is the empty requirement, satisfied by every version.
var AnyVersion = VersionRequirement{}

// ParseVersionRequirement parses a comma-separated list of clauses of the
// form "<op><version>" where op is one of "=", "==", ">=", ">", "<=", "<",
// "~", "^", or a bare version (treated as "=").
func ParseVersionRequirement(s string) (VersionRequirement, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AnyVersion, nil
	}

	rawClauses := strings.Split(s, ",")
	clauses := make([]clause, 0, len(rawClauses))
	for _, rc := range rawClauses {
		rc = strings.TrimSpace(rc)
		if rc == "" {
			return VersionRequirement{}, ralpherrors.New(ralpherrors.KindBadRequirementSyntax, "requirement %q has an empty clause", s)
		}
		c, err := parseClause(rc)
		if err != nil {
			return VersionRequirement{}, ralpherrors.Wrapf(err, ralpherrors.KindBadRequirementSyntax, "requirement %q", s)
		}
		clauses = append(clauses, c)
	}

	return VersionRequirement{raw: s, clauses: clauses}, nil
}

func parseClause(rc string) (clause, error) {
	op, rest := splitOp(rc)
	v, err := ParseVersion(rest)
	if err != nil {
		return clause{}, err
	}
	return clause{op: op, ver: v}, nil
}

// splitOp peels a known operator prefix off rc, defaulting to "=" for a
// bare version. "==" is normalized to "=".
func splitOp(rc string) (clauseOp, string) {
	switch {
	case strings.HasPrefix(rc, "=="):
		return opEQ, rc[2:]
	case strings.HasPrefix(rc, ">="):
		return opGE, rc[2:]
	case strings.HasPrefix(rc, "<="):
		return opLE, rc[2:]
	case strings.HasPrefix(rc, "="):
		return opEQ, rc[1:]
	case strings.HasPrefix(rc, ">"):
		return opGT, rc[1:]
	case strings.HasPrefix(rc, "<"):
		return opLT, rc[1:]
	case strings.HasPrefix(rc, "~"):
		return opTilde, rc[1:]
	case strings.HasPrefix(rc, "^"):
		return opCaret, rc[1:]
	default:
		return opEQ, rc
	}
}

// String returns the original parsed text, or "*" for the empty
// requirement.
func (r VersionRequirement) String() string {
	if r.raw == "" {
		return "*"
	}
	return r.raw
}

// MarshalJSON encodes the requirement as its original text, or "*" for
// the empty requirement.
func (r VersionRequirement) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes the requirement from a JSON string.
func (r *VersionRequirement) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "*" {
		*r = AnyVersion
		return nil
	}
	parsed, err := ParseVersionRequirement(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Satisfies reports whether v meets every clause of r. Total and pure.
func (r VersionRequirement) Satisfies(v Version) bool {
	for _, c := range r.clauses {
		if !c.satisfies(v) {
			return false
		}
	}
	return true
}

func (c clause) satisfies(v Version) bool {
	switch c.op {
	case opEQ:
		return v.Equal(c.ver)
	case opGE:
		return v.Compare(c.ver) >= 0
	case opGT:
		return v.Compare(c.ver) > 0
	case opLE:
		return v.Compare(c.ver) <= 0
	case opLT:
		return v.Compare(c.ver) < 0
	case opTilde:
		lower, upper := tildeRange(c.ver)
		return v.Compare(lower) >= 0 && v.Compare(upper) < 0
	case opCaret:
		lower, upper := caretRange(c.ver)
		return v.Compare(lower) >= 0 && v.Compare(upper) < 0
	default:
		return false
	}
}

// tildeRange implements "~x.y" => [x.y, x.(y+1)).
func tildeRange(v Version) (lower, upper Version) {
	major := v.componentAt(0)
	minor := v.componentAt(1)
	lower = v
	upper = newVersionFromComponents([]int64{major, minor + 1})
	return lower, upper
}

// caretRange implements "^x.y.z" => [x.y.z, (x+1).0.0) when x>0, else
// [x.y.z, x.(y+1).0).
func caretRange(v Version) (lower, upper Version) {
	major := v.componentAt(0)
	minor := v.componentAt(1)
	lower = v
	if major > 0 {
		upper = newVersionFromComponents([]int64{major + 1, 0, 0})
	} else {
		upper = newVersionFromComponents([]int64{major, minor + 1, 0})
	}
	return lower, upper
}
