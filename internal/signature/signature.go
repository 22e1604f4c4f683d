// Package signature parses the textual member references used in container
// snapshots, e.g. "example.com/app/svc.TypeY#NewTypeY(*example.com/app/svc.TypeX) error".
package signature

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/toyz/axon-aot/internal/errors"
	"github.com/toyz/axon-aot/internal/models"
)

// Signature is a parsed member reference
type Signature struct {
	Owner   string
	Name    string
	Params  []string
	Results []string
	IsCall  bool
}

type memberGrammar struct {
	Owner string       `parser:"@Name '#'"`
	Name  string       `parser:"@Name"`
	Call  *callGrammar `parser:"@@?"`
}

type callGrammar struct {
	Open    string   `parser:"@'('"`
	Params  []string `parser:"( @Name ( ',' @Name )* )? ')'"`
	Results []string `parser:"( @Name | '(' @Name ( ',' @Name )* ')' )?"`
}

var parser = participle.MustBuild[memberGrammar](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Name", Pattern: `[\*\[\]A-Za-z_][\*\[\]A-Za-z0-9_./\-$]*`},
		{Name: "Punct", Pattern: `[#(),]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// Parse parses a member reference
func Parse(input string) (Signature, error) {
	g, err := parser.ParseString("", strings.TrimSpace(input))
	if err != nil {
		return Signature{}, errors.WrapSyntaxError(input, err)
	}
	sig := Signature{Owner: g.Owner, Name: g.Name}
	if g.Call != nil {
		sig.IsCall = true
		sig.Params = g.Call.Params
		sig.Results = g.Call.Results
	}
	return sig, nil
}

// ReturnsError reports whether the last result is error
func (s Signature) ReturnsError() bool {
	return len(s.Results) > 0 && s.Results[len(s.Results)-1] == "error"
}

// Member converts the signature into a reference of the given kind. Fields must
// not carry a parameter list and calls must.
func (s Signature) Member(kind models.MemberKind) (models.MemberRef, error) {
	if kind == models.MemberField && s.IsCall {
		return models.MemberRef{}, errors.NewValidationError("member reference", "field "+s.Owner+"#"+s.Name+" cannot have parameters")
	}
	if kind != models.MemberField && !s.IsCall {
		return models.MemberRef{}, errors.NewValidationError("member reference", kind.String()+" "+s.Owner+"#"+s.Name+" needs a parameter list")
	}
	ref := models.NewMemberRef(kind, s.Owner, s.Name, s.Params...)
	ref.ReturnsError = s.ReturnsError()
	ref.Result = models.ResultOf(s.Results)
	return ref, nil
}

// ParseMember parses input as a member reference of the given kind
func ParseMember(input string, kind models.MemberKind) (models.MemberRef, error) {
	sig, err := Parse(input)
	if err != nil {
		return models.MemberRef{}, err
	}
	return sig.Member(kind)
}

// MustParseMember is ParseMember for statically known references; it panics on error.
func MustParseMember(input string, kind models.MemberKind) models.MemberRef {
	ref, err := ParseMember(input, kind)
	if err != nil {
		panic(err)
	}
	return ref
}
