package evaluator

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/wfl-lang/wflcore/core/value"
	"github.com/wfl-lang/wflcore/core/wflerr"
)

// lookupIdentifier resolves name against env, special-casing a bare
// `count` inside a count loop (spec §4.3: "the identifier
// count inside a count-loop body resolves to the current loop counter
// even when no environment binding exists"). On an ordinary lookup
// miss it appends a "did you mean" suggestion using a fuzzy match
// over every name visible from env, rather than a bare "not found".
func lookupIdentifier(i *Interp, env *value.Environment, name string, line, col int) (value.Value, error) {
	v, err := env.Get(name)
	if err == nil {
		return v, nil
	}
	if name == "count" && i.InCountLoop() {
		return value.Number(i.CurrentCountValue()), nil
	}
	if suggestion := suggest(name, env.Names()); suggestion != "" {
		return nil, wflerr.New("'"+name+"' not found -- did you mean '"+suggestion+"'?", line, col)
	}
	return nil, wflerr.New("'"+name+"' not found", line, col)
}

// suggest returns the closest fuzzy match for name among candidates,
// or "" if none are close enough to be worth surfacing.
func suggest(name string, candidates []string) string {
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	best := ranks[0]
	if best.Distance > len(name)+2 {
		return ""
	}
	return best.Target
}
