// Package filter compiles expr-language expressions and evaluates
// them against friend and letter records, for use behind the CLI's
// --filter and --preset flags.
package filter

import (
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tiagovla/slowly-go/slowly"
)

// Filter is a compiled filter expression.
type Filter struct {
	expression string
	program    *vm.Program
}

// Compile compiles an expression. Record fields are available under
// "Friend" or "Letter" depending on what the filter is matched
// against; helper functions (daysSince, contains, parseDate, now...)
// are available in both cases.
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(helperFunctions()),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	return &Filter{
		expression: expression,
		program:    program,
	}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expression
}

// MatchFriend evaluates the filter against a friend record.
func (f *Filter) MatchFriend(friend *slowly.User) (bool, error) {
	env := helperFunctions()
	env["Friend"] = friend
	env["isFav"] = func() bool { return friend.Fav != 0 }
	env["isPlus"] = func() bool { return friend.Plus != 0 }
	env["isDeactivated"] = func() bool { return friend.Deactivated != 0 }
	env["hasUnread"] = func() bool { return friend.Unread > 0 }
	return f.run(env)
}

// MatchLetter evaluates the filter against a letter record.
func (f *Filter) MatchLetter(letter *slowly.Letter) (bool, error) {
	env := helperFunctions()
	env["Letter"] = letter
	env["isRead"] = func() bool { return !letter.ReadAt.IsZero() }
	env["isDelivered"] = func() bool { return !letter.DeliverAt.IsZero() && letter.DeliverAt.Before(time.Now()) }
	return f.run(env)
}

func (f *Filter) run(env map[string]any) (bool, error) {
	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, &EvaluationError{Expression: f.expression, Err: err}
	}
	matched, ok := result.(bool)
	if !ok {
		return false, &EvaluationError{Expression: f.expression, Err: errNonBool}
	}
	return matched, nil
}

// FriendsMatching filters a friend list, keeping records the filter
// accepts.
func (f *Filter) FriendsMatching(friends []*slowly.User) ([]*slowly.User, error) {
	var matched []*slowly.User
	for _, friend := range friends {
		ok, err := f.MatchFriend(friend)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, friend)
		}
	}
	return matched, nil
}

// helperFunctions builds the static helper environment shared by all
// evaluations.
func helperFunctions() map[string]any {
	return map[string]any{
		// Date helpers
		"daysSince": func(t time.Time) int {
			return int(time.Since(t).Hours() / 24)
		},
		"daysAgo": func(days int) time.Time {
			return time.Now().AddDate(0, 0, -days)
		},
		"monthsAgo": func(months int) time.Time {
			return time.Now().AddDate(0, -months, 0)
		},
		"yearsAgo": func(years int) time.Time {
			return time.Now().AddDate(-years, 0, 0)
		},
		"parseDate": func(dateStr string) time.Time {
			t, _ := time.Parse("2006-01-02", dateStr)
			return t
		},

		// String helpers
		"contains": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"startsWith": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"endsWith": func(str, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,

		// Current time
		"now": time.Now,
	}
}
