package bot

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// RequestEnv is the variable set an auto-approve expression sees for each
// newly created request
type RequestEnv struct {
	MediaType   string  `expr:"MediaType"`
	Title       string  `expr:"Title"`
	Year        int     `expr:"Year"`
	VoteAverage float64 `expr:"VoteAverage"`
	RequestedBy string  `expr:"RequestedBy"`
}

// approvalPolicy evaluates a configured expression against new requests.
// A nil program means no policy is configured and nothing auto-approves.
type approvalPolicy struct {
	program *vm.Program
}

// newApprovalPolicy compiles the expression once at startup so malformed
// config fails fast instead of on the first request
func newApprovalPolicy(expression string) (*approvalPolicy, error) {
	if expression == "" {
		return &approvalPolicy{}, nil
	}

	program, err := expr.Compile(expression,
		expr.Env(RequestEnv{}),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression %q: %w", expression, err)
	}
	return &approvalPolicy{program: program}, nil
}

// Enabled reports whether a policy expression is configured
func (p *approvalPolicy) Enabled() bool {
	return p.program != nil
}

// Evaluate runs the policy against one request
func (p *approvalPolicy) Evaluate(env RequestEnv) (bool, error) {
	if p.program == nil {
		return false, nil
	}

	result, err := expr.Run(p.program, env)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate expression: %w", err)
	}

	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression returned %T, expected bool", result)
	}
	return matched, nil
}
