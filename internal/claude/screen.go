package claude

import (
	"github.com/renexus/taskdeps/internal/model"
	"github.com/renexus/taskdeps/internal/validate"
)

// Rejection is a proposed edge the validator refused.
type Rejection struct {
	Edge    ProposedEdge `json:"edge"`
	Message string       `json:"message"`
}

// Screen runs proposals through v in order, greedily keeping each edge that
// passes. Accepted edges become new dependencies with fresh ids and are
// visible to the checks that follow, so a later edge closing a cycle with an
// earlier one is rejected.
func Screen(edges []ProposedEdge, v *validate.Validator) (accepted []model.Dependency, rejected []Rejection) {
	for _, e := range edges {
		typ, err := model.ParseDependencyType(e.Type)
		if err != nil {
			rejected = append(rejected, Rejection{Edge: e, Message: err.Error()})
			continue
		}
		d := validate.CreateDependency(model.Task{ID: e.From}, model.Task{ID: e.To}, typ)
		if res := v.Accept(d); !res.Valid {
			rejected = append(rejected, Rejection{Edge: e, Message: res.Message})
			continue
		}
		accepted = append(accepted, d)
	}
	return accepted, rejected
}
