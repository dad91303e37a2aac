package bot

import (
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ongea/core"
)

var (
	phaseTag  = "phase"
	phaseText = fmt.Sprintf("invalid phase; must be one of %v", Phases)

	nodeKindTag  = "nodekind"
	nodeKindText = fmt.Sprintf("invalid node kind; must be one of %v", NodeKinds)

	matchModeTag  = "matchmode"
	matchModeText = fmt.Sprintf("invalid match mode; must be one of %v", MatchModes)

	graphStartTag  = "graphstart"
	graphStartText = "a decision-tree graph needs exactly one start node"

	graphEdgesTag  = "graphedges"
	graphEdgesText = "every edge must reference existing nodes"
)

// RegisterValidators registers the bot custom validation tags & texts.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(phaseTag, phaseValidation)
	core.RegisterCustomTranslation(validate, translator, phaseTag, phaseText)

	_ = validate.RegisterValidation(nodeKindTag, nodeKindValidation)
	core.RegisterCustomTranslation(validate, translator, nodeKindTag, nodeKindText)

	_ = validate.RegisterValidation(matchModeTag, matchModeValidation)
	core.RegisterCustomTranslation(validate, translator, matchModeTag, matchModeText)

	validate.RegisterStructValidation(graphStructValidation, GraphConfig{})
	core.RegisterCustomTranslation(validate, translator, graphStartTag, graphStartText)
	core.RegisterCustomTranslation(validate, translator, graphEdgesTag, graphEdgesText)
}

func (nb *NewBot) Validate(validate *validator.Validate) error {
	nb.OwnerID = core.CleanString(nb.OwnerID)
	nb.Name = core.CleanString(nb.Name)
	nb.Phase = Phase(core.CleanString(string(nb.Phase), true /* lower */))
	return validate.Struct(nb)
}

func (ub *UpdateBot) Validate(validate *validator.Validate) error {
	ub.Name = core.CleanString(ub.Name)
	ub.Phase = Phase(core.CleanString(string(ub.Phase), true /* lower */))
	return validate.Struct(ub)
}

func (cr *ChatRequest) Validate(validate *validator.Validate) error {
	// utterances are matched case-insensitively downstream; only trim here
	// so EXACT-mode semantics stay with the matcher
	cr.Utterance = core.CleanString(cr.Utterance)
	return validate.Struct(cr)
}

// Custom Validators

func phaseValidation(fl validator.FieldLevel) bool {
	p := Phase(fl.Field().String())
	for _, known := range Phases {
		if p == known {
			return true
		}
	}
	return false
}

func nodeKindValidation(fl validator.FieldLevel) bool {
	k := NodeKind(fl.Field().String())
	for _, known := range NodeKinds {
		if k == known {
			return true
		}
	}
	return false
}

func matchModeValidation(fl validator.FieldLevel) bool {
	m := MatchMode(fl.Field().String())
	for _, known := range MatchModes {
		if m == known {
			return true
		}
	}
	return false
}

// graphStructValidation does struct level validation on a GraphConfig:
// exactly one start node, and edges that reference existing nodes.
// Runtime recovery in the Walker tolerates broken graphs, but there is no
// reason to accept one from the editor.
func graphStructValidation(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(GraphConfig)

	nodeIDs := make(map[string]struct{}, len(cfg.Nodes))
	var startCount int
	for _, n := range cfg.Nodes {
		if n.ID != "" {
			nodeIDs[n.ID] = struct{}{}
		}
		if n.Kind == KindStart {
			startCount++
		}
	}
	if len(cfg.Nodes) > 0 && startCount != 1 {
		sl.ReportError(cfg.Nodes, "nodes", "Nodes", graphStartTag, "")
	}

	for _, e := range cfg.Edges {
		_, srcOK := nodeIDs[e.Source]
		_, tgtOK := nodeIDs[e.Target]
		if !srcOK || !tgtOK {
			sl.ReportError(cfg.Edges, "edges", "Edges", graphEdgesTag, "")
			return
		}
	}
}
