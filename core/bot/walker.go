package bot

// Canned engine replies. The engine guarantees a non-empty response string
// for every call: errors surface as the bot "saying something", never as a
// crash or a blank message.
const (
	respNotConfigured = "Bot not configured yet."
	respStartOver     = "I'm confused. Let's start over."
	respUnknownPhase  = "I don't know how to chat in this mode yet."
	respFallback      = "Hmm, I didn't catch that. Try saying it another way!"
)

// Walker advances a conversation through a decision graph, one user
// utterance at a time. It holds only the (read-only) graph; all per-
// conversation data lives in the ConversationState threaded through Step,
// so one Walker can serve any number of independent conversations.
type Walker struct {
	nodes map[string]Node
	edges map[string][]Edge // outgoing edges by source node, authored order
	start *Node
}

func NewWalker(cfg *GraphConfig) *Walker {
	w := &Walker{
		nodes: make(map[string]Node, len(cfg.Nodes)),
		edges: make(map[string][]Edge, len(cfg.Nodes)),
	}
	for i, n := range cfg.Nodes {
		w.nodes[n.ID] = n
		if n.Kind == KindStart && w.start == nil {
			w.start = &cfg.Nodes[i]
		}
	}
	for _, e := range cfg.Edges {
		w.edges[e.Source] = append(w.edges[e.Source], e)
	}
	return w
}

// Step consumes one user utterance and returns the bot's reply plus the new
// conversation state. The caller owns the state and must pass it back in on
// the next turn.
func (w *Walker) Step(utterance string, state ConversationState) Reply {
	if state.CurrentNodeID == "" {
		return w.begin(state)
	}

	node, ok := w.nodes[state.CurrentNodeID]
	if !ok {
		// stale reference: the graph was edited mid-conversation and the
		// current node no longer exists. Recoverable; restart the flow.
		return Reply{Response: respStartOver, State: NewConversationState()}
	}

	out := w.edges[node.ID]
	if len(out) == 0 {
		// dead end: implicitly terminal, equivalent to an end node
		state.History = append(state.History, node.ID)
		state.CurrentNodeID = ""
		return Reply{Response: w.message(node), State: state, IsEnd: true}
	}

	// Take the first non-default edge (authored order) whose condition
	// matches. Graph edges only support ANY semantics; specificity
	// tie-breaking is a rule-list concern, edge order is the author's intent.
	var defaultEdge *Edge
	for i := range out {
		if IsDefaultCondition(out[i].Condition) {
			if defaultEdge == nil {
				defaultEdge = &out[i]
			}
			continue
		}
		if Matches(utterance, out[i].Condition, ModeAny) {
			return w.advance(node, out[i].Target, state)
		}
	}
	if defaultEdge != nil {
		return w.advance(node, defaultEdge.Target, state)
	}

	// total non-match and no catch-all: the conversation does not advance
	fallback := node.Fallback
	if fallback == "" {
		fallback = respFallback
	}
	return Reply{Response: fallback, State: state}
}

// begin performs the initial transition: locate the start node and
// auto-advance along its first authored edge (no condition evaluation) to
// produce the first visible bot message.
func (w *Walker) begin(state ConversationState) Reply {
	if w.start == nil {
		return Reply{Response: respNotConfigured, State: state}
	}
	out := w.edges[w.start.ID]
	if len(out) == 0 {
		// a greeting with nowhere to go is not a conversation
		return Reply{Response: respNotConfigured, State: state}
	}
	state.HasGreeted = true
	return w.advance(*w.start, out[0].Target, state)
}

func (w *Walker) advance(from Node, targetID string, state ConversationState) Reply {
	target, ok := w.nodes[targetID]
	if !ok {
		// edge points at a deleted node
		return Reply{Response: respStartOver, State: NewConversationState()}
	}
	state.History = append(state.History, from.ID)
	state.CurrentNodeID = target.ID

	// An end node is still "visited" once to show its message; the
	// conversation is flagged over by the dead-end check on the next turn
	// (unless the author gave the end node outgoing edges, which keeps it
	// alive - their call).
	return Reply{Response: w.message(target), State: state, IsEnd: target.Kind == KindEnd}
}

func (w *Walker) message(n Node) string {
	if n.Message != "" {
		return n.Message
	}
	if n.Fallback != "" {
		return n.Fallback
	}
	return respFallback
}
