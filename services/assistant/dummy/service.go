package dummyassistant

import (
	"context"
	"fmt"

	"github.com/trezcool/ongea/core"
)

// SeenRequests records every request handled, for inspection in tests.
var SeenRequests = make([]core.AssistantRequest, 0)

type service struct {
	replies []string
	next    int
}

var _ core.AssistantService = (*service)(nil)

// NewService returns an assistant that cycles through the provided canned
// replies (or echoes the utterance if none are given). It never fails;
// useful for local dev and tests without an API key.
func NewService(replies ...string) core.AssistantService {
	return &service{replies: replies}
}

func (svc *service) Reply(_ context.Context, req core.AssistantRequest) (core.AssistantResponse, error) {
	SeenRequests = append(SeenRequests, req)

	if len(svc.replies) == 0 {
		return core.AssistantResponse{Text: fmt.Sprintf("You said: %q. Tell me more!", req.Utterance)}, nil
	}
	reply := svc.replies[svc.next%len(svc.replies)]
	svc.next++
	return core.AssistantResponse{Text: reply}, nil
}
