package geminiassistant

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/trezcool/ongea/core"
)

type service struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

var _ core.AssistantService = (*service)(nil)

func NewService(conf *core.Config) (core.AssistantService, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: conf.Assistant.APIKey,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating genai client")
	}
	return &service{
		client:  client,
		model:   conf.Assistant.Model,
		timeout: conf.Assistant.Timeout,
	}, nil
}

func (svc *service) Reply(ctx context.Context, req core.AssistantRequest) (core.AssistantResponse, error) {
	if svc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, svc.timeout)
		defer cancel()
	}

	contents := make([]*genai.Content, 0, len(req.PriorMessages)+1)
	for _, m := range req.PriorMessages {
		role := genai.Role(genai.RoleUser)
		if m.Role != "user" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Utterance, genai.RoleUser))

	var genCfg *genai.GenerateContentConfig
	if req.Instructions != "" {
		genCfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.Instructions, genai.RoleUser),
		}
	}

	resp, err := svc.client.Models.GenerateContent(ctx, svc.model, contents, genCfg)
	if err != nil {
		return core.AssistantResponse{}, errors.Wrap(err, "generating content")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return core.AssistantResponse{}, errors.New("no response candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return core.AssistantResponse{Text: text.String(), Raw: resp}, nil
}
