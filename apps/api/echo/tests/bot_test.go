package tests

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	. "github.com/trezcool/ongea/apps/api/echo"
	"github.com/trezcool/ongea/core/bot"
	dummyassistant "github.com/trezcool/ongea/services/assistant/dummy"
	dummydb "github.com/trezcool/ongea/storage/database/dummy"
	testutil "github.com/trezcool/ongea/tests"
)

func setup(t *testing.T) (bot.Repository, Server) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := dummydb.NewBotRepository(db)

	engine := bot.NewEngine(dummyassistant.NewService("Interesting, tell me more."))
	svc := bot.NewService(repo, engine, nopLogger{})

	return repo, newServer(svc)
}

func TestBotApi_create(t *testing.T) {
	_, app := setup(t)

	tests := []httpTest{
		{
			name:     "missing required fields",
			method:   http.MethodPost,
			path:     "/v1/bots",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"owner_id":"this field is required","name":"this field is required","phase":"this field is required"}`),
		},
		{
			name:     "unknown phase",
			method:   http.MethodPost,
			path:     "/v1/bots",
			body:     []byte(`{"owner_id":"stu-1","name":"Wally","phase":"telepathy"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"phase":"invalid phase; must be one of [decision_tree keywords assistant]"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("created", func(t *testing.T) {
		body := marchallObj(t, bot.NewBot{
			OwnerID: "stu-1",
			Name:    "FAQ Bot",
			Phase:   bot.PhaseKeywords,
			Rules:   testutil.FAQRules(),
		})
		req, rec := newRequest(http.MethodPost, "/v1/bots", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var b bot.Bot
		if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if b.ID == "" {
			t.Error("expected a generated bot ID")
		}
		if b.Name != "FAQ Bot" || b.Phase != bot.PhaseKeywords {
			t.Errorf("unexpected bot: %+v", b)
		}
		if b.CreatedAt.IsZero() || b.UpdatedAt.IsZero() {
			t.Error("expected timestamps to be set")
		}
	})
}

func TestBotApi_query(t *testing.T) {
	repo, app := setup(t)

	b1 := testutil.CreateBot(t, repo, "stu-1", "Alpha", bot.PhaseKeywords, nil, testutil.FAQRules(), "")
	b2 := testutil.CreateBot(t, repo, "stu-1", "Beta", bot.PhaseDecisionTree, testutil.GreetingGraph(), nil, "")
	b3 := testutil.CreateBot(t, repo, "stu-2", "Gamma", bot.PhaseAssistant, nil, nil, "Be kind.")

	tests := []httpTest{
		{
			name:     "all bots",
			method:   http.MethodGet,
			path:     "/v1/bots",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []bot.Bot{b1, b2, b3}),
		},
		{
			name:     "filter by owner",
			method:   http.MethodGet,
			path:     "/v1/bots?owner_id=stu-2",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []bot.Bot{b3}),
		},
		{
			name:     "filter by phase",
			method:   http.MethodGet,
			path:     "/v1/bots?phase=decision_tree",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []bot.Bot{b2}),
		},
		{
			name:     "search by name",
			method:   http.MethodGet,
			path:     "/v1/bots?search=alph",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []bot.Bot{b1}),
		},
		{
			name:     "no match",
			method:   http.MethodGet,
			path:     "/v1/bots?search=nosuchbot",
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("ordering by name descending", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/bots?ordering=-name")
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}
		var bots []bot.Bot
		if err := json.Unmarshal(rec.Body.Bytes(), &bots); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(bots) != 3 || bots[0].ID != b3.ID || bots[2].ID != b1.ID {
			t.Errorf("unexpected order: %+v", bots)
		}
	})
}

func TestBotApi_retrieve(t *testing.T) {
	repo, app := setup(t)
	b := testutil.CreateBot(t, repo, "stu-1", "Alpha", bot.PhaseKeywords, nil, testutil.FAQRules(), "")

	tests := []httpTest{
		{
			name:     "found",
			method:   http.MethodGet,
			path:     "/v1/bots/" + b.ID,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, b),
		},
		{
			name:     "not found",
			method:   http.MethodGet,
			path:     "/v1/bots/nope",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestBotApi_update(t *testing.T) {
	repo, app := setup(t)
	b := testutil.CreateBot(t, repo, "stu-1", "Alpha", bot.PhaseKeywords, nil, testutil.FAQRules(), "")

	body := []byte(`{"name":"Alpha v2"}`)
	req, rec := newRequest(http.MethodPut, "/v1/bots/"+b.ID, body)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var updated bot.Bot
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if updated.Name != "Alpha v2" {
		t.Errorf("Name = %q; want %q", updated.Name, "Alpha v2")
	}
	if updated.Phase != bot.PhaseKeywords {
		t.Errorf("Phase = %q; untouched fields must survive", updated.Phase)
	}
}

func TestBotApi_destroy(t *testing.T) {
	repo, app := setup(t)
	b1 := testutil.CreateBot(t, repo, "stu-1", "Alpha", bot.PhaseKeywords, nil, testutil.FAQRules(), "")
	b2 := testutil.CreateBot(t, repo, "stu-1", "Beta", bot.PhaseKeywords, nil, testutil.FAQRules(), "")
	b3 := testutil.CreateBot(t, repo, "stu-1", "Gamma", bot.PhaseKeywords, nil, testutil.FAQRules(), "")

	t.Run("single", func(t *testing.T) {
		req, rec := newRequest(http.MethodDelete, "/v1/bots/"+b1.ID)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusNoContent)
		}
		if _, err := repo.GetBotByID(b1.ID); err != bot.ErrNotFound {
			t.Errorf("GetBotByID() err = %v; want ErrNotFound", err)
		}
	})

	t.Run("multiple", func(t *testing.T) {
		req, rec := newRequest(http.MethodDelete, "/v1/bots?id="+b2.ID+"&id="+b3.ID)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusNoContent)
		}
		bots, _ := repo.QueryAllBots()
		if len(bots) != 0 {
			t.Errorf("expected no bots left; got %+v", bots)
		}
	})
}

func TestBotApi_queryPhases(t *testing.T) {
	_, app := setup(t)

	tt := httpTest{
		method:   http.MethodGet,
		path:     "/v1/bots/phases",
		wantCode: http.StatusOK,
		wantData: marchallObj(t, bot.Phases),
	}
	req, rec := newRequest(tt.method, tt.path)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}

func TestBotApi_chat(t *testing.T) {
	repo, app := setup(t)
	tree := testutil.CreateBot(t, repo, "stu-1", "Wally", bot.PhaseDecisionTree, testutil.GreetingGraph(), nil, "")
	faq := testutil.CreateBot(t, repo, "stu-1", "FAQ", bot.PhaseKeywords, nil, testutil.FAQRules(), "")
	helper := testutil.CreateBot(t, repo, "stu-1", "Helper", bot.PhaseAssistant, nil, nil, "Be kind.")

	chat := func(t *testing.T, id string, body []byte) bot.Reply {
		req, rec := newRequest(http.MethodPost, "/v1/bots/"+id+"/chat", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var reply bot.Reply
		if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
			t.Fatalf("unmarshalling reply: %v", err)
		}
		if reply.Response == "" {
			t.Error("a reply must never be empty")
		}
		return reply
	}

	t.Run("decision tree conversation", func(t *testing.T) {
		reply := chat(t, tree.ID, []byte(`{"utterance":"hello"}`))
		if reply.Response != "Do you like robots?" {
			t.Errorf("Response = %q", reply.Response)
		}
		if reply.State.CurrentNodeID != "ask" || !reply.State.HasGreeted {
			t.Errorf("unexpected state: %+v", reply.State)
		}

		// thread the state back in
		body := marchallObj(t, bot.ChatRequest{Utterance: "yes", State: &reply.State})
		reply = chat(t, tree.ID, body)
		if reply.Response != "Me too!" {
			t.Errorf("Response = %q", reply.Response)
		}

		body = marchallObj(t, bot.ChatRequest{Utterance: "ok", State: &reply.State})
		reply = chat(t, tree.ID, body)
		if reply.Response != "Goodbye!" || !reply.IsEnd {
			t.Errorf("expected terminal reply; got %+v", reply)
		}
	})

	t.Run("keyword rules", func(t *testing.T) {
		reply := chat(t, faq.ID, []byte(`{"utterance":"when are you open?"}`))
		if reply.Response != "We are open 9-5." {
			t.Errorf("Response = %q", reply.Response)
		}
		if reply.Confidence != 0.8 {
			t.Errorf("Confidence = %v; want 0.8", reply.Confidence)
		}

		reply = chat(t, faq.ID, []byte(`{"utterance":"what is the meaning of life?"}`))
		if reply.Response != "Sorry, I can only answer FAQ questions." {
			t.Errorf("Response = %q", reply.Response)
		}
	})

	t.Run("assistant", func(t *testing.T) {
		reply := chat(t, helper.ID, []byte(`{"utterance":"hi there"}`))
		if reply.Response != "Interesting, tell me more." {
			t.Errorf("Response = %q", reply.Response)
		}
		seen := dummyassistant.SeenRequests[len(dummyassistant.SeenRequests)-1]
		if seen.Instructions != "Be kind." {
			t.Errorf("Instructions = %q; want them forwarded", seen.Instructions)
		}
	})

	t.Run("missing utterance", func(t *testing.T) {
		tt := httpTest{
			method:   http.MethodPost,
			path:     "/v1/bots/" + faq.ID + "/chat",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"utterance":"this field is required"}`),
		}
		req, rec := newRequest(tt.method, tt.path, tt.body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("unknown bot", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/bots/nope/chat", []byte(`{"utterance":"hi"}`))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusNotFound)
		}
		if !strings.Contains(rec.Body.String(), "not found") {
			t.Errorf("body = %s", rec.Body.String())
		}
	})
}
