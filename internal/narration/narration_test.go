package narration

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/danielpatrickdp/casefiles/internal/casedata"
	"github.com/danielpatrickdp/casefiles/internal/contradiction"
	"github.com/danielpatrickdp/casefiles/internal/requirement"
	"github.com/danielpatrickdp/casefiles/internal/scoring"
	"github.com/danielpatrickdp/casefiles/internal/unlock"
)

// #region fakes
type fakeProvider struct {
	name    string
	text    string
	err     error
	block   bool
	prompts []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

func loadCase(t *testing.T) *casedata.Case {
	t.Helper()
	c, err := casedata.Load(filepath.Join("..", "..", "cases", "restricted-section.yaml"))
	require.NoError(t, err)
	return c
}

// #endregion fakes

// #region fallback-tests
func TestFallback_PrimarySucceeds(t *testing.T) {
	primary := &fakeProvider{name: "p", text: "from primary"}
	fallback := &fakeProvider{name: "f", text: "from fallback"}
	c := NewFallbackClient(primary, fallback, time.Second, zap.NewNop())

	res, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, Result{Text: "from primary", Provider: "p"}, res)
	assert.Empty(t, fallback.prompts)
}

func TestFallback_UsesFallbackOnError(t *testing.T) {
	primary := &fakeProvider{name: "p", err: errors.New("rate limited")}
	fallback := &fakeProvider{name: "f", text: "from fallback"}
	c := NewFallbackClient(primary, fallback, time.Second, nil)

	res, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "f", res.Provider)
	assert.Equal(t, []string{"hello"}, fallback.prompts)
}

func TestFallback_TimeoutPerAttempt(t *testing.T) {
	primary := &fakeProvider{name: "slow", block: true}
	fallback := &fakeProvider{name: "f", text: "quick"}
	c := NewFallbackClient(primary, fallback, 20*time.Millisecond, nil)

	res, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "quick", res.Text)
}

func TestFallback_AllFail(t *testing.T) {
	boom := errors.New("boom")
	primary := &fakeProvider{name: "p", err: boom}
	fallback := &fakeProvider{name: "f", err: errors.New("down")}
	c := NewFallbackClient(primary, fallback, time.Second, nil)

	_, err := c.Generate(context.Background(), "hello")
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	require.Len(t, ge.Attempts, 2)
	assert.Equal(t, "p", ge.Attempts[0].Provider)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "f: down")
}

func TestFallback_NoProviders(t *testing.T) {
	c := NewFallbackClient(nil, nil, 0, nil)
	_, err := c.Generate(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoProvider)
}

// #endregion fallback-tests

// #region grpc-tests
func startNarrator(t *testing.T, p Provider) *CodecClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterNarratorServer(srv, p, zap.NewNop())
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewCodecClientWithConn(conn)
}

func TestCodec_GenerateOverGRPC(t *testing.T) {
	backend := &fakeProvider{name: "backend", text: "The frost spoke of a second caster."}
	client := startNarrator(t, backend)

	text, err := client.Generate(context.Background(), "describe the frost")
	require.NoError(t, err)
	assert.Equal(t, "The frost spoke of a second caster.", text)
	assert.Equal(t, []string{"describe the frost"}, backend.prompts)
	assert.Equal(t, "codec:injected", client.Name())
	assert.NoError(t, client.Close())
}

func TestCodec_ServerErrors(t *testing.T) {
	client := startNarrator(t, &fakeProvider{name: "backend", err: errors.New("model offline")})

	_, err := client.Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(errors.Unwrap(err)))

	_, err = client.Generate(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(errors.Unwrap(err)))
}

func TestCodec_AsFallbackBehindFailingPrimary(t *testing.T) {
	client := startNarrator(t, &fakeProvider{name: "backend", text: "remote prose"})
	fc := NewFallbackClient(&fakeProvider{name: "p", err: errors.New("no key")}, client, time.Second, nil)

	res, err := fc.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "remote prose", res.Text)
}

func TestNewCodecClient_LazyDial(t *testing.T) {
	client, err := NewCodecClient("localhost:0")
	require.NoError(t, err)
	assert.Equal(t, "codec:localhost:0", client.Name())
	assert.NoError(t, client.Close())
}

// #endregion grpc-tests

// #region openai-tests
func TestOpenAIProvider_Generate(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","created":0,"model":"test",
			"choices":[{"index":0,"message":{"role":"assistant","content":"A chill ran down the aisle."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("sk-test", "", srv.URL+"/v1")
	require.NoError(t, err)
	assert.Equal(t, "openai:gpt-4o-mini", p.Name())

	text, err := p.Generate(context.Background(), "describe")
	require.NoError(t, err)
	assert.Equal(t, "A chill ran down the aisle.", text)
	assert.Equal(t, "gpt-4o-mini", gotModel)
}

func TestOpenAIProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("sk-test", "gpt-4o", srv.URL+"/v1")
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), "describe")
	assert.ErrorContains(t, err, "openai chat completion")
}

func TestOpenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider("", "", "")
	assert.Error(t, err)
}

// #endregion openai-tests

// #region narrator-tests
func TestNarrator_PlainTextWithoutClient(t *testing.T) {
	c := loadCase(t)
	n := NewNarrator(c, nil, nil)

	ev := unlock.Event{ItemID: "h3", Trigger: requirement.AnyOfTrigger{Index: 0, Branch: requirement.ItemTrigger{ItemID: "e5"}}}
	assert.Equal(t, "New theory available: A second caster staged the scene (prompted by Portrait Testimony)",
		n.Unlock(context.Background(), ev))

	line := n.Contradiction(context.Background(), contradiction.Discovery{ID: "c1"})
	assert.True(t, strings.HasPrefix(line, "Contradiction: Wand Registry Extract and Alibi Letter cannot both be true."))

	r := scoring.Report{Overall: 0.75, TierDiscovery: scoring.TierDiscovery{Correct: true}}
	assert.Equal(t, "Verdict: A second caster staged the scene (correct). Overall score 0.75.",
		n.Verdict(context.Background(), "h3", r))
}

func TestNarrator_UsesGeneratedText(t *testing.T) {
	c := loadCase(t)
	p := &fakeProvider{name: "p", text: "generated"}
	n := NewNarrator(c, NewFallbackClient(p, nil, time.Second, nil), zap.NewNop())

	ev := unlock.Event{ItemID: "h4", Trigger: requirement.AllOfTrigger{Branches: []requirement.Trigger{
		requirement.ItemTrigger{ItemID: "e1"},
		requirement.ThresholdTrigger{Metric: "resourceSpent", Threshold: 6, Actual: 7},
	}}}
	assert.Equal(t, "generated", n.Unlock(context.Background(), ev))
	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], "Torn Library Pass")
	assert.Contains(t, p.prompts[0], "The library pass was forged")
}

func TestNarrator_DegradesOnFailure(t *testing.T) {
	c := loadCase(t)
	p := &fakeProvider{name: "p", err: errors.New("down")}
	n := NewNarrator(c, NewFallbackClient(p, nil, time.Second, nil), nil)

	got := n.Verdict(context.Background(), "h1", scoring.Report{Overall: 0.4})
	assert.Equal(t, "Verdict: The student acted alone (incorrect). Overall score 0.40.", got)
}

// #endregion narrator-tests
