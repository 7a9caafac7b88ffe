package adapter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeProvider replays chunks, or blocks until the context ends when block
// is set.
type fakeProvider struct {
	chunks   []StreamChunk
	err      error
	block    bool
	noStream bool

	calls   int
	lastReq Request
	done    chan struct{}
}

func (f *fakeProvider) Info() ModelInfo {
	return ModelInfo{Name: "fake-model", Provider: "fake", MaxContextWindow: 1000, SupportsStreaming: !f.noStream}
}

func (f *fakeProvider) Complete(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	f.done = make(chan struct{})
	ch := make(chan StreamChunk)
	go func() {
		defer close(f.done)
		defer close(ch)
		for _, c := range f.chunks {
			if !send(ctx, ch, c) {
				return
			}
		}
		if f.block {
			<-ctx.Done()
		}
	}()
	return ch, nil
}

func textChunks(parts ...string) []StreamChunk {
	out := make([]StreamChunk, len(parts))
	for i, p := range parts {
		out[i] = StreamChunk{Text: p}
	}
	return out
}

func TestClient_Complete(t *testing.T) {
	p := &fakeProvider{chunks: textChunks("# Title", "\n", "body")}
	c := NewClient(p)

	if c.Provider() != "fake" {
		t.Errorf("Provider() = %q", c.Provider())
	}
	res := c.Complete(context.Background(), "sys", "usr", mustConfig(t, "m"))
	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if res.Text != "# Title\nbody" {
		t.Errorf("Text = %q", res.Text)
	}
	if p.lastReq.System != "sys" || p.lastReq.User != "usr" || p.lastReq.Stream {
		t.Errorf("request = %+v", p.lastReq)
	}
}

func TestClient_InvalidConfigSkipsProvider(t *testing.T) {
	p := &fakeProvider{chunks: textChunks("x")}
	res := NewClient(p).Complete(context.Background(), "s", "u", GenerationConfig{Model: "m"})

	if p.calls != 0 {
		t.Errorf("provider called %d times for an invalid config", p.calls)
	}
	if res.Text != FailurePlaceholder {
		t.Errorf("Text = %q", res.Text)
	}
	if !strings.Contains(res.Error, string(KindInvalidConfig)) {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestClient_ErrorMidStreamDiscardsPartialText(t *testing.T) {
	p := &fakeProvider{chunks: []StreamChunk{
		{Text: "partial"},
		{Error: &StatusError{Provider: "fake", StatusCode: 500}},
	}}
	res := NewClient(p).Complete(context.Background(), "s", "u", mustConfig(t, "m"))

	if res.Text != FailurePlaceholder {
		t.Errorf("Text = %q, partial text must not leak", res.Text)
	}
	if !strings.Contains(res.Error, string(KindTransport)) {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestClient_EmptyResponse(t *testing.T) {
	res := NewClient(&fakeProvider{}).Complete(context.Background(), "s", "u", mustConfig(t, "m"))
	if !strings.Contains(res.Error, string(KindMalformed)) {
		t.Errorf("Error = %q, want malformed", res.Error)
	}
}

func TestClient_StartError(t *testing.T) {
	p := &fakeProvider{err: errors.New("boom")}
	res := NewClient(p).Complete(context.Background(), "s", "u", mustConfig(t, "m"))
	if !res.Failed() || !strings.Contains(res.Error, "boom") {
		t.Errorf("Result = %+v", res)
	}
}

func TestStream_FragmentsInOrder(t *testing.T) {
	p := &fakeProvider{chunks: textChunks("a", "", "b", "c")}
	s := NewClient(p).Stream(context.Background(), "s", "u", mustConfig(t, "m"))

	var got []string
	for frag := range s.Fragments() {
		got = append(got, frag)
	}
	if strings.Join(got, ",") != "a,b,c" {
		t.Errorf("fragments = %q", got)
	}
	if !p.lastReq.Stream {
		t.Error("Stream flag not set on request")
	}
	if res := s.Result(); res.Text != "abc" {
		t.Errorf("Result().Text = %q", res.Text)
	}
}

func TestStream_ProviderWithoutStreaming(t *testing.T) {
	p := &fakeProvider{chunks: textChunks("whole answer"), noStream: true}
	c := NewClient(p)
	if c.Info().SupportsStreaming {
		t.Fatal("Info should report the provider's capabilities")
	}

	s := c.Stream(context.Background(), "s", "u", mustConfig(t, "m"))
	var got []string
	for f := range s.Fragments() {
		got = append(got, f)
	}
	if p.lastReq.Stream {
		t.Error("request should not ask a non-streaming provider to stream")
	}
	if len(got) != 1 || got[0] != "whole answer" {
		t.Errorf("fragments = %q", got)
	}
	if res := s.Result(); res.Failed() || res.Text != "whole answer" {
		t.Errorf("result = %+v", res)
	}
}

func TestStream_SingleUse(t *testing.T) {
	s := NewClient(&fakeProvider{chunks: textChunks("a", "b")}).
		Stream(context.Background(), "s", "u", mustConfig(t, "m"))

	for range s.Fragments() {
	}
	n := 0
	for range s.Fragments() {
		n++
	}
	if n != 0 {
		t.Errorf("second range yielded %d fragments", n)
	}
}

func TestStream_EarlyBreakCancels(t *testing.T) {
	p := &fakeProvider{chunks: textChunks("a", "b", "c"), block: true}
	s := NewClient(p).Stream(context.Background(), "s", "u", mustConfig(t, "m"))

	for range s.Fragments() {
		break
	}

	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatal("provider goroutine still running after break")
	}

	res := s.Result()
	if res.Text != FailurePlaceholder {
		t.Errorf("Text = %q", res.Text)
	}
	if !strings.Contains(res.Error, string(KindCanceled)) {
		t.Errorf("Error = %q, want canceled", res.Error)
	}
}

func TestStream_ContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	p := &fakeProvider{chunks: textChunks("partial"), block: true}
	s := NewClient(p).Stream(ctx, "s", "u", mustConfig(t, "m"))
	res := s.Result()
	if !strings.Contains(res.Error, string(KindTimeout)) {
		t.Errorf("Error = %q, want timeout", res.Error)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{&ConfigValidationError{Field: "model"}, KindInvalidConfig},
		{ErrUnsupportedParameter, KindUnsupported},
		{context.Canceled, KindCanceled},
		{context.DeadlineExceeded, KindTimeout},
		{&StatusError{StatusCode: 401}, KindAuth},
		{&StatusError{StatusCode: 403}, KindAuth},
		{&StatusError{StatusCode: 429}, KindRateLimit},
		{&StatusError{StatusCode: 504}, KindTimeout},
		{&StatusError{StatusCode: 500}, KindTransport},
		{ErrMalformedResponse, KindMalformed},
		{errors.New("dial tcp: refused"), KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			ge := Classify("p", tt.err)
			if ge.Kind != tt.want {
				t.Errorf("Kind = %q, want %q", ge.Kind, tt.want)
			}
			if !errors.Is(ge, tt.err) {
				t.Error("GenerationError does not unwrap to the cause")
			}
		})
	}

	if Classify("p", nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}
