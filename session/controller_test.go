package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "themerec/errors"
	"themerec/recservice"
	"themerec/themes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type call struct {
	theme   themes.Theme
	message string
	history []recservice.Turn
}

// fakeService answers each call from its script; a nil script entry blocks
// until release is called for that message.
type fakeService struct {
	mu      sync.Mutex
	calls   []call
	answers map[string]answer
	gates   map[string]chan answer
}

type answer struct {
	result *recservice.Result
	err    error
	panic  any
}

func newFake() *fakeService {
	return &fakeService{answers: map[string]answer{}, gates: map[string]chan answer{}}
}

func (f *fakeService) reply(message, text string, items int) {
	f.answers[message] = answer{result: result(text, items)}
}

func (f *fakeService) fail(message string, err error) {
	f.answers[message] = answer{err: err}
}

func (f *fakeService) gate(message string) chan answer {
	ch := make(chan answer, 1)
	f.gates[message] = ch
	return ch
}

func (f *fakeService) Recommend(ctx context.Context, theme themes.Theme, message string, history []recservice.Turn) (*recservice.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{theme: theme, message: message, history: history})
	ans, ok := f.answers[message]
	gate := f.gates[message]
	f.mu.Unlock()

	if gate != nil {
		select {
		case ans = <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else if !ok {
		return nil, fmt.Errorf("unexpected message %q", message)
	}
	if ans.panic != nil {
		panic(ans.panic)
	}
	return ans.result, ans.err
}

func (f *fakeService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func result(text string, items int) *recservice.Result {
	res := &recservice.Result{Message: text, UserProfile: &recservice.UserProfile{Theme: "books"}}
	for i := 0; i < items; i++ {
		res.Recommendations = append(res.Recommendations, recservice.Item{Title: fmt.Sprintf("item %d", i+1)})
	}
	return res
}

func user(s string) Message      { return Message{Role: recservice.RoleUser, Content: s} }
func assistant(s string) Message { return Message{Role: recservice.RoleAssistant, Content: s} }

func TestSendMessageSuccess(t *testing.T) {
	svc := newFake()
	svc.reply("recommend sci-fi", "here are three picks", 3)
	c := New(svc, "books")

	require.NoError(t, c.SendMessage(context.Background(), "  recommend sci-fi \n"))

	st := c.Snapshot()
	assert.Equal(t, []Message{user("recommend sci-fi"), assistant("here are three picks")}, st.Transcript)
	assert.Equal(t, []recservice.Turn{
		{Role: "user", Content: "recommend sci-fi"},
		{Role: "assistant", Content: "here are three picks"},
	}, st.History)
	require.NotNil(t, st.Result)
	assert.Len(t, st.Result.Recommendations, 3)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)

	require.Len(t, svc.calls, 1)
	assert.Equal(t, themes.Theme("books"), svc.calls[0].theme)
	assert.Equal(t, "recommend sci-fi", svc.calls[0].message)
	assert.Empty(t, svc.calls[0].history)
}

func TestHistoryCarriesPriorTurnsOnly(t *testing.T) {
	svc := newFake()
	svc.reply("first", "one", 2)
	svc.reply("second", "two", 2)
	c := New(svc, "games")

	require.NoError(t, c.SendMessage(context.Background(), "first"))
	require.NoError(t, c.SendMessage(context.Background(), "second"))

	require.Len(t, svc.calls, 2)
	assert.Equal(t, []recservice.Turn{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "one"},
	}, svc.calls[1].history)
	assert.Len(t, c.Snapshot().History, 4)
	assert.Len(t, c.Snapshot().Transcript, 4)
}

func TestBlankInputIsIgnored(t *testing.T) {
	svc := newFake()
	svc.reply("x", "y", 2)
	c := New(svc, "books")
	require.NoError(t, c.SendMessage(context.Background(), "x"))
	svc.fail("boom", errors.New("boom"))
	c.SendMessage(context.Background(), "boom")
	before := c.Snapshot()

	updates := 0
	c.OnUpdate(func() { updates++ })
	for _, in := range []string{"", "   ", "\n\t "} {
		assert.Nil(t, c.Prepare(in))
		assert.NoError(t, c.SendMessage(context.Background(), in))
	}

	assert.Equal(t, before, c.Snapshot())
	assert.Equal(t, 2, svc.callCount())
	assert.Zero(t, updates)
}

func TestFailureKeepsUserTurn(t *testing.T) {
	svc := newFake()
	svc.reply("ok", "fine", 2)
	svc.fail("X", fmt.Errorf("%w: dial tcp: connection refused", apperrors.ErrServiceUnavailable))
	c := New(svc, "movies")
	require.NoError(t, c.SendMessage(context.Background(), "ok"))
	prevResult := c.Snapshot().Result

	err := c.SendMessage(context.Background(), "X")
	require.Error(t, err)

	st := c.Snapshot()
	assert.Equal(t, user("X"), st.Transcript[len(st.Transcript)-1])
	assert.Len(t, st.Transcript, 3)
	assert.Len(t, st.History, 2, "failed turn never reaches history")
	assert.Equal(t, DefaultErrorMessage, st.Error)
	assert.False(t, st.Loading)
	assert.Same(t, prevResult, st.Result)
}

func TestErrorMessageSelection(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"service message wins", &recservice.ServiceError{Status: 500, Message: "model overloaded"}, "model overloaded"},
		{"timeout", fmt.Errorf("%w: deadline", apperrors.ErrTimeout), TimeoutErrorMessage},
		{"malformed", fmt.Errorf("%w: missing message", apperrors.ErrInvalidResponse), InvalidResponseMessage},
		{"anything else", errors.New("network down"), DefaultErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFake()
			svc.fail("X", tt.err)
			c := New(svc, "books")
			c.SendMessage(context.Background(), "X")
			assert.Equal(t, tt.want, c.Snapshot().Error)
		})
	}

	svc := newFake()
	svc.fail("X", errors.New("down"))
	c := New(svc, "books", WithGenericError("custom"))
	c.SendMessage(context.Background(), "X")
	assert.Equal(t, "custom", c.Snapshot().Error)
}

func TestRetryAfterErrorClearsError(t *testing.T) {
	svc := newFake()
	svc.fail("X", errors.New("down"))
	c := New(svc, "books")
	c.SendMessage(context.Background(), "X")
	require.NotEmpty(t, c.Snapshot().Error)

	gate := svc.gate("again")
	p := c.Prepare("again")
	require.NotNil(t, p)
	assert.Empty(t, c.Snapshot().Error, "error cleared as soon as the next turn starts")
	assert.True(t, c.Snapshot().Loading)

	gate <- answer{result: result("ok", 2)}
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []Message{user("X"), user("again"), assistant("ok")}, c.Snapshot().Transcript)
}

func TestPanicIsRecoveredAndClearsLoading(t *testing.T) {
	svc := newFake()
	svc.answers["X"] = answer{panic: "kaboom"}
	c := New(svc, "books")

	err := c.SendMessage(context.Background(), "X")
	require.Error(t, err)

	st := c.Snapshot()
	assert.False(t, st.Loading)
	assert.Equal(t, DefaultErrorMessage, st.Error)
	assert.Equal(t, []Message{user("X")}, st.Transcript)
}

func TestNilResultIsFailure(t *testing.T) {
	svc := newFake()
	svc.answers["X"] = answer{}
	c := New(svc, "books")

	require.Error(t, c.SendMessage(context.Background(), "X"))
	assert.False(t, c.Snapshot().Loading)
	assert.NotEmpty(t, c.Snapshot().Error)
}

func TestOptimisticAppendOrderAndCompletionOrder(t *testing.T) {
	svc := newFake()
	gateA := svc.gate("A")
	gateB := svc.gate("B")
	c := New(svc, "anime")

	pa := c.Prepare("A")
	pb := c.Prepare("B")
	assert.Equal(t, []Message{user("A"), user("B")}, c.Snapshot().Transcript)
	assert.True(t, c.Snapshot().Loading)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); pa.Run(context.Background()) }()
	go func() { defer wg.Done(); pb.Run(context.Background()) }()

	// B resolves first and lands first.
	gateB <- answer{result: result("answer B", 2)}
	require.Eventually(t, func() bool { return len(c.Snapshot().Transcript) == 3 }, time.Second, time.Millisecond)
	gateA <- answer{result: result("answer A", 2)}
	wg.Wait()

	st := c.Snapshot()
	assert.Equal(t, []Message{user("A"), user("B"), assistant("answer B"), assistant("answer A")}, st.Transcript)
	assert.Equal(t, "answer A", st.Result.Message, "last completion wins the result")
	assert.False(t, st.Loading)

	// Both calls saw the same prior history: neither turn had completed.
	require.Len(t, svc.calls, 2)
	assert.Empty(t, svc.calls[0].history)
	assert.Empty(t, svc.calls[1].history)
}

func TestThemeChangeDuringLoadingResetsImmediately(t *testing.T) {
	for _, guard := range []bool{true, false} {
		t.Run(fmt.Sprintf("stale_guard=%v", guard), func(t *testing.T) {
			svc := newFake()
			svc.reply("warmup", "hi", 2)
			gate := svc.gate("slow")
			c := New(svc, "books", WithStaleGuard(guard))
			require.NoError(t, c.SendMessage(context.Background(), "warmup"))

			p := c.Prepare("slow")
			done := make(chan error, 1)
			go func() { done <- p.Run(context.Background()) }()
			require.True(t, c.Snapshot().Loading)

			c.SetTheme("games")
			st := c.Snapshot()
			assert.Equal(t, themes.Theme("games"), st.Theme)
			assert.Empty(t, st.Transcript)
			assert.Empty(t, st.History)
			assert.Nil(t, st.Result)
			assert.Empty(t, st.Error)
			assert.False(t, st.Loading)

			gate <- answer{result: result("late answer", 2)}
			require.NoError(t, <-done)

			st = c.Snapshot()
			assert.False(t, st.Loading)
			if guard {
				assert.Empty(t, st.Transcript, "stale completion is dropped")
				assert.Nil(t, st.Result)
			} else {
				assert.Equal(t, []Message{assistant("late answer")}, st.Transcript, "stale completion lands in the new session")
				assert.NotNil(t, st.Result)
			}
		})
	}
}

func TestSetThemeSameThemeKeepsSession(t *testing.T) {
	svc := newFake()
	svc.reply("x", "y", 2)
	c := New(svc, "books")
	require.NoError(t, c.SendMessage(context.Background(), "x"))

	c.SetTheme("books")
	c.SetTheme("nonsense") // coerces to books
	assert.Len(t, c.Snapshot().Transcript, 2)
}

func TestResetKeepsLoadingAndTheme(t *testing.T) {
	svc := newFake()
	gate := svc.gate("slow")
	c := New(svc, "movies")

	p := c.Prepare("slow")
	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	c.Reset()
	st := c.Snapshot()
	assert.Empty(t, st.Transcript)
	assert.True(t, st.Loading, "reset does not touch loading")
	assert.Equal(t, themes.Theme("movies"), st.Theme)

	gate <- answer{err: errors.New("late failure")}
	<-done

	st = c.Snapshot()
	assert.False(t, st.Loading, "stale completion still releases loading")
	assert.Empty(t, st.Error, "stale failure is dropped")
	assert.Empty(t, st.Transcript)
}

func TestStaleCompletionKeepsLoadingForNewTurn(t *testing.T) {
	svc := newFake()
	gateOld := svc.gate("old")
	gateNew := svc.gate("new")
	c := New(svc, "books")

	pOld := c.Prepare("old")
	doneOld := make(chan error, 1)
	go func() { doneOld <- pOld.Run(context.Background()) }()
	c.Reset()

	pNew := c.Prepare("new")
	doneNew := make(chan error, 1)
	go func() { doneNew <- pNew.Run(context.Background()) }()

	gateOld <- answer{result: result("old answer", 2)}
	<-doneOld
	assert.True(t, c.Snapshot().Loading, "the new turn is still in flight")

	gateNew <- answer{result: result("new answer", 2)}
	<-doneNew
	st := c.Snapshot()
	assert.False(t, st.Loading)
	assert.Equal(t, []Message{user("new"), assistant("new answer")}, st.Transcript)
}

func TestRunOnce(t *testing.T) {
	svc := newFake()
	svc.reply("x", "y", 2)
	c := New(svc, "books")

	p := c.Prepare("x")
	require.NoError(t, p.Run(context.Background()))
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, 1, svc.callCount())
	assert.Len(t, c.Snapshot().Transcript, 2)
	assert.Equal(t, "x", p.Text())
}

func TestOnUpdateFiresPerMutation(t *testing.T) {
	svc := newFake()
	svc.reply("x", "y", 2)
	c := New(svc, "books")

	updates := 0
	c.OnUpdate(func() { updates++ })
	require.NoError(t, c.SendMessage(context.Background(), "x"))
	assert.Equal(t, 2, updates, "one for the optimistic append, one for the completion")

	c.Reset()
	c.SetTheme("games")
	assert.Equal(t, 4, updates)
}

func TestSnapshotIsACopy(t *testing.T) {
	svc := newFake()
	svc.reply("x", "y", 2)
	c := New(svc, "books")
	require.NoError(t, c.SendMessage(context.Background(), "x"))

	st := c.Snapshot()
	st.Transcript[0].Content = "mutated"
	st.History[0].Content = "mutated"
	assert.Equal(t, "x", c.Snapshot().Transcript[0].Content)
	assert.Equal(t, "x", c.Snapshot().History[0].Content)
}

func TestCanceledContextIsOrdinaryFailure(t *testing.T) {
	svc := newFake()
	svc.gate("slow")
	c := New(svc, "books")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, c.SendMessage(ctx, "slow"))
	assert.False(t, c.Snapshot().Loading)
	assert.Equal(t, DefaultErrorMessage, c.Snapshot().Error)
}
