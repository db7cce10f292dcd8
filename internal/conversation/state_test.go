package conversation_test

import (
	"testing"
	"time"

	"github.com/raphaelgruber/bankchat/internal/conversation"
	"github.com/raphaelgruber/bankchat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func fixedClock() func() time.Time {
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Second)
	}
}

func TestSubmitTextAppendsUserMessageBeforeReply(t *testing.T) {
	s := conversation.New(conversation.OrderArrival)

	s, ex, ok := conversation.SubmitText(s, "My card was charged twice")
	require.True(t, ok)
	assert.Equal(t, uint64(1), ex.ID)
	assert.Equal(t, "My card was charged twice", ex.Query)
	assert.False(t, ex.IsFile())

	require.Equal(t, 1, s.Len())
	msgs := s.Messages()
	assert.Equal(t, models.SenderUser, msgs[0].Sender)
	assert.Equal(t, "My card was charged twice", msgs[0].Text)
	assert.True(t, s.Loading())

	result := &models.AnalysisResult{TicketTitle: ptr("Duplicate Charge")}
	s = conversation.Resolve(s, ex.ID, result)

	require.Equal(t, 2, s.Len())
	msgs = s.Messages()
	assert.Equal(t, models.SenderBot, msgs[1].Sender)
	assert.Same(t, result, msgs[1].Analysis)
	assert.False(t, s.Loading())
}

func TestSubmitTextRejectsBlank(t *testing.T) {
	for _, in := range []string{"", " ", "\t\n  "} {
		s := conversation.New(conversation.OrderArrival)
		next, ex, ok := conversation.SubmitText(s, in)
		assert.False(t, ok, "input %q", in)
		assert.Zero(t, ex)
		assert.Equal(t, 0, next.Len())
		assert.False(t, next.Loading())
	}
}

func TestSubmitTextTrims(t *testing.T) {
	s, ex, ok := conversation.SubmitText(conversation.New(conversation.OrderArrival), "  lost card \n")
	require.True(t, ok)
	assert.Equal(t, "lost card", ex.Query)
	assert.Equal(t, "lost card", s.Messages()[0].Text)
}

func TestFailAppendsExactlyOneMessage(t *testing.T) {
	s, ex, _ := conversation.SubmitText(conversation.New(conversation.OrderArrival), "hello")
	before := s.Len()

	s = conversation.Fail(s, ex.ID, conversation.FailureText)
	assert.Equal(t, before+1, s.Len())
	assert.Equal(t, "❌ Unable to connect to Banking AI Engine.", s.Messages()[before].Text)
	assert.False(t, s.Loading())
}

func TestSettleTwiceIsNoop(t *testing.T) {
	s, ex, _ := conversation.SubmitText(conversation.New(conversation.OrderArrival), "hello")
	s = conversation.Fail(s, ex.ID, conversation.FailureText)
	s = conversation.Resolve(s, ex.ID, &models.AnalysisResult{})
	s = conversation.Fail(s, 99, conversation.FailureText)
	assert.Equal(t, 2, s.Len(), "one bot message per exchange")
}

func TestResolveNilResultFails(t *testing.T) {
	s, ex, _ := conversation.SubmitText(conversation.New(conversation.OrderArrival), "hello")
	s = conversation.Resolve(s, ex.ID, nil)
	assert.Equal(t, conversation.FailureText, s.Messages()[1].Text)
}

func TestSubmitFile(t *testing.T) {
	s, ex := conversation.SubmitFile(conversation.New(conversation.OrderArrival), "/home/me/docs/statement.pdf")
	assert.True(t, ex.IsFile())
	assert.Equal(t, "/home/me/docs/statement.pdf", ex.Path)
	assert.Equal(t, "📄 statement.pdf", s.Messages()[0].Text)
	assert.True(t, s.Loading())

	s = conversation.Fail(s, ex.ID, conversation.ExtractionFailureText)
	assert.Equal(t, conversation.ExtractionFailureText, s.Messages()[1].Text)
	assert.False(t, s.Loading())
}

func TestArrivalOrdering(t *testing.T) {
	s := conversation.New(conversation.OrderArrival)
	s, first, _ := conversation.SubmitText(s, "first")
	s, second, _ := conversation.SubmitText(s, "second")
	assert.Equal(t, first.ID+1, second.ID, "ids are monotonic")

	s = conversation.Fail(s, second.ID, "reply to second")
	assert.True(t, s.Loading(), "first still in flight")
	s = conversation.Fail(s, first.ID, "reply to first")

	texts := texts(s)
	assert.Equal(t, []string{"first", "second", "reply to second", "reply to first"}, texts)
}

func TestSubmissionOrdering(t *testing.T) {
	s := conversation.New(conversation.OrderSubmission)
	s, first, _ := conversation.SubmitText(s, "first")
	s, second, _ := conversation.SubmitText(s, "second")
	s, third, _ := conversation.SubmitText(s, "third")

	s = conversation.Fail(s, third.ID, "reply 3")
	s = conversation.Fail(s, second.ID, "reply 2")
	assert.Equal(t, 3, s.Len(), "replies held until the first settles")
	assert.True(t, s.Loading())
	assert.Equal(t, 1, s.InFlight())

	s = conversation.Fail(s, first.ID, "reply 1")
	assert.Equal(t, []string{"first", "second", "third", "reply 1", "reply 2", "reply 3"}, texts(s))
	assert.False(t, s.Loading())

	// A later exchange flows straight through once nothing earlier is pending.
	s, fourth, _ := conversation.SubmitText(s, "fourth")
	s = conversation.Fail(s, fourth.ID, "reply 4")
	assert.Equal(t, "reply 4", s.Messages()[s.Len()-1].Text)
}

func TestTransitionsDoNotMutateEarlierStates(t *testing.T) {
	s0 := conversation.New(conversation.OrderSubmission)
	s1, a, _ := conversation.SubmitText(s0, "a")
	s2, b, _ := conversation.SubmitText(s1, "b")
	s3 := conversation.Fail(s2, b.ID, "reply b")
	_ = conversation.Fail(s3, a.ID, "reply a")

	assert.Equal(t, 0, s0.Len())
	assert.Equal(t, 1, s1.Len())
	assert.Equal(t, 1, s1.InFlight())
	assert.Equal(t, 2, s2.Len())
	assert.Equal(t, 2, s2.InFlight())
	assert.Equal(t, 2, s3.Len(), "reply b still held in s3")
	assert.Equal(t, 1, s3.InFlight())

	// Branching from the same state must not clobber a sibling.
	left := conversation.AppendNotice(s1, "left")
	right := conversation.AppendNotice(s1, "right")
	assert.Equal(t, "left", left.Messages()[1].Text)
	assert.Equal(t, "right", right.Messages()[1].Text)
}

func TestMessageIDsAndTimestamps(t *testing.T) {
	s := conversation.New(conversation.OrderArrival).WithClock(fixedClock())
	s = conversation.AppendNotice(s, conversation.WelcomeText)
	s, ex, _ := conversation.SubmitText(s, "hi")
	s = conversation.Fail(s, ex.ID, conversation.FailureText)

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	for i, m := range msgs {
		assert.Equal(t, uint64(i+1), m.ID)
		if i > 0 {
			assert.True(t, m.At.After(msgs[i-1].At))
		}
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	s := conversation.AppendNotice(conversation.New(conversation.OrderArrival), "hello")
	msgs := s.Messages()
	msgs[0].Text = "changed"
	assert.Equal(t, "hello", s.Messages()[0].Text)
}

func TestParseOrdering(t *testing.T) {
	assert.Equal(t, conversation.OrderSubmission, conversation.ParseOrdering("Submission"))
	assert.Equal(t, conversation.OrderArrival, conversation.ParseOrdering("arrival"))
	assert.Equal(t, conversation.OrderArrival, conversation.ParseOrdering(""))
	assert.Equal(t, "submission", conversation.OrderSubmission.String())
}

func texts(s conversation.State) []string {
	var out []string
	for _, m := range s.Messages() {
		out = append(out, m.Text)
	}
	return out
}
