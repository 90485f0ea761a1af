package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeStream struct {
	results chan Transcript
	errs    chan error
	stopped chan struct{}
	once    sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		results: make(chan Transcript),
		errs:    make(chan error),
		stopped: make(chan struct{}),
	}
}

func (f *fakeStream) Results() <-chan Transcript { return f.results }
func (f *fakeStream) Errors() <-chan error       { return f.errs }

func (f *fakeStream) Stop() error {
	f.once.Do(func() { close(f.stopped) })
	return nil
}

// finish closes the result channels, ending the listener's consumer.
func (f *fakeStream) finish() {
	close(f.results)
	close(f.errs)
}

type fakeRecognizer struct {
	auth    Authorization
	streams []*fakeStream
	asked   int
}

func (r *fakeRecognizer) Authorize(context.Context) Authorization {
	r.asked++
	return r.auth
}

func (r *fakeRecognizer) Listen(context.Context) (Stream, error) {
	s := newFakeStream()
	r.streams = append(r.streams, s)
	return s, nil
}

func waitPartial(t *testing.T, l *Listener, want string) {
	t.Helper()
	require.Eventually(t, func() bool { return l.Partial() == want }, time.Second, time.Millisecond)
}

func TestListenerJoinsFinalsAndDropsPartials(t *testing.T) {
	rec := &fakeRecognizer{auth: AuthGranted}
	l := NewListener(rec, nil)
	require.NoError(t, l.Start(context.Background()))
	require.True(t, l.Listening())
	s := rec.streams[0]

	s.results <- Transcript{Kind: TranscriptPartial, Text: "the soup"}
	s.results <- Transcript{Kind: TranscriptFinal, Text: "the soup is"}
	s.results <- Transcript{Kind: TranscriptFinal, Text: "  delicious "}
	s.results <- Transcript{Kind: TranscriptPartial, Text: "and the bread"}
	waitPartial(t, l, "and the bread")

	text, err := l.Stop()
	require.NoError(t, err)
	require.Equal(t, "the soup is delicious", text)
	require.False(t, l.Listening())
	require.Empty(t, l.Partial())

	<-s.stopped
	s.finish()
}

func TestListenerIgnoresLateResults(t *testing.T) {
	rec := &fakeRecognizer{auth: AuthGranted}
	l := NewListener(rec, nil)

	require.NoError(t, l.Start(context.Background()))
	first := rec.streams[0]
	_, err := l.Stop()
	require.NoError(t, err)

	require.NoError(t, l.Start(context.Background()))
	second := rec.streams[1]

	// A stray final from the first turn arrives after the user moved on.
	first.results <- Transcript{Kind: TranscriptFinal, Text: "stale"}
	first.errs <- errors.New("stale error")
	second.results <- Transcript{Kind: TranscriptFinal, Text: "fresh"}
	second.results <- Transcript{Kind: TranscriptPartial, Text: "sync"}
	waitPartial(t, l, "sync")

	text, err := l.Stop()
	require.NoError(t, err)
	require.Equal(t, "fresh", text)

	first.finish()
	second.finish()
}

func TestListenerReportsStreamErrors(t *testing.T) {
	rec := &fakeRecognizer{auth: AuthGranted}
	l := NewListener(rec, nil)
	require.NoError(t, l.Start(context.Background()))
	s := rec.streams[0]

	boom := errors.New("audio engine stopped")
	s.errs <- boom
	s.results <- Transcript{Kind: TranscriptPartial, Text: "x"}
	waitPartial(t, l, "x")

	_, err := l.Stop()
	require.ErrorIs(t, err, boom)
	s.finish()
}

func TestListenerUnauthorized(t *testing.T) {
	for _, auth := range []Authorization{AuthDenied, AuthRestricted} {
		rec := &fakeRecognizer{auth: auth}
		l := NewListener(rec, nil)
		err := l.Start(context.Background())
		require.ErrorIs(t, err, ErrCapabilityUnavailable)
		require.Contains(t, err.Error(), auth.Advisory())
		require.False(t, l.Listening())
		require.Empty(t, rec.streams)
	}
}

func TestListenerAuthorizesOnce(t *testing.T) {
	rec := &fakeRecognizer{auth: AuthGranted}
	l := NewListener(rec, nil)
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Start(context.Background()))
		require.NoError(t, l.Start(context.Background())) // already listening
		_, err := l.Stop()
		require.NoError(t, err)
	}
	require.Equal(t, 1, rec.asked)
	require.Len(t, rec.streams, 3)
	for _, s := range rec.streams {
		s.finish()
	}
}

func TestUnavailableRecognizer(t *testing.T) {
	l := NewListener(Unavailable{}, nil)
	require.ErrorIs(t, l.Start(context.Background()), ErrCapabilityUnavailable)
	text, err := l.Stop()
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestMutedSynthesizer(t *testing.T) {
	var m Muted
	require.NoError(t, m.Speak("hello", "voice"))
	select {
	case u := <-m.Finished():
		require.Equal(t, Utterance{Text: "hello", Voice: "voice"}, u)
	case <-time.After(time.Second):
		t.Fatal("no finished notification")
	}
}

func TestCommandSynthesizerFinishes(t *testing.T) {
	c, err := NewCommandSynthesizer("true -v {voice}", nil)
	if err != nil {
		t.Skipf("true not available: %v", err)
	}
	defer c.Close()

	require.NoError(t, c.Speak("hello", "Samantha"))
	select {
	case u := <-c.Finished():
		require.Equal(t, "hello", u.Text)
	case <-time.After(5 * time.Second):
		t.Fatal("speech command did not finish")
	}
}

func TestCommandSynthesizerStopSpeaking(t *testing.T) {
	c, err := NewCommandSynthesizer("sleep", nil)
	if err != nil {
		t.Skipf("sleep not available: %v", err)
	}
	defer c.Close()

	require.NoError(t, c.Speak("30", ""))
	require.NoError(t, c.StopSpeaking())
	select {
	case u := <-c.Finished():
		require.Equal(t, "30", u.Text)
	case <-time.After(5 * time.Second):
		t.Fatal("stopped utterance was not reported finished")
	}
}

func TestCommandSynthesizerMissingProgram(t *testing.T) {
	_, err := NewCommandSynthesizer("definitely-not-a-tts-binary", nil)
	require.ErrorIs(t, err, ErrCapabilityUnavailable)
	_, err = NewCommandSynthesizer("  ", nil)
	require.ErrorIs(t, err, ErrCapabilityUnavailable)
}
