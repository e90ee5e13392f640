package contextmgr

import (
	"context"
	"errors"

	"deskpilot/internal/types"
)

// fakeKnowledge returns canned contents and records the requested ids.
type fakeKnowledge struct {
	contents []string
	err      error
	gotIDs   []string
}

func (f *fakeKnowledge) GetContents(_ context.Context, ids []string) ([]string, error) {
	f.gotIDs = ids
	if f.err != nil {
		return nil, f.err
	}
	return f.contents, nil
}

// fakeSummarizer records its input and returns a fixed summary.
type fakeSummarizer struct {
	summary string
	err     error
	calls   int
	got     []types.Message
}

func (f *fakeSummarizer) Summarize(_ context.Context, msgs []types.Message) (string, error) {
	f.calls++
	f.got = msgs
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

// fakeCompletion implements types.CompletionClient for summarizer tests.
type fakeCompletion struct {
	response  string
	err       error
	gotSystem string
	gotUser   string
}

func (f *fakeCompletion) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *fakeCompletion) CompleteWithSystem(_ context.Context, system, user string) (string, error) {
	f.gotSystem = system
	f.gotUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

var errBoom = errors.New("boom")
