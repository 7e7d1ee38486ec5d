// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/talkchat/internal/backend"
	"github.com/jeranaias/talkchat/internal/chat"
	"github.com/jeranaias/talkchat/internal/model"
)

// =============================================================================
// PARSER TESTS
// =============================================================================

func TestIsCommand(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"/help", true},
		{"/model gpt", true},
		{"  /help", true},
		{"hello", false},
		{"hello /help", false},
		{"", false},
		{"/", true},
	}

	for _, tc := range tests {
		if got := IsCommand(tc.input); got != tc.want {
			t.Errorf("IsCommand(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestExtractCommandName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/help", "/help"},
		{"/model gpt", "/model"},
		{"  /upload notes.txt  ", "/upload"},
		{"hello", ""},
		{"/", "/"},
	}

	for _, tc := range tests {
		if got := ExtractCommandName(tc.input); got != tc.want {
			t.Errorf("ExtractCommandName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestSplitCommandLine(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"/upload a.txt", []string{"/upload", "a.txt"}},
		{`/upload "my notes.pdf"`, []string{"/upload", "my notes.pdf"}},
		{`/upload 'it''s.txt'`, []string{"/upload", "its.txt"}},
		{`/model "say \"hi\""`, []string{"/model", `say "hi"`}},
		{"/model   spaced   out", []string{"/model", "spaced", "out"}},
		{"/upload résumé.pdf", []string{"/upload", "résumé.pdf"}},
		{"", nil},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, splitCommandLine(tc.input), tc.input)
	}
}

func TestParser_Parse(t *testing.T) {
	p := NewParser(NewRegistry())

	res := p.Parse("hello there")
	assert.False(t, res.IsCommand)
	assert.Equal(t, "hello there", res.RawInput)

	res = p.Parse("  /m  Mistral Small 3.2 24B ")
	require.True(t, res.IsCommand)
	require.NotNil(t, res.Command)
	assert.Equal(t, "/model", res.Command.Name)
	assert.Equal(t, "/m", res.CommandName)
	assert.Equal(t, []string{"Mistral", "Small", "3.2", "24B"}, res.Args)
	assert.Equal(t, "Mistral Small 3.2 24B", res.RawArgs)

	res = p.Parse("/nope")
	assert.True(t, res.IsCommand)
	assert.Nil(t, res.Command)
}

func TestValidateArgs(t *testing.T) {
	cmd := &Command{
		Name:  "/fmt",
		Usage: "/fmt <style>",
		Args: []ArgDef{
			{Name: "style", Required: true, Type: ArgTypeEnum, Values: []string{"plain", "md"}},
		},
	}

	assert.NoError(t, ValidateArgs(cmd, []string{"MD"}))
	assert.NoError(t, ValidateArgs(nil, nil))

	err := ValidateArgs(cmd, nil)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "style", verr.Arg)
	assert.Contains(t, err.Error(), "required argument missing")

	err = ValidateArgs(cmd, []string{"html"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "html", verr.Got)
	assert.Equal(t, "/fmt: invalid value for argument 'style' (got: html), expected: plain, md", err.Error())
}

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestRegistry_Builtins(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"/help", "/h", "/?", "/quit", "/q", "/exit", "/model", "/m", "/models", "/upload", "/u", "/history"} {
		assert.NotNil(t, r.Get(name), name)
	}
	assert.Nil(t, r.Get("/bogus"))

	all := r.All()
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Name, all[i].Name)
	}
}

func TestRegistry_ByCategorySkipsHidden(t *testing.T) {
	r := NewRegistry()
	r.Register(&Command{Name: "/secret", Hidden: true})
	r.Register(&Command{Name: "/misc"})

	groups := r.ByCategory()
	assert.Contains(t, groups, "General")
	for _, cmds := range groups {
		for _, c := range cmds {
			assert.NotEqual(t, "/secret", c.Name)
		}
	}
}

// =============================================================================
// HANDLER TESTS
// =============================================================================

type replyTransport struct {
	reply string
}

func (t replyTransport) OpenChat(context.Context, backend.ChatRequest) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(t.reply)), nil
}

type fakeUploader struct {
	path string
	res  *backend.UploadResult
	err  error
}

func (u *fakeUploader) UploadDocument(_ context.Context, path string) (*backend.UploadResult, error) {
	u.path = path
	return u.res, u.err
}

func newEnv(t *testing.T) *Env {
	t.Helper()
	return &Env{Chat: chat.New(replyTransport{reply: "Hi there"}, model.NewConversation())}
}

func run(t *testing.T, env *Env, input string) (Reply, error) {
	t.Helper()
	r := NewRegistry()
	return r.Execute(context.Background(), env, NewParser(r).Parse(input))
}

func TestExecute_UnknownAndNonCommand(t *testing.T) {
	env := newEnv(t)

	_, err := run(t, env, "/frobnicate")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = run(t, env, "just text")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestHelp_ListsCommands(t *testing.T) {
	reply, err := run(t, newEnv(t), "/help")
	require.NoError(t, err)
	for _, want := range []string{"Navigation:", "Model:", "/upload <file>", "/model [id]"} {
		assert.Contains(t, reply.Text, want)
	}
	assert.False(t, reply.Quit)
}

func TestQuit(t *testing.T) {
	reply, err := run(t, newEnv(t), "/exit")
	require.NoError(t, err)
	assert.True(t, reply.Quit)
}

func TestModel_ShowAndSwitch(t *testing.T) {
	env := newEnv(t)

	reply, err := run(t, env, "/model")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, model.DefaultModel.ID)

	reply, err = run(t, env, "/model gpt-oss-20b")
	require.NoError(t, err)
	assert.Equal(t, "Switched to gpt-oss-20b", reply.Text)
	assert.Equal(t, "openai/gpt-oss-20b:free", env.Chat.Model().ID)

	reply, err = run(t, env, "/model vendor/custom")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "not in catalog")
	assert.Equal(t, "vendor/custom", env.Chat.Model().ID)
}

func TestModels_MarksCurrent(t *testing.T) {
	env := newEnv(t)
	env.Models = []model.ModelInfo{{ID: "a", Name: "Alpha"}, model.DefaultModel}

	reply, err := run(t, env, "/models")
	require.NoError(t, err)
	lines := strings.Split(reply.Text, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], " "))
	assert.True(t, strings.HasPrefix(lines[1], "*"))
}

func TestUpload(t *testing.T) {
	env := newEnv(t)

	_, err := run(t, env, "/upload notes.txt")
	assert.ErrorIs(t, err, ErrUploadUnavailable)

	_, err = run(t, env, "/upload")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	up := &fakeUploader{res: &backend.UploadResult{StatusCode: 200, Detail: "indexed"}}
	env.Uploader = up
	reply, err := run(t, env, `/upload "docs/my notes.txt"`)
	require.NoError(t, err)
	assert.Equal(t, "docs/my notes.txt", up.path)
	assert.Equal(t, "Uploaded my notes.txt (status 200): indexed", reply.Text)

	up.err = backend.ErrUnsupportedFile
	_, err = run(t, env, "/upload x.doc")
	assert.ErrorIs(t, err, backend.ErrUnsupportedFile)
}

func TestHistory(t *testing.T) {
	env := newEnv(t)

	reply, err := run(t, env, "/history")
	require.NoError(t, err)
	assert.Equal(t, "No messages yet.", reply.Text)

	_, err = env.Chat.Submit(context.Background(), "Hello\nsecond line")
	require.NoError(t, err)

	reply, err = run(t, env, "/history")
	require.NoError(t, err)
	assert.Equal(t, "[1] You: Hello\n[2] Assistant: Hi there", reply.Text)
}
