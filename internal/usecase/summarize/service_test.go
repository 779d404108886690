package summarize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgassist/tgassist/internal/domain"
	"github.com/tgassist/tgassist/internal/repository/metadata"
)

// mockCompleter answers by matching the system prompt.
type mockCompleter struct {
	answers map[string]string
	err     error
	prompts []string
}

func (m *mockCompleter) Complete(_ context.Context, system, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.answers[system], nil
}

func goodCompleter() *mockCompleter {
	return &mockCompleter{answers: map[string]string{
		namePrompt.system:  "  Утренняя зарядка \n",
		shortPrompt.system: "Короткое описание.",
		longPrompt.system:  "Длинное описание. Второе предложение. Третье.",
	}}
}

type mockStore struct {
	saved map[string]metadata.Entry
	err   error
}

func (m *mockStore) Save(_ context.Context, stem string, e metadata.Entry) error {
	if m.err != nil {
		return m.err
	}
	if m.saved == nil {
		m.saved = map[string]metadata.Entry{}
	}
	m.saved[stem] = e
	return nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDescribe(t *testing.T) {
	c := goodCompleter()
	svc := New(c, &mockStore{})

	entry, err := svc.Describe(context.Background(), "transcript text")
	require.NoError(t, err)
	assert.Equal(t, "Утренняя зарядка", entry.Name)
	assert.Equal(t, "Короткое описание.", entry.ShortDescription)
	assert.Equal(t, "Длинное описание. Второе предложение. Третье.", entry.LongDescription)

	require.Len(t, c.prompts, 3)
	for _, p := range c.prompts {
		assert.True(t, strings.HasSuffix(p, "\n\ntranscript text"), "content must follow the instruction")
	}
}

func TestDescribe_EmptyCompletion(t *testing.T) {
	c := goodCompleter()
	c.answers[shortPrompt.system] = "   "

	_, err := New(c, &mockStore{}).Describe(context.Background(), "text")
	assert.ErrorIs(t, err, domain.ErrEmptyCompletion)
}

func TestProcessFile_SavesUnderStem(t *testing.T) {
	store := &mockStore{}
	svc := New(goodCompleter(), store)
	path := writeFile(t, t.TempDir(), "lesson_01.txt", "content")

	require.NoError(t, svc.ProcessFile(context.Background(), path))
	assert.Equal(t, "Утренняя зарядка", store.saved["lesson_01"].Name)
}

func TestProcessFile_EmptyText(t *testing.T) {
	svc := New(goodCompleter(), &mockStore{})
	path := writeFile(t, t.TempDir(), "blank.txt", " \n ")

	err := svc.ProcessFile(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFile)
}

func TestProcessDir_ContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "first")
	writeFile(t, dir, "b.txt", "")
	writeFile(t, dir, "c.txt", "third")
	writeFile(t, dir, "ignored.md", "skip me")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	store := &mockStore{}
	sum, err := New(goodCompleter(), store).ProcessDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed)
	assert.Contains(t, sum.Failures, filepath.Join(dir, "b.txt"))
	assert.Len(t, store.saved, 2)
}

func TestProcessDir_NoFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.md", "x")

	_, err := New(goodCompleter(), &mockStore{}).ProcessDir(context.Background(), dir)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestProcessFiles_ProviderErrorCounted(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "text")
	c := &mockCompleter{err: domain.ErrCompletionProviderError}

	sum := New(c, &mockStore{}).ProcessFiles(context.Background(), []string{path})
	assert.Equal(t, 1, sum.Failed)
	assert.True(t, errors.Is(sum.Failures[path], domain.ErrCompletionProviderError))
}

func TestProcessFiles_SaveError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "text")
	store := &mockStore{err: errors.New("disk full")}

	sum := New(goodCompleter(), store).ProcessFiles(context.Background(), []string{path})
	assert.Equal(t, 0, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed)
}

func TestDescribe_TruncatesLongContent(t *testing.T) {
	c := goodCompleter()
	_, err := New(c, &mockStore{}).Describe(context.Background(), strings.Repeat("ж", maxContentRunes+10))
	require.NoError(t, err)

	body := strings.SplitN(c.prompts[0], "\n\n", 2)[1]
	assert.Equal(t, maxContentRunes, len([]rune(body)))
}
