package diff

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordDiffBasic(t *testing.T) {
	t.Parallel()

	segs := WordDiff("the quick brown fox", "the slow brown fox")
	require.Len(t, segs, 4)
	assert.Equal(t, OpEqual, segs[0].Op)
	assert.Equal(t, []string{"the"}, segs[0].Words)
	assert.Equal(t, OpDelete, segs[1].Op)
	assert.Equal(t, []string{"quick"}, segs[1].Words)
	assert.Equal(t, OpInsert, segs[2].Op)
	assert.Equal(t, []string{"slow"}, segs[2].Words)
	assert.Equal(t, OpEqual, segs[3].Op)
	assert.Equal(t, []string{"brown", "fox"}, segs[3].Words)
}

func TestWordDiffIdentical(t *testing.T) {
	t.Parallel()

	segs := WordDiff("same text here", "same text here")
	require.Len(t, segs, 1)
	assert.Equal(t, OpEqual, segs[0].Op)
}

func TestWordDiffDisjoint(t *testing.T) {
	t.Parallel()

	segs := WordDiff("alpha beta", "gamma delta")
	require.Len(t, segs, 2)
	assert.Equal(t, OpDelete, segs[0].Op)
	assert.Equal(t, OpInsert, segs[1].Op)
}

func TestMergePunctuationInsert(t *testing.T) {
	t.Parallel()

	// "Bob" -> "Bob," must mark only the inserted comma, not the whole word.
	segs := Merge(WordDiff("Alice, Bob and Charlie", "Alice, Bob, and Charlie"))
	fragment := MarkupFragment(segs)
	assert.Equal(t, "Alice, Bob<ins>,</ins> and Charlie", fragment)
}

func TestMergePunctuationDelete(t *testing.T) {
	t.Parallel()

	segs := Merge(WordDiff("Alice, Bob, and Charlie", "Alice, Bob and Charlie"))
	fragment := MarkupFragment(segs)
	assert.Equal(t, "Alice, Bob<del>,</del> and Charlie", fragment)
}

func TestInsertOnlyRunStaysWhole(t *testing.T) {
	t.Parallel()

	segs := Merge(WordDiff("officials warn", "top officials warn"))
	fragment := MarkupFragment(segs)
	assert.Equal(t, "<ins>top</ins> officials warn", fragment)
}

func TestMergeSingleDeletionAgainstMultiWordInsertion(t *testing.T) {
	t.Parallel()

	segs := Merge(WordDiff("a Bob c", "a Bob, quietly c"))
	fragment := MarkupFragment(segs)
	assert.Equal(t, "a Bob<ins>,</ins> <ins>quietly</ins> c", fragment)
}

func TestMarkupFragmentEscapes(t *testing.T) {
	t.Parallel()

	segs := []Segment{
		{Op: OpEqual, Words: []string{"a", "<b>"}},
		{Op: OpInsert, Words: []string{"&c"}},
	}
	assert.Equal(t, "a &lt;b&gt; <ins>&amp;c</ins>", MarkupFragment(segs))
}

type fakeEngine struct {
	calls int
	image []byte
	err   error
}

func (f *fakeEngine) RenderFragment(ctx context.Context, html string) ([]byte, error) {
	f.calls++
	return f.image, f.err
}

func TestRendererEmptyDiffGuard(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{image: []byte{1}}
	r := NewRenderer(engine, nil)

	// Identical after whitespace normalization: no render call at all.
	img, ok, err := r.Render(context.Background(), "same  text", "same text")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, img)
	assert.Zero(t, engine.calls)

	// Empty side: same guard.
	_, ok, err = r.Render(context.Background(), "", "new text")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, engine.calls)
}

func TestRendererProducesImage(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{image: []byte("png-bytes")}
	r := NewRenderer(engine, nil)

	img, ok, err := r.Render(context.Background(), "old title", "new title")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("png-bytes"), img)
	assert.Equal(t, 1, engine.calls)
}

func TestRendererEngineFailure(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{err: errors.New("browser crashed")}
	r := NewRenderer(engine, nil)

	_, ok, err := r.Render(context.Background(), "old title", "new title")
	require.Error(t, err)
	assert.False(t, ok)
}
