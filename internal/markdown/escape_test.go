package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapePlainText(t *testing.T) {
	assert.Equal(t, "hello world", Escape("hello world"))
	assert.Equal(t, `a\_b and c\*d\!`, Escape("a_b and c*d!"))
	assert.Equal(t, `1\. item \(note\)`, Escape("1. item (note)"))
}

func TestEscapePreservesInlineCode(t *testing.T) {
	got := Escape("a_b `x*y` c*d")
	assert.Equal(t, "a\\_b `x*y` c\\*d", got)
}

func TestEscapePreservesFencedCode(t *testing.T) {
	in := "look:\n```go\na := b_c * d\n```\ndone."
	got := Escape(in)
	assert.Contains(t, got, "```go\na := b_c * d\n```")
	assert.Contains(t, got, "done\\.")
	assert.Contains(t, got, "look:")
}

func TestEscapeFencedWinsOverInline(t *testing.T) {
	in := "```\ninner `span` stays\n```"
	assert.Equal(t, in, Escape(in))
}

func TestEscapeMultipleSpans(t *testing.T) {
	got := Escape("`a_1` mid_dle `b_2`")
	assert.Equal(t, "`a_1` mid\\_dle `b_2`", got)
}

func TestEscapeRepeatedIdenticalSpans(t *testing.T) {
	// Indexed tokens must restore each occurrence in position even
	// when spans are byte-identical.
	got := Escape("`x` and `x` again!")
	assert.Equal(t, "`x` and `x` again\\!", got)
}

func TestEscapeFenceInsideInlineSpan(t *testing.T) {
	in := "`a ```x_y``` b`"
	assert.Equal(t, in, Escape(in))
}

func TestEscapeEmpty(t *testing.T) {
	assert.Equal(t, "", Escape(""))
}

func TestEscapeUnicode(t *testing.T) {
	assert.Equal(t, `héllo\.`, Escape("héllo."))
}
