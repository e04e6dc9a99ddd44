package selection

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inplace/internal/ax"
	"inplace/internal/ax/axtest"
	"inplace/internal/clipboard"
	"inplace/internal/keys"
)

type fixture struct {
	doc    *axtest.Doc
	bridge *axtest.Bridge
	pb     *clipboard.Memory
	keys   *keys.Recorder
	slept  []time.Duration
	mon    *Monitor
}

func newFixture(doc *axtest.Doc) *fixture {
	f := &fixture{
		doc:    doc,
		bridge: &axtest.Bridge{Focused: doc},
		pb:     clipboard.NewMemory(),
		keys:   &keys.Recorder{},
	}
	f.mon = New(f.bridge, f.pb, f.keys, Config{
		Sleep: func(ctx context.Context, d time.Duration) error {
			f.slept = append(f.slept, d)
			return ctx.Err()
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

func rangeOf(doc, sub string) *ax.Range {
	i := strings.Index(doc, sub)
	if i < 0 {
		return nil
	}
	return &ax.Range{Location: ax.Len16(doc[:i]), Length: ax.Len16(sub)}
}

func TestCaptureDirect(t *testing.T) {
	text := "I saw teh quick fox"
	f := newFixture(&axtest.Doc{
		Text:       text,
		Sel:        *rangeOf(text, "teh quick"),
		BoundsRect: ax.Rect{Origin: ax.Point{X: 10, Y: 20}, Size: ax.Size{Width: 60, Height: 14}},
		FrameRect:  ax.Rect{Size: ax.Size{Width: 400, Height: 300}},
	})

	sel, err := f.mon.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "teh quick", sel.Text)
	require.NotNil(t, sel.Range)
	assert.Equal(t, ax.Range{Location: 6, Length: 9}, *sel.Range)
	require.NotNil(t, sel.Frame)
	assert.Equal(t, 60.0, sel.Frame.Size.Width, "range bounds preferred over element frame")
	assert.Empty(t, f.keys.Sent())
}

func TestCaptureSlicesValueWhenSelectedTextMissing(t *testing.T) {
	text := "héllo 😀 world"
	f := newFixture(&axtest.Doc{
		Text:           text,
		Sel:            *rangeOf(text, "😀 world"),
		NoSelectedText: true,
		FrameRect:      ax.Rect{Size: ax.Size{Width: 400, Height: 300}},
	})

	sel, err := f.mon.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "😀 world", sel.Text)
	require.NotNil(t, sel.Frame)
	assert.Equal(t, 400.0, sel.Frame.Size.Width, "falls back to element frame")
}

func TestCaptureCollapsedRangeIsEmptySelection(t *testing.T) {
	f := newFixture(&axtest.Doc{
		Text:           "hello",
		Sel:            ax.Range{Location: 2},
		NoSelectedText: true,
	})

	_, err := f.mon.Capture(context.Background())
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Empty(t, f.keys.Sent(), "no clipboard fallback for a collapsed range")
}

func TestCaptureWhitespaceIsEmptySelection(t *testing.T) {
	text := "a \t\n b"
	f := newFixture(&axtest.Doc{Text: text, Sel: ax.Range{Location: 1, Length: 3}})

	_, err := f.mon.Capture(context.Background())
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestCaptureDeniedTouchesOnlyTrust(t *testing.T) {
	f := newFixture(&axtest.Doc{Text: "hello", Sel: ax.Range{Length: 5}})
	f.bridge.Denied = true

	_, err := f.mon.Capture(context.Background())
	assert.ErrorIs(t, err, ErrAccessibilityDenied)
	assert.Equal(t, []string{"Trusted"}, f.bridge.Calls())
}

func TestCaptureNoFocusedElement(t *testing.T) {
	f := newFixture(nil)
	f.bridge.Focused = nil

	_, err := f.mon.Capture(context.Background())
	assert.ErrorIs(t, err, ErrNoFocusedElement)
}

func opaqueDoc() *axtest.Doc {
	return &axtest.Doc{
		Text:            "canvas editor text",
		NoSelectedText:  true,
		NoSelectedRange: true,
		NoValue:         true,
	}
}

func seedClipboard(t *testing.T, pb *clipboard.Memory) clipboard.Snapshot {
	t.Helper()
	snap := clipboard.Snapshot{Items: []clipboard.Item{
		{
			{Type: "public.html", Data: []byte("<b>mine</b>")},
			{Type: clipboard.TypeString, Data: []byte("mine")},
		},
		{{Type: "public.tiff", Data: []byte{0, 1, 2, 3, 255}}},
	}}
	require.NoError(t, pb.Restore(snap))
	return snap
}

func TestCaptureClipboardFallbackRestoresClipboard(t *testing.T) {
	f := newFixture(opaqueDoc())
	before := seedClipboard(t, f.pb)
	f.keys.OnCopy = func() {
		_ = f.pb.WriteString("editor text")
	}

	sel, err := f.mon.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "editor text", sel.Text)
	assert.Nil(t, sel.Range)
	assert.Nil(t, sel.Frame)
	assert.Equal(t, []keys.Shortcut{keys.Copy}, f.keys.Sent())
	assert.Equal(t, []time.Duration{150 * time.Millisecond}, f.slept)

	after, _ := f.pb.Snapshot()
	assert.True(t, before.Equal(after), "clipboard must be bit-identical after capture")
}

func TestCaptureClipboardFallbackFailureRestoresClipboard(t *testing.T) {
	f := newFixture(opaqueDoc())
	before := seedClipboard(t, f.pb)

	_, err := f.mon.Capture(context.Background())
	assert.ErrorIs(t, err, ErrUnsupportedElement)

	after, _ := f.pb.Snapshot()
	assert.True(t, before.Equal(after), "clipboard must be bit-identical after failed capture")
}

func TestCaptureClipboardFallbackEmptyClipboardStaysEmpty(t *testing.T) {
	f := newFixture(opaqueDoc())
	f.keys.OnCopy = func() {
		_ = f.pb.WriteString("editor text")
	}

	_, err := f.mon.Capture(context.Background())
	require.NoError(t, err)

	_, ok := f.pb.ReadString()
	assert.False(t, ok)
}

func TestCaptureClipboardFallbackCancelled(t *testing.T) {
	f := newFixture(opaqueDoc())
	before := seedClipboard(t, f.pb)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.mon.Capture(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	after, _ := f.pb.Snapshot()
	assert.True(t, before.Equal(after))
}

func TestReplaceTehQuick(t *testing.T) {
	text := "I saw teh quick fox"
	f := newFixture(&axtest.Doc{Text: text, Sel: *rangeOf(text, "teh quick"), PID: 77})

	sel, err := f.mon.Capture(context.Background())
	require.NoError(t, err)

	// Focus moved while the rewrite was in flight.
	f.doc.Sel = ax.Range{Location: 0}

	err = f.mon.Replace(context.Background(), ReplaceRequest{
		Text:         "the quick",
		Element:      sel.Element,
		Range:        sel.Range,
		OriginalText: sel.Text,
	})
	require.NoError(t, err)
	assert.Equal(t, "I saw the quick fox", f.doc.Text)
	assert.Equal(t, []int{77}, f.bridge.Activated())
}

func TestReplaceIdempotent(t *testing.T) {
	text := "keep this exactly"
	f := newFixture(&axtest.Doc{Text: text, Sel: *rangeOf(text, "this")})

	sel, err := f.mon.Capture(context.Background())
	require.NoError(t, err)

	err = f.mon.Replace(context.Background(), ReplaceRequest{
		Text:         sel.Text,
		Element:      sel.Element,
		Range:        sel.Range,
		OriginalText: sel.Text,
	})
	require.NoError(t, err)
	assert.Equal(t, text, f.doc.Text)
}

func TestReplaceRangeRewriteUniqueOccurrence(t *testing.T) {
	docs := []struct {
		text     string
		original string
	}{
		{"alpha beta gamma", "beta"},
		{"naïve café 😀 done", "café 😀"},
		{"start", "start"},
		{"tail end", "end"},
	}

	for _, d := range docs {
		t.Run(d.original, func(t *testing.T) {
			f := newFixture(&axtest.Doc{Text: d.text, ReadOnlySelectedText: true})

			err := f.mon.Replace(context.Background(), ReplaceRequest{
				Text:         "REWRITTEN",
				Element:      ax.NewElement(f.doc),
				OriginalText: d.original,
			})
			require.NoError(t, err)
			assert.Equal(t, strings.Replace(d.text, d.original, "REWRITTEN", 1), f.doc.Text)
			assert.Contains(t, f.bridge.Calls(), "SetValue")
		})
	}
}

func TestReplaceStaleRangeIsRelocated(t *testing.T) {
	f := newFixture(&axtest.Doc{Text: "new prefix, then teh target", ReadOnlySelectedText: true})

	err := f.mon.Replace(context.Background(), ReplaceRequest{
		Text:         "the",
		Element:      ax.NewElement(f.doc),
		Range:        &ax.Range{Location: 0, Length: 3},
		OriginalText: "teh",
	})
	require.NoError(t, err)
	assert.Equal(t, "new prefix, then the target", f.doc.Text)
}

func TestReplaceAmbiguousOriginal(t *testing.T) {
	f := newFixture(&axtest.Doc{
		Text:                 "teh cat and teh dog",
		ReadOnlySelectedText: true,
	})

	err := f.mon.Replace(context.Background(), ReplaceRequest{
		Text:         "the",
		Element:      ax.NewElement(f.doc),
		OriginalText: "teh",
	})
	assert.ErrorIs(t, err, ErrUnsupportedElement)
	assert.Equal(t, "teh cat and teh dog", f.doc.Text, "never guess an occurrence")
	assert.NotContains(t, f.bridge.Calls(), "SetValue")
}

func TestReplaceConfirmationGate(t *testing.T) {
	f := newFixture(&axtest.Doc{
		Text:         "unchanged content",
		Sel:          ax.Range{Location: 0, Length: 9},
		IgnoreWrites: true,
	})

	err := f.mon.Replace(context.Background(), ReplaceRequest{
		Text:    "different",
		Element: ax.NewElement(f.doc),
	})
	assert.ErrorIs(t, err, ErrUnsupportedElement)
	assert.Equal(t, []time.Duration{80 * time.Millisecond, 120 * time.Millisecond}, f.slept)
}

func TestReplaceIgnoredWritesWithExpectedValue(t *testing.T) {
	text := "one two three"
	f := newFixture(&axtest.Doc{Text: text, IgnoreWrites: true})

	err := f.mon.Replace(context.Background(), ReplaceRequest{
		Text:         "2",
		Element:      ax.NewElement(f.doc),
		Range:        rangeOf(text, "two"),
		OriginalText: "two",
	})
	assert.ErrorIs(t, err, ErrUnsupportedElement)
	assert.Equal(t, text, f.doc.Text)
}

func TestReplaceDenied(t *testing.T) {
	f := newFixture(&axtest.Doc{Text: "x"})
	f.bridge.Denied = true

	err := f.mon.Replace(context.Background(), ReplaceRequest{Text: "y", Element: ax.NewElement(f.doc)})
	assert.ErrorIs(t, err, ErrAccessibilityDenied)
	assert.Equal(t, []string{"Trusted"}, f.bridge.Calls())
}

func TestReplaceCollapsedRangeWithoutOriginal(t *testing.T) {
	f := newFixture(&axtest.Doc{Text: "abc"})

	err := f.mon.Replace(context.Background(), ReplaceRequest{
		Text:    "y",
		Element: ax.NewElement(f.doc),
		Range:   &ax.Range{Location: 1},
	})
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestUniqueRange(t *testing.T) {
	tests := []struct {
		doc, needle string
		want        ax.Range
		ok          bool
	}{
		{"hello world", "world", ax.Range{Location: 6, Length: 5}, true},
		{"😀 smile", "smile", ax.Range{Location: 3, Length: 5}, true},
		{"aaa", "aa", ax.Range{}, false},
		{"abab", "ab", ax.Range{}, false},
		{"abc", "x", ax.Range{}, false},
		{"abc", "", ax.Range{}, false},
	}

	for _, test := range tests {
		got, ok := UniqueRange(test.doc, test.needle)
		if ok != test.ok || got != test.want {
			t.Errorf("UniqueRange(%q, %q) = %v, %v; want %v, %v", test.doc, test.needle, got, ok, test.want, test.ok)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "Select some text before asking for a rewrite.", ErrEmptySelection.Message())
	assert.Equal(t, "InplaceAI requires Accessibility permission.", ErrAccessibilityDenied.Message())

	wrapped := wrap(KindUnsupportedElement, context.DeadlineExceeded)
	assert.ErrorIs(t, wrapped, ErrUnsupportedElement)
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
	assert.NotErrorIs(t, wrapped, ErrEmptySelection)
}
