package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		result  string
		want    error
	}{
		{"double star alone", "**", "", ErrInvalidPattern},
		{"triple star", "foo/***", "", ErrInvalidPattern},
		{"illegal character", "foo/b ar", "", ErrInvalidPattern},
		{"illegal punctuation", "foo/bar!", "", ErrInvalidPattern},
		{"dangling at", "foo/**", "bar/@", ErrInvalidResult},
		{"at followed by letter", "foo/**", "bar/@x", ErrInvalidResult},
		{"reference beyond captures", "foo/*", "bar/@2", ErrInvalidResult},
		{"reference without captures", "foo/Bar", "bar/@1", ErrInvalidResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.pattern, tt.result, 0)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCompile_Prefix(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"foo/**", "foo/"},
		{"foo/*/Bar", "foo/"},
		{"foo/Bar", "foo/Bar"},
		{"**/Bar", ""},
		{"foo/Bar$Inner*", "foo/Bar$Inner"},
	}
	for _, tt := range tests {
		w, err := Compile(tt.pattern, "", 0)
		require.NoError(t, err, tt.pattern)
		assert.Equal(t, tt.want, w.Prefix(), tt.pattern)
	}
}

func TestWildcard_Matches(t *testing.T) {
	tests := []struct {
		pattern string
		value   string
		want    bool
	}{
		{"foo/*", "foo/Bar", true},
		{"foo/*", "foo/bar/Baz", false},
		{"foo/*", "foo/", false},
		{"foo/**", "foo/Bar", true},
		{"foo/**", "foo/bar/Baz", true},
		{"foo/**", "foo", false},
		{"foo/**", "foobar/Baz", false},
		{"**/Bar", "a/b/Bar", true},
		{"**/Bar", "Bar", false},
		{"foo/*/Bar", "foo/x/Bar", true},
		{"foo/*/Bar", "foo/x/y/Bar", false},
		{"foo/Bar", "foo/Bar", true},
		{"foo/Bar", "foo/BarBaz", false},
		{"foo/Bar$Inner", "foo/Bar$Inner", true},
		{"foo/**", "foo/bar/package-info", true},
		{"foo/**", "foo/bar baz", false},
		{"foo/**", "foo/bar-baz", true},
	}
	for _, tt := range tests {
		w, err := Compile(tt.pattern, "", 0)
		require.NoError(t, err, tt.pattern)
		assert.Equal(t, tt.want, w.Matches(tt.value), "%s ~ %s", tt.pattern, tt.value)
	}
}

func TestWildcard_PackageInfoPattern(t *testing.T) {
	w, err := Compile("foo/package-info", "bar/package-info", 0)
	require.NoError(t, err)

	got, ok := w.Replace("foo/package-info")
	require.True(t, ok)
	assert.Equal(t, "bar/package-info", got)
}

func TestWildcard_Replace(t *testing.T) {
	tests := []struct {
		pattern string
		result  string
		value   string
		want    string
	}{
		{"foo/**", "bar/@1", "foo/bar/A", "bar/bar/A"},
		{"foo/**", "bar.@1", "foo/A", "bar/A"},
		{"foo/*/*", "x/@2/@1", "foo/a/B", "x/B/a"},
		{"**/Impl", "@1/internal/Impl", "com/acme/Impl", "com/acme/internal/Impl"},
		{"foo/**/*Impl", "bar/@1/@2", "foo/a/b/CoolImpl", "bar/a/b/Cool"},
		{"foo/A", "baz/B", "foo/A", "baz/B"},
		{"com/google/**", "shaded.@0", "com/google/X", "shaded/com/google/X"},
	}
	for _, tt := range tests {
		w, err := Compile(tt.pattern, tt.result, 0)
		require.NoError(t, err, tt.pattern)

		got, ok := w.Replace(tt.value)
		require.True(t, ok, "%s ~ %s", tt.pattern, tt.value)
		assert.Equal(t, tt.want, got)

		again, _ := w.Replace(tt.value)
		assert.Equal(t, got, again, "replace must be stable")
	}
}

func TestWildcard_ReplaceNoMatch(t *testing.T) {
	w, err := Compile("foo/**", "bar/@1", 0)
	require.NoError(t, err)

	_, ok := w.Replace("qux/A")
	assert.False(t, ok)
}

func TestWildcard_Count(t *testing.T) {
	w, err := Compile("a/*/b/**", "", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, w.Count())
	assert.Equal(t, 3, w.Index())
	assert.Equal(t, "a/*/b/**", w.String())
}

func TestRule_Compile(t *testing.T) {
	r := Rule{Kind: Rename, Pattern: "com.google.**", Result: "shaded.com.google.@1", Index: 4}
	w, err := r.Compile()
	require.NoError(t, err)

	got, ok := w.Replace("com/google/common/Lists")
	require.True(t, ok)
	assert.Equal(t, "shaded/com/google/common/Lists", got)
	assert.Equal(t, 4, w.Index())

	bad := Rule{Kind: Keep, Pattern: "**"}
	_, err = bad.Compile()
	assert.ErrorIs(t, err, ErrInvalidPattern)
	assert.Contains(t, err.Error(), "keep **")
}

func TestCompileAll_FiltersByKind(t *testing.T) {
	rules := []Rule{
		{Kind: Rename, Pattern: "a.**", Result: "b.@1", Index: 0},
		{Kind: Keep, Pattern: "a.Main", Index: 1},
		{Kind: Zap, Pattern: "a.Debug", Index: 2},
		{Kind: Keep, Pattern: "a.Other", Index: 3},
	}
	keeps, err := CompileAll(rules, Keep)
	require.NoError(t, err)
	require.Len(t, keeps, 2)
	assert.Equal(t, 1, keeps[0].Index())
	assert.Equal(t, 3, keeps[1].Index())

	assert.Len(t, Filter(rules, Zap), 1)
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Rename, Zap, Keep} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("shade")
	assert.Error(t, err)
}
