package remap

import (
	"testing"

	"github.com/agentic-research/jarjar/internal/pattern"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRemapper(t *testing.T, rules ...pattern.Rule) *Remapper {
	t.Helper()
	for i := range rules {
		rules[i].Index = i
	}
	r, err := New(rules, zerolog.Nop())
	require.NoError(t, err)
	return r
}

func rename(p, r string) pattern.Rule {
	return pattern.Rule{Kind: pattern.Rename, Pattern: p, Result: r}
}

func TestMapType(t *testing.T) {
	r := newRemapper(t, rename("com.example.**", "shaded.@1"))

	assert.Equal(t, "shaded/util/Strings", r.MapType("com/example/util/Strings"))
	assert.Equal(t, "java/lang/String", r.MapType("java/lang/String"))
	// cached answer is stable
	assert.Equal(t, "shaded/util/Strings", r.MapType("com/example/util/Strings"))
}

func TestMapType_FirstDeclaredRuleWins(t *testing.T) {
	r := newRemapper(t,
		rename("com.example.Special", "special.Special"),
		rename("com.example.**", "shaded.@1"),
	)
	assert.Equal(t, "special/Special", r.MapType("com/example/Special"))
	assert.Equal(t, "shaded/Other", r.MapType("com/example/Other"))
}

func TestMapType_IgnoresOtherKinds(t *testing.T) {
	r := newRemapper(t,
		pattern.Rule{Kind: pattern.Zap, Pattern: "com.example.**"},
		pattern.Rule{Kind: pattern.Keep, Pattern: "com.example.Main"},
	)
	assert.Equal(t, "com/example/A", r.MapType("com/example/A"))
}

func TestMapDesc(t *testing.T) {
	r := newRemapper(t, rename("com.example.**", "shaded.@1"))
	assert.Equal(t,
		"(Lshaded/A;[Ljava/lang/String;)Ljava/util/List<Lshaded/B;>;",
		r.MapDesc("(Lcom/example/A;[Ljava/lang/String;)Ljava/util/List<Lcom/example/B;>;"))
}

func TestMapPath(t *testing.T) {
	r := newRemapper(t, rename("com.example.**", "shaded.@1"))

	tests := []struct {
		in, want string
	}{
		{"com/example/messages.properties", "shaded/messages.properties"},
		{"com/example/sub/data.bin", "shaded/sub/data.bin"},
		{"/com/example/icon.png", "/shaded/icon.png"},
		{"com/example/", "shaded/"},
		{"other/file.txt", "other/file.txt"},
		{"README", "README"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.MapPath(tt.in), tt.in)
	}
}

func TestMapValue(t *testing.T) {
	r := newRemapper(t, rename("com.example.**", "shaded.@1"))

	tests := []struct {
		in, want string
	}{
		{"com.example.Plugin", "shaded.Plugin"},
		{"com/example/Plugin", "shaded/Plugin"},
		{"[Lcom.example.Plugin;", "[Lshaded.Plugin;"},
		{"[Ljava.lang.String;", "[Ljava.lang.String;"},
		{"com/example/config.xml", "shaded/config.xml"},
		{"hello world", "hello world"},
		{"com.example/mixed", "com.example/mixed"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.MapValue(tt.in), tt.in)
	}
}

func TestMapDotted(t *testing.T) {
	r := newRemapper(t, rename("com.example.**", "shaded.@1"))
	assert.Equal(t, "shaded.Main", r.MapDotted("com.example.Main"))
	assert.Equal(t, "org.other.Main", r.MapDotted("org.other.Main"))
}

func TestIsArrayForName(t *testing.T) {
	assert.True(t, IsArrayForName("[Lcom.foo.Bar;"))
	assert.True(t, IsArrayForName("[Lcom.foo.Outer$Inner;"))
	assert.False(t, IsArrayForName("[[Lcom.foo.Bar;"))
	assert.False(t, IsArrayForName("[Lcom/foo/Bar;"))
	assert.False(t, IsArrayForName("Lcom.foo.Bar;"))
}

func TestNew_RejectsBadRule(t *testing.T) {
	_, err := New([]pattern.Rule{rename("com.**.Foo", "bar.@2")}, zerolog.Nop())
	assert.ErrorIs(t, err, pattern.ErrInvalidResult)
}
