package classfile_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/agentic-research/jarjar/internal/classfile"
	"github.com/agentic-research/jarjar/internal/classfile/classfiletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	types   []string
	strings []string
}

func (r *recorder) MapType(name string) string {
	r.types = append(r.types, name)
	return name
}

func (r *recorder) MapString(value string) string {
	r.strings = append(r.strings, value)
	return value
}

func sampleClass() []byte {
	return classfiletest.New("foo/Main", "java/lang/Object").
		Interface("foo/api/Service").
		Field("util", "Lfoo/Util;", "").
		Field("items", "Ljava/util/List;", "Ljava/util/List<Lfoo/Item;>;").
		Method("run", "(Lfoo/Input;[Lfoo/Output;I)V", "").
		MethodRef("foo/Helper", "help", "()Lfoo/Result;").
		String("foo.Reflected").
		String("hello world").
		Long(42).
		Annotation("Lfoo/Marker;").
		Bytes()
}

func TestParse_Name(t *testing.T) {
	f, err := classfile.Parse(sampleClass())
	require.NoError(t, err)
	assert.Equal(t, "foo/Main", f.Name())
}

func TestWalk_ReportsEveryReferenceOnce(t *testing.T) {
	rec := &recorder{}
	name, err := classfile.Walk(sampleClass(), rec)
	require.NoError(t, err)
	assert.Equal(t, "foo/Main", name)

	types := append([]string(nil), rec.types...)
	sort.Strings(types)
	for _, want := range []string{
		"foo/Main", "java/lang/Object", "foo/api/Service", "foo/Util",
		"java/util/List", "foo/Item", "foo/Input", "foo/Output",
		"foo/Helper", "foo/Result", "foo/Marker",
	} {
		assert.Contains(t, types, want)
	}
	assert.ElementsMatch(t, []string{"foo.Reflected", "hello world"}, rec.strings)

	seen := map[string]int{}
	for _, s := range rec.strings {
		seen[s]++
	}
	for s, n := range seen {
		assert.Equal(t, 1, n, "string %q reported %d times", s, n)
	}
}

func TestRewrite_RenamesTypesAndStrings(t *testing.T) {
	rename := func(name string) string {
		if rest, ok := strings.CutPrefix(name, "foo/"); ok {
			return "bar/" + rest
		}
		return name
	}
	m := classfile.Funcs{
		Type: rename,
		String: func(s string) string {
			if rest, ok := strings.CutPrefix(s, "foo."); ok {
				return "bar." + rest
			}
			return s
		},
	}

	out, name, err := classfile.Rewrite(sampleClass(), m)
	require.NoError(t, err)
	assert.Equal(t, "bar/Main", name)

	rec := &recorder{}
	again, err := classfile.Walk(out, rec)
	require.NoError(t, err)
	assert.Equal(t, "bar/Main", again)
	for _, typ := range rec.types {
		assert.False(t, strings.HasPrefix(typ, "foo/"), "left behind %s", typ)
	}
	assert.Contains(t, rec.types, "bar/Item")
	assert.Contains(t, rec.types, "bar/Marker")
	assert.Contains(t, rec.types, "java/lang/Object")
	assert.ElementsMatch(t, []string{"bar.Reflected", "hello world"}, rec.strings)
}

func TestRewrite_IdentityIsByteIdentical(t *testing.T) {
	data := sampleClass()
	out, name, err := classfile.Rewrite(data, classfile.Funcs{})
	require.NoError(t, err)
	assert.Equal(t, "foo/Main", name)
	assert.Equal(t, data, out)
}

func TestRewrite_SharedUtf8SplitsByKind(t *testing.T) {
	// "foo/Shared" is both a class name and a string literal; only the
	// class reference is renamed.
	data := classfiletest.New("foo/Shared", "java/lang/Object").String("foo/Shared").Bytes()

	out, name, err := classfile.Rewrite(data, classfile.Funcs{
		Type: func(s string) string { return strings.Replace(s, "foo/", "bar/", 1) },
	})
	require.NoError(t, err)
	assert.Equal(t, "bar/Shared", name)

	rec := &recorder{}
	_, err = classfile.Walk(out, rec)
	require.NoError(t, err)
	assert.Contains(t, rec.types, "bar/Shared")
	assert.Equal(t, []string{"foo/Shared"}, rec.strings)
}

func TestWalk_TypeAnnotations(t *testing.T) {
	tests := []struct {
		name   string
		target []byte
	}{
		{"type parameter", []byte{0x00, 0}},
		{"supertype", []byte{0x10, 0xFF, 0xFF}},
		{"type parameter bound", []byte{0x11, 0, 1}},
		{"field", []byte{0x13}},
		{"formal parameter", []byte{0x16, 2}},
		{"throws", []byte{0x17, 0, 0}},
		{"local variable", []byte{0x40, 0, 2, 0, 0, 0, 4, 0, 1, 0, 4, 0, 2, 0, 2}},
		{"catch", []byte{0x42, 0, 0}},
		{"instanceof", []byte{0x43, 0, 7}},
		{"type argument", []byte{0x47, 0, 9, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := classfiletest.New("foo/Main", "java/lang/Object").
				TypeAnnotation(tt.target, "Lfoo/Nullable;").
				String("after").
				Bytes()

			rec := &recorder{}
			_, err := classfile.Walk(data, rec)
			require.NoError(t, err)
			assert.Contains(t, rec.types, "foo/Nullable")

			out, _, err := classfile.Rewrite(data, classfile.Funcs{
				Type: func(s string) string { return strings.Replace(s, "foo/", "bar/", 1) },
			})
			require.NoError(t, err)
			rec = &recorder{}
			_, err = classfile.Walk(out, rec)
			require.NoError(t, err)
			assert.Contains(t, rec.types, "bar/Nullable")
			assert.NotContains(t, rec.types, "foo/Nullable")
		})
	}
}

func TestParse_UnknownTypeAnnotationTarget(t *testing.T) {
	data := classfiletest.New("foo/Main", "java/lang/Object").
		TypeAnnotation([]byte{0x30}, "Lfoo/Nullable;").
		Bytes()
	_, err := classfile.Parse(data)
	assert.ErrorIs(t, err, classfile.ErrMalformed)
}

func TestRewrite_PackageConstants(t *testing.T) {
	data := classfiletest.New("module-info", "").
		Package("foo/api").
		Package("other/api").
		Bytes()

	rec := &recorder{}
	_, err := classfile.Walk(data, rec)
	require.NoError(t, err)
	assert.Contains(t, rec.types, "foo/api/package-info")

	out, name, err := classfile.Rewrite(data, classfile.Funcs{
		Type: func(s string) string { return strings.Replace(s, "foo/", "shaded/foo/", 1) },
	})
	require.NoError(t, err)
	assert.Equal(t, "module-info", name)

	rec = &recorder{}
	_, err = classfile.Walk(out, rec)
	require.NoError(t, err)
	assert.Contains(t, rec.types, "shaded/foo/api/package-info")
	assert.Contains(t, rec.types, "other/api/package-info")
	assert.NotContains(t, rec.types, "foo/api/package-info")
}

func TestParse_Malformed(t *testing.T) {
	good := sampleClass()
	tests := map[string][]byte{
		"empty":     nil,
		"bad magic": append([]byte{0xCA, 0xFE, 0xBA, 0xBF}, good[4:]...),
		"truncated": good[:len(good)/2],
		"payload":   []byte("Hello"),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := classfile.Parse(data)
			assert.ErrorIs(t, err, classfile.ErrMalformed)
		})
	}
}

func TestModifiedUTF8_RoundTrip(t *testing.T) {
	for _, s := range []string{"plain", "café", "nul\x00byte", "emoji \U0001F600", "中文"} {
		data := classfiletest.New("foo/A", "java/lang/Object").String(s).Bytes()
		rec := &recorder{}
		_, err := classfile.Walk(data, rec)
		require.NoError(t, err, s)
		assert.Equal(t, []string{s}, rec.strings)
	}
	assert.Equal(t, []byte{0xC0, 0x80}, classfile.AppendModifiedUTF8(nil, "\x00"))
	assert.Len(t, classfile.AppendModifiedUTF8(nil, "\U0001F600"), 6)
}
