package depfind

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/agentic-research/jarjar/internal/archive/archivetest"
	"github.com/agentic-research/jarjar/internal/classfile/classfiletest"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cp(elems ...string) string {
	return strings.Join(elems, string(os.PathListSeparator))
}

// fixture lays out app.jar depending on lib.jar and a class directory.
func fixture(t *testing.T) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	archivetest.Write(t, fs, "/app.jar",
		archivetest.File{Name: "app/Main.class", Data: string(classfiletest.New("app/Main", "java/lang/Object").
			Field("lib", "Llib/Util;", "").
			MethodRef("app/Helper", "help", "()V").
			String("greeting").
			Bytes())},
		archivetest.File{Name: "app/Helper.class", Data: string(classfiletest.New("app/Helper", "lib/Base").Bytes())},
		archivetest.File{Name: "app/notes.txt", Data: "not a class"},
	)
	archivetest.Write(t, fs, "/lib.jar",
		archivetest.File{Name: "lib/Util.class", Data: string(classfiletest.New("lib/Util", "java/lang/Object").Bytes())},
		archivetest.File{Name: "lib/Base.class", Data: string(classfiletest.New("lib/Base", "java/lang/Object").Bytes())},
		archivetest.File{Name: "lib/Broken.class", Data: "Hello"},
	)
	require.NoError(t, util.WriteFile(fs, "/classes/ext/Plugin.class",
		classfiletest.New("ext/Plugin", "app/Main").String("ext \"quoted\"\n").Bytes(), 0o644))
	return fs
}

func TestFind_ClassLevel(t *testing.T) {
	fs := fixture(t)
	deps, err := Find(fs, LevelClass, cp("/app.jar", "/classes"), cp("/lib.jar", "/app.jar"), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []Dep{
		{From: "app.Helper", To: "lib.Base"},
		{From: "app.Main", To: "app.Helper"},
		{From: "app.Main", To: "lib.Util"},
		{From: "ext.Plugin", To: "app.Main"},
	}, deps)
}

func TestFind_JarLevel(t *testing.T) {
	fs := fixture(t)
	deps, err := Find(fs, LevelJar, cp("/app.jar", "/classes"), cp("/lib.jar", "/app.jar"), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []Dep{
		{From: "/app.jar", To: "/lib.jar"},
		{From: "/classes", To: "/app.jar"},
	}, deps)
}

func TestFind_DefaultsSecondClasspath(t *testing.T) {
	fs := fixture(t)
	deps, err := Find(fs, LevelClass, "/app.jar", "", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []Dep{{From: "app.Main", To: "app.Helper"}}, deps)
}

func TestFind_MissingElement(t *testing.T) {
	_, err := Find(memfs.New(), LevelClass, "/nope.jar", "", zerolog.Nop())
	assert.Error(t, err)
}

func TestWriters(t *testing.T) {
	deps := []Dep{{From: "a.A", To: "b.B"}, {From: "a.A", To: "c.C"}}

	var text bytes.Buffer
	require.NoError(t, WriteText(&text, deps))
	assert.Equal(t, "a.A -> b.B\na.A -> c.C\n", text.String())

	var js bytes.Buffer
	require.NoError(t, WriteJSON(&js, LevelClass, deps))
	doc, err := oj.ParseString(js.String())
	require.NoError(t, err)
	assert.Equal(t, []any{"class"}, jp.MustParseString("$.level").Get(doc))
	assert.Equal(t, []any{"b.B", "c.C"}, jp.MustParseString("$.deps[*].to").Get(doc))
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("jar")
	require.NoError(t, err)
	assert.Equal(t, LevelJar, l)
	_, err = ParseLevel("package")
	assert.Error(t, err)
}

func TestStrings(t *testing.T) {
	fs := fixture(t)
	var out bytes.Buffer
	require.NoError(t, Strings(fs, cp("/app.jar", "/classes"), &out, zerolog.Nop()))
	assert.Equal(t, "app.Main: \"greeting\"\next.Plugin: \"ext \\\"quoted\\\"\\n\"\n", out.String())
}
