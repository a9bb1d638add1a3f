package classfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fooToBar(name string) string {
	if rest, ok := strings.CutPrefix(name, "foo/"); ok {
		return "bar/" + rest
	}
	return name
}

func TestMapSignature(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"I", "I"},
		{"Lfoo/A;", "Lbar/A;"},
		{"[[Lfoo/A;", "[[Lbar/A;"},
		{"(Lfoo/A;I[Lfoo/B;)Lfoo/C;", "(Lbar/A;I[Lbar/B;)Lbar/C;"},
		{"()V", "()V"},
		{"Ljava/util/List<Lfoo/A;>;", "Ljava/util/List<Lbar/A;>;"},
		{"Ljava/util/Map<+Lfoo/A;-Lfoo/B;>;", "Ljava/util/Map<+Lbar/A;-Lbar/B;>;"},
		{"Ljava/util/List<*>;", "Ljava/util/List<*>;"},
		{"<T:Lfoo/A;>Ljava/lang/Object;Lfoo/I<TT;>;", "<T:Lbar/A;>Ljava/lang/Object;Lbar/I<TT;>;"},
		{"<L::Lfoo/I;>(TL;)TL;^Lfoo/E;", "<L::Lbar/I;>(TL;)TL;^Lbar/E;"},
		{"Lfoo/Outer<TT;>.Inner;", "Lbar/Outer<TT;>.Inner;"},
		{"Lfoo/Outer$Nested;", "Lbar/Outer$Nested;"},
		{"TLogger;", "TLogger;"},
		{"Lbroken", "Lbroken"},
		{"Lfoo/A;junk", "Lfoo/A;junk"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapSignature(tt.in, fooToBar), tt.in)
	}
}

func TestMapSignature_InnerClassRenamedSeparately(t *testing.T) {
	mapType := func(name string) string {
		switch name {
		case "foo/Outer":
			return "bar/Outer"
		case "foo/Outer$Inner":
			return "bar/Outer$Renamed"
		}
		return name
	}
	got := MapSignature("Lfoo/Outer<TT;>.Inner<Lfoo/X;>;", mapType)
	assert.Equal(t, "Lbar/Outer<TT;>.Renamed<Lfoo/X;>;", got)
}
