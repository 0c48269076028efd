package resolver

import (
	"strings"
	"testing"

	"github.com/polytunnel/polytunnel/pkg/maven/maventest"
)

func TestRenderTree(t *testing.T) {
	repo := maventest.New()
	addPOM(t, repo, "ex:a:1.0", compile("ex:c:1.0"), compile("ex:b:1.0"))
	addPOM(t, repo, "ex:b:1.0", compile("ex:d:1.0"))
	addPOM(t, repo, "ex:c:1.0", compile("ex:d:1.0"), compile("ex:gone:1.0"))
	addPOM(t, repo, "ex:d:1.0")

	tree := resolve(t, repo, Options{}, "ex:a:1.0")

	var b strings.Builder
	if err := RenderTree(&b, tree, TreeOptions{}); err != nil {
		t.Fatalf("RenderTree: %v", err)
	}
	want := `ex:a:1.0
├── ex:b:1.0
│   └── ex:d:1.0
└── ex:c:1.0
    ├── ex:d:1.0 (*)
    └── ex:gone:1.0 (unresolved)
`
	if b.String() != want {
		t.Errorf("RenderTree output:\n%s\nwant:\n%s", b.String(), want)
	}
}

func TestRenderTreeHighlight(t *testing.T) {
	repo := maventest.New()
	addPOM(t, repo, "ex:a:1", compile("ex:b:1"))
	addPOM(t, repo, "ex:b:1")

	tree := resolve(t, repo, Options{}, "ex:a:1")

	var b strings.Builder
	err := RenderTree(&b, tree, TreeOptions{
		Highlight: func(key string, depth int) string {
			return strings.Repeat("*", depth+1) + key
		},
	})
	if err != nil {
		t.Fatalf("RenderTree: %v", err)
	}
	want := "*ex:a:1\n└── **ex:b:1\n"
	if b.String() != want {
		t.Errorf("RenderTree = %q, want %q", b.String(), want)
	}
}
