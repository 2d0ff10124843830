package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/harunnryd/strum/pkg/toolchan"
)

type fakeChannel struct {
	tools []toolchan.RemoteTool
	err   error
}

func (f *fakeChannel) Name() string { return "fake" }

func (f *fakeChannel) ListTools(ctx context.Context) ([]toolchan.RemoteTool, error) {
	return f.tools, f.err
}

func (f *fakeChannel) Invoke(ctx context.Context, tool string, args map[string]any) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeChannel) Close() error { return nil }

func TestBuildMergesRemoteAndLocal(t *testing.T) {
	ch := &fakeChannel{tools: []toolchan.RemoteTool{
		{Name: "getProducts", Description: "catalog"},
		{Name: "purchase", Description: "buy"},
	}}
	local := []Descriptor{
		{Name: "recommendGuitar", Description: "render a card"},
	}

	reg, err := Build(context.Background(), ch, local)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := len(reg.List()); got != 3 {
		t.Fatalf("registry size = %d, want 3", got)
	}
	d, ok := reg.Resolve("getProducts")
	if !ok || d.Kind != KindRemote {
		t.Errorf("getProducts = %+v, ok=%v", d, ok)
	}
	d, ok = reg.Resolve("recommendGuitar")
	if !ok || d.Kind != KindClientRendered {
		t.Errorf("recommendGuitar = %+v, ok=%v", d, ok)
	}
}

func TestBuildLocalWinsNameCollision(t *testing.T) {
	ch := &fakeChannel{tools: []toolchan.RemoteTool{
		{Name: "recommendGuitar", Description: "remote version"},
	}}
	local := []Descriptor{
		{Name: "recommendGuitar", Description: "local version"},
	}

	reg, err := Build(context.Background(), ch, local)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	d, ok := reg.Resolve("recommendGuitar")
	if !ok {
		t.Fatal("tool missing")
	}
	if d.Kind != KindClientRendered || d.Description != "local version" {
		t.Errorf("collision resolved wrong: %+v", d)
	}
	if got := len(reg.List()); got != 1 {
		t.Errorf("registry size = %d, want 1", got)
	}
}

func TestBuildPropagatesDiscoveryFailure(t *testing.T) {
	ch := &fakeChannel{err: errors.New("handshake refused")}
	if _, err := Build(context.Background(), ch, nil); err == nil {
		t.Fatal("expected discovery error")
	}
}

func TestModelToolsPreservesOrder(t *testing.T) {
	reg := NewStatic(
		Descriptor{Name: "b", Kind: KindRemote},
		Descriptor{Name: "a", Kind: KindClientRendered},
	)
	tools := reg.ModelTools()
	if len(tools) != 2 || tools[0].Name != "b" || tools[1].Name != "a" {
		t.Fatalf("tools = %+v", tools)
	}
}

func TestDefaultLocalTools(t *testing.T) {
	local := DefaultLocalTools()
	if len(local) == 0 {
		t.Fatal("no local tools declared")
	}
	var found bool
	for _, d := range local {
		if d.Name == "recommendGuitar" {
			found = true
			if d.Schema == nil {
				t.Error("recommendGuitar has no input schema")
			}
		}
	}
	if !found {
		t.Error("recommendGuitar not declared")
	}
}
