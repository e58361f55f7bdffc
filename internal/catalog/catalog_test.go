package catalog

import (
	"strings"
	"testing"

	"golang.org/x/text/language"
)

func TestDefaultLoadsEmbeddedLibrary(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}
	if c.Len() != 12 {
		t.Fatalf("Len = %d, want 12", c.Len())
	}
	for i, e := range c.Entries() {
		if e.NameCN == "" || e.VideoURL == "" || e.Description == "" {
			t.Fatalf("entry %d incomplete: %+v", i, e)
		}
		if strings.HasSuffix(e.Prompt, "\n") {
			t.Fatalf("entry %d prompt not trimmed", i)
		}
	}
}

func TestLocalized(t *testing.T) {
	c, err := Parse([]byte(`
- name: Tennis Spin
  name_cn: 网球球内世界
  prompt: ball opens
  video_url: https://x/t.mp4
- name: No Chinese
  prompt: p
`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	tests := []struct {
		tag      language.Tag
		wantName []string
	}{
		{tag: language.English, wantName: []string{"Tennis Spin", "No Chinese"}},
		{tag: language.SimplifiedChinese, wantName: []string{"网球球内世界", "No Chinese"}},
		{tag: language.TraditionalChinese, wantName: []string{"网球球内世界", "No Chinese"}},
	}
	for _, tc := range tests {
		t.Run(tc.tag.String(), func(t *testing.T) {
			items := c.Localized(tc.tag)
			for i, item := range items {
				if item.ID != []string{"0", "1"}[i] {
					t.Fatalf("item %d id = %q", i, item.ID)
				}
				if item.Name != tc.wantName[i] {
					t.Fatalf("item %d name = %q, want %q", i, item.Name, tc.wantName[i])
				}
			}
			if items[1].NameCN != "No Chinese" {
				t.Fatalf("name_cn fallback = %q", items[1].NameCN)
			}
		})
	}
}

func TestParseRejectsIncompleteEntries(t *testing.T) {
	cases := map[string]string{
		"empty":     ``,
		"no prompt": "- name: x\n",
		"no name":   "- prompt: y\n",
		"not yaml":  "- [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestGet(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}
	if e, ok := c.Get("10"); !ok || e.Name != "Tennis Spin" {
		t.Fatalf("Get(10) = %+v, %v", e, ok)
	}
	for _, id := range []string{"-1", "12", "abc", ""} {
		if _, ok := c.Get(id); ok {
			t.Fatalf("Get(%q) should miss", id)
		}
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		hints []string
		want  language.Tag
	}{
		{hints: nil, want: language.English},
		{hints: []string{"", "zh-CN,zh;q=0.9"}, want: language.SimplifiedChinese},
		{hints: []string{"zh-TW"}, want: language.TraditionalChinese},
		{hints: []string{"fr-FR,fr;q=0.9"}, want: language.English},
		{hints: []string{"en-US", "zh"}, want: language.English},
		{hints: []string{"zh-Hans"}, want: language.SimplifiedChinese},
	}
	for _, tc := range tests {
		t.Run(strings.Join(tc.hints, "|"), func(t *testing.T) {
			if got := Match(tc.hints...); got != tc.want {
				t.Fatalf("Match(%v) = %v, want %v", tc.hints, got, tc.want)
			}
		})
	}
}
