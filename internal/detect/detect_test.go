package detect

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{
			"go function",
			"package main\n\nfunc main() {\n\tx := 1\n\tdefer close(ch)\n\tgo func() {}()\n}\n",
			"go",
		},
		{
			"python function",
			"import os\n\ndef run(self):\n    if x:\n        print(x)\n    elif y:\n        print(y)\n",
			"python",
		},
		{
			"javascript",
			"const x = 1;\nlet y = 2;\nfunction add(a, b) { return a + b; }\nconsole.log(add(x, y));\n",
			"javascript",
		},
		{
			"rust",
			"pub fn main() {\n    let mut v = Vec::new();\n    impl Foo for Bar {}\n    match v { _ => {} }\n}\n",
			"rust",
		},
		{
			"sql",
			"SELECT id, name FROM users WHERE id = 1;\nINSERT INTO logs (msg) VALUES ('x');\nCREATE TABLE t (id INT);\n",
			"sql",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.code)
			if got.Language != tt.want {
				t.Errorf("Detect() language = %q (conf %.2f), want %q", got.Language, got.Confidence, tt.want)
			}
		})
	}
}

func TestDetectEmptyInput(t *testing.T) {
	for _, code := range []string{"", "   ", "\n\t\n"} {
		got := Detect(code)
		if got.Confidence != 0 || got.Language != "" {
			t.Errorf("Detect(%q) = %+v, want zero match", code, got)
		}
	}
}

func TestDetectLowSignal(t *testing.T) {
	// Plain prose with at most one weak pattern hit stays below the floor.
	got := Detect("just a short sentence about nothing in particular")
	if got.Language != "" {
		t.Errorf("prose detected as %q (conf %.2f)", got.Language, got.Confidence)
	}
}

func TestDetectConfidenceBounds(t *testing.T) {
	samples := []string{
		"",
		"plain text",
		"func a() {}\nfunc b() {}\nfunc c() {}\npackage x\nx := 1\ny := 2\ndefer f()\ngo g()\nchan int\n",
		"SELECT * FROM a; SELECT * FROM b; SELECT * FROM c; SELECT * FROM d; SELECT * FROM e; SELECT * FROM f;",
	}
	for _, code := range samples {
		got := Detect(code)
		if got.Confidence < 0 || got.Confidence > 1 {
			t.Errorf("confidence %f out of [0,1] for %q", got.Confidence, code)
		}
	}
}

func TestDetectNeverPanics(t *testing.T) {
	// Hostile-ish inputs; detection must degrade, not fail.
	inputs := []string{
		"\x00\x01\x02",
		"((((((((((",
		"``````",
		"\\\\\\\\\"",
	}
	for _, in := range inputs {
		_ = Detect(in)
	}
}
