package slug

import "testing"

func TestSubject(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Proband 7": "proband-7",
		"  ../x  ":  "x",
		"":          "anonymous",
		"§§":        "anonymous",
		"A_B-c":     "a-b-c",
	}
	for in, want := range cases {
		if got := Subject(in); got != want {
			t.Fatalf("Subject(%q) = %q, want %q", in, got, want)
		}
	}
}
