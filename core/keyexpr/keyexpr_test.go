package keyexpr

import "testing"

func mustCanon(t *testing.T, k string) string {
	t.Helper()
	c, err := Canonical(k)
	if err != nil {
		t.Fatalf("Canonical(%q): %v", k, err)
	}
	return c
}

func TestCanonicalFoldsSlashesAndDoubleStar(t *testing.T) {
	cases := map[string]string{
		"foo//bar":       "foo/bar",
		"/foo/bar/":      "foo/bar",
		"foo/**/**/bar":  "foo/**/bar",
		"demo/example/a": "demo/example/a",
	}
	for in, want := range cases {
		if got := mustCanon(t, in); got != want {
			t.Fatalf("Canonical(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "foo/**bar", "foo/#bar"} {
		if _, err := Canonical(in); err == nil {
			t.Fatalf("Canonical(%q): expected error", in)
		}
	}
}

func TestIntersectsConcreteScenario(t *testing.T) {
	sub := mustCanon(t, "demo/example/**")
	pub := mustCanon(t, "demo/example/a")
	if !Intersects(sub, pub) {
		t.Fatalf("expected %q to intersect %q", sub, pub)
	}
	other := mustCanon(t, "demo/other/a")
	if Intersects(sub, other) {
		t.Fatalf("expected %q not to intersect %q", sub, other)
	}
}

func TestIntersectsIsSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"a/*/c", "a/b/c"},
		{"a/**", "a/b/c/d"},
		{"a/**/c", "a/b/b/c"},
		{"a/$*foo", "a/barfoo"},
		{"x/y", "a/b"},
	}
	for _, p := range pairs {
		a, b := mustCanon(t, p[0]), mustCanon(t, p[1])
		if Intersects(a, b) != Intersects(b, a) {
			t.Fatalf("Intersects(%q,%q) != Intersects(%q,%q)", a, b, b, a)
		}
	}
}

func TestIncludesReflexive(t *testing.T) {
	for _, k := range []string{"a/b/c", "a/*/c", "a/**", "demo/example/**"} {
		c := mustCanon(t, k)
		if !Includes(c, c) {
			t.Fatalf("Includes(%q,%q) should be true (reflexive)", c, c)
		}
	}
}

func TestIncludesAntisymmetricModuloCanonicalForm(t *testing.T) {
	wide := mustCanon(t, "a/**")
	narrow := mustCanon(t, "a/b/c")
	if !Includes(wide, narrow) {
		t.Fatal("expected a/** to include a/b/c")
	}
	if Includes(narrow, wide) {
		t.Fatal("expected a/b/c not to include a/**")
	}
}

func TestIncludesTransitive(t *testing.T) {
	a := mustCanon(t, "a/**")
	b := mustCanon(t, "a/*/c")
	c := mustCanon(t, "a/b/c")
	if Includes(a, b) && Includes(b, c) && !Includes(a, c) {
		t.Fatal("includes should be transitive")
	}
}

func TestIntersectsImpliesSharedConcreteKey(t *testing.T) {
	a := mustCanon(t, "demo/**")
	b := mustCanon(t, "demo/example/a")
	if Intersects(a, b) {
		// demo/example/a itself is concrete and matches both.
		if !Intersects(b, b) {
			t.Fatal("a concrete key should always intersect itself")
		}
	}
}

func FuzzIntersectsCanonical(f *testing.F) {
	f.Add("demo/example/**", "demo/example/a")
	f.Add("a/*/c", "a/b/c")
	f.Add("a/**", "a")
	f.Fuzz(func(t *testing.T, a, b string) {
		ca, err1 := Canonical(a)
		cb, err2 := Canonical(b)
		if err1 != nil || err2 != nil {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Intersects(%q,%q) panicked: %v", ca, cb, r)
			}
		}()
		if Intersects(ca, cb) != Intersects(cb, ca) {
			t.Fatalf("Intersects not symmetric for %q, %q", ca, cb)
		}
	})
}
