package pagination

import "testing"

func TestNormalizePageSize(t *testing.T) {
	cases := map[int]int{0: DefaultPageSize, -3: DefaultPageSize, 10: 10, 100: 100, 500: MaxPageSize}
	for in, want := range cases {
		if got := NormalizePageSize(in); got != want {
			t.Fatalf("NormalizePageSize(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestMetaResolveAndDone(t *testing.T) {
	m := Meta{}.Resolve(3)
	if m.Page != 3 || m.PageCount != 3 {
		t.Fatalf("expected missing meta to resolve to requested page, got %+v", m)
	}
	if !m.Done(3) {
		t.Fatalf("resolved meta should end pagination")
	}

	m = Meta{Page: 1, PageCount: 2}.Resolve(1)
	if m.Done(1) {
		t.Fatalf("page 1 of 2 is not done")
	}
	if !m.Done(2) {
		t.Fatalf("page 2 of 2 is done")
	}
}
