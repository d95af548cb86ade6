package pharmacy

import (
	"context"
	"testing"
)

func testCatalog() *Catalog {
	return NewCatalog([]Entity{
		{ID: "1", Name: "Alpha Pharmacy", Address: "Seoul Jung-gu 1", Phone: "02-111-1111", Lat: 37.5000, Lng: 127.0000},
		{ID: "2", Name: "Beta 약국", Address: "Seoul Jongno 2", Phone: "02-222-2222", Lat: 37.5050, Lng: 127.0000},
		{ID: "3", Name: "Gamma", Address: "Busan", Phone: "051-333-3333", Lat: 35.1000, Lng: 129.0000},
		{ID: "4", Name: "Twin", Address: "Seoul Jung-gu 1", Phone: "02-444-4444", Lat: 37.5000, Lng: 127.0000},
	})
}

func TestSearchEmptyQueryReturnsAll(t *testing.T) {
	c := testCatalog()
	if got := len(c.Search("   ")); got != 4 {
		t.Fatalf("expected all 4 entries, got %d", got)
	}
}

func TestSearchMatchesNameAddressPhone(t *testing.T) {
	c := testCatalog()
	if got := c.Search("ALPHA"); len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("name match failed: %#v", got)
	}
	if got := c.Search("busan"); len(got) != 1 || got[0].ID != "3" {
		t.Fatalf("address match failed: %#v", got)
	}
	if got := c.Search("222-2222"); len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("phone match failed: %#v", got)
	}
	if got := c.Search("약국"); len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("hangul match failed: %#v", got)
	}
}

func TestGetByID(t *testing.T) {
	c := testCatalog()
	if e, ok := c.GetByID("3"); !ok || e.Name != "Gamma" {
		t.Fatalf("unexpected lookup: %#v %v", e, ok)
	}
	if _, ok := c.GetByID("missing"); ok {
		t.Fatalf("expected miss")
	}
}

func TestFindNearbySortedWithinRadius(t *testing.T) {
	c := testCatalog()
	got := c.FindNearby(37.5001, 127.0000, 1)
	if len(got) != 3 {
		t.Fatalf("expected 3 nearby (including duplicate position), got %d: %#v", len(got), got)
	}
	if got[0].ID != "1" || got[1].ID != "4" || got[2].ID != "2" {
		t.Fatalf("unexpected order: %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i].DistanceM < got[i-1].DistanceM {
			t.Fatalf("not sorted by distance")
		}
	}
	if got[2].DistanceM < 500 || got[2].DistanceM > 600 {
		t.Fatalf("unexpected distance for 2: %v", got[2].DistanceM)
	}
}

func TestFindNearbyEmptyCatalog(t *testing.T) {
	c := NewCatalog(nil)
	if got := c.FindNearby(37.5, 127, 5); len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
}

func TestSearchNearbyUsesMeters(t *testing.T) {
	c := testCatalog()
	got, err := c.SearchNearby(context.Background(), 37.5001, 127.0000, 100)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results within 100m, got %d", len(got))
	}
}

func TestDefaultCatalogParses(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	if c.Len() == 0 {
		t.Fatalf("expected seed entries")
	}
	near := c.FindNearby(37.5665, 126.9780, 1)
	if len(near) == 0 || near[0].ID != "c-001" {
		t.Fatalf("expected city hall pharmacy first, got %#v", near)
	}
}

func TestParseCatalogRejectsMissingID(t *testing.T) {
	if _, err := ParseCatalog([]byte(`[{"name":"x"}]`)); err == nil {
		t.Fatal("expected error")
	}
}

func TestLinksFallBackToSearch(t *testing.T) {
	e := Entity{Name: "시청 약국"}
	if got := e.KakaoLink(); got != "https://map.kakao.com/search?q=%EC%8B%9C%EC%B2%AD+%EC%95%BD%EA%B5%AD" {
		t.Fatalf("unexpected kakao link: %s", got)
	}
	e.Refs.KakaoURL = "http://place.map.kakao.com/1"
	if got := e.KakaoLink(); got != "http://place.map.kakao.com/1" {
		t.Fatalf("expected explicit url, got %s", got)
	}
}
