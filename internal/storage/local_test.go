package storage

import "testing"

func TestLocalNilDBReturnsDefaults(t *testing.T) {
	l := NewLocal(nil)
	l.AddActivity(Activity{Type: ActivityVisit, Text: "x"})
	if got := l.GetActivities(); len(got) != 0 {
		t.Fatalf("expected empty activities, got %d", len(got))
	}
	l.SetSubscribed(true)
	if l.IsSubscribed() {
		t.Fatalf("nil store should read as unsubscribed")
	}
	if l.AddComment("p1", "hi") {
		t.Fatalf("nil store should drop comments")
	}
	if got := l.GetComments("p1"); len(got) != 0 {
		t.Fatalf("expected no comments")
	}
	l.ClearActivities()
}

func TestLocalRoundTrip(t *testing.T) {
	l := NewLocal(openTestDB(t))
	l.AddActivity(Activity{Type: ActivitySubscription, Text: "구독 시작"})
	if got := l.GetActivities(); len(got) != 1 || got[0].Text != "구독 시작" {
		t.Fatalf("unexpected activities: %#v", got)
	}
	l.SetSubscribed(true)
	if !l.IsSubscribed() {
		t.Fatalf("expected subscribed")
	}
	l.SetSubscribed(false)
	if l.IsSubscribed() {
		t.Fatalf("expected unsubscribed")
	}
	if !l.AddComment("p1", "좋아요") {
		t.Fatalf("expected comment stored")
	}
	if l.AddComment("p1", "") {
		t.Fatalf("blank comment should be dropped")
	}
	if got := l.GetComments("p1"); len(got) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(got))
	}
	l.SetConsentStatus("granted")
	if l.ConsentStatus() != "granted" {
		t.Fatalf("consent not persisted")
	}
}
