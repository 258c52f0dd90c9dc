package message

import (
	"testing"

	"teamsbridge/pkg/card"
)

func TestFlattenPreservesOrder(t *testing.T) {
	msg := Inbound{MultipleOutput: []Inbound{
		{Message: "a"},
		{MultipleOutput: []Inbound{{Message: "b"}, {Message: "c"}}},
		{Message: "d"},
	}}

	flat := msg.Flatten()
	if len(flat) != 4 {
		t.Fatalf("len = %d, want 4", len(flat))
	}
	for i, want := range []string{"a", "b", "c", "d"} {
		if flat[i].Message != want {
			t.Fatalf("flat[%d] = %q, want %q", i, flat[i].Message, want)
		}
	}
}

func TestFlattenSingle(t *testing.T) {
	flat := Inbound{Message: "hi"}.Flatten()
	if len(flat) != 1 || flat[0].Message != "hi" {
		t.Fatalf("flat = %#v", flat)
	}
}

func TestEventPredicates(t *testing.T) {
	yes := true
	if !(Inbound{EscalateOption: &yes}).IsEscalation() {
		t.Fatal("expected escalation")
	}
	if !(Inbound{RatingData: &RatingData{Type: "rate"}}).IsRating() {
		t.Fatal("expected rating")
	}
	if (Inbound{Message: "hello"}).IsRating() {
		t.Fatal("plain text is not a rating")
	}
}

func TestInboundIsEmpty(t *testing.T) {
	if !(Inbound{}).IsEmpty() {
		t.Fatal("placeholder should be empty")
	}
	if (Inbound{Option: "1"}).IsEmpty() {
		t.Fatal("option selection is not empty")
	}
	index := 0
	if (Inbound{ExtendedContentAnswer: &index}).IsEmpty() {
		t.Fatal("extended content selection is not empty")
	}
}

func TestRichIsEmpty(t *testing.T) {
	if !(Rich{}).IsEmpty() {
		t.Fatal("zero message should be empty")
	}
	if Text("x").IsEmpty() {
		t.Fatal("text message should not be empty")
	}
	if (Rich{Body: []card.Element{card.TextBlock("x")}}).IsEmpty() {
		t.Fatal("body message should not be empty")
	}
}
