package rank

import (
	"testing"

	"github.com/google/uuid"
)

func TestAssignSequentialRanks(t *testing.T) {
	entries := []Scored{
		{UserID: uuid.New(), Score: 300},
		{UserID: uuid.New(), Score: 900},
		{UserID: uuid.New(), Score: 600},
	}

	ranked := Assign(entries)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked entries, got %d", len(ranked))
	}

	for i, r := range ranked {
		if r.Rank != i+1 {
			t.Errorf("entry %d: expected rank %d, got %d", i, i+1, r.Rank)
		}
	}
	if ranked[0].Score != 900 || ranked[1].Score != 600 || ranked[2].Score != 300 {
		t.Errorf("entries not ordered by score desc: %+v", ranked)
	}
}

func TestAssignTieBreakIsDeterministic(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	first := Assign([]Scored{{a, 500}, {b, 500}, {c, 500}})
	second := Assign([]Scored{{c, 500}, {a, 500}, {b, 500}})

	for i := range first {
		if first[i].UserID != second[i].UserID || first[i].Rank != second[i].Rank {
			t.Fatalf("tie ordering depends on input order: %+v vs %+v", first, second)
		}
	}

	for i := 1; i < len(first); i++ {
		if first[i-1].UserID.String() >= first[i].UserID.String() {
			t.Errorf("ties not broken by user ID ascending: %+v", first)
		}
	}
}

func TestAssignDoesNotMutateInput(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	entries := []Scored{{a, 100}, {b, 200}}

	Assign(entries)

	if entries[0].UserID != a || entries[1].UserID != b {
		t.Error("Assign reordered the caller's slice")
	}
}

func TestAssignEmpty(t *testing.T) {
	if got := Assign(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %+v", got)
	}
}

func TestPartitionDropsEmptyKeys(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	parts := Partition(map[uuid.UUID]string{
		a: "DE",
		b: "DE",
		c: "",
	})

	if len(parts) != 1 {
		t.Fatalf("expected 1 partition, got %d", len(parts))
	}
	if len(parts["DE"]) != 2 {
		t.Errorf("expected 2 members in DE, got %d", len(parts["DE"]))
	}
}
