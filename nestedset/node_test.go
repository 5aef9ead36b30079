package nestedset

import "testing"

func TestNodeDerivedQuantities(t *testing.T) {
	fx := fixture()

	if got := fx["root"].Width(); got != 14 {
		t.Errorf("Width() = %d, want 14", got)
	}
	if got := fx["root"].SubtreeCount(); got != 7 {
		t.Errorf("SubtreeCount() = %d, want 7", got)
	}
	if got := fx["b"].SubtreeCount(); got != 3 {
		t.Errorf("SubtreeCount() = %d, want 3", got)
	}
	if !fx["c"].IsLeaf() || fx["a"].IsLeaf() {
		t.Errorf("IsLeaf() wrong for c/a")
	}
	if !fx["root"].IsRoot() || fx["a"].IsRoot() {
		t.Errorf("IsRoot() wrong for root/a")
	}
}

func TestAncestryPredicate(t *testing.T) {
	fx := fixture()

	tests := []struct {
		name     string
		ancestor string
		node     string
		want     bool
	}{
		{"root over c", "root", "c", true},
		{"a over c", "a", "c", true},
		{"a over e", "a", "e", false},
		{"b over f", "b", "f", true},
		{"c over a", "c", "a", false},
		{"not its own ancestor", "a", "a", false},
		{"siblings", "c", "d", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fx[tt.ancestor].IsAncestorOf(fx[tt.node]); got != tt.want {
				t.Errorf("IsAncestorOf() = %v, want %v", got, tt.want)
			}
			if got := fx[tt.node].IsDescendantOf(fx[tt.ancestor]); got != tt.want {
				t.Errorf("IsDescendantOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAncestryAcrossPartitions(t *testing.T) {
	fx := fixture()
	other := fx["c"].Clone()
	other.Partition = 2

	if fx["a"].IsAncestorOf(other) {
		t.Error("containment must not cross partitions")
	}
}
