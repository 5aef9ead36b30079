package nestedset

import "github.com/google/uuid"

// tid gives stable, readable ids for table tests.
func tid(i byte) uuid.UUID {
	var u uuid.UUID
	u[15] = i
	return u
}

// fixture is the canonical seven node tree used throughout the tests:
//
//	              1 root 14
//	             /         \
//	       2 (a) 7       8 (b) 13
//	        /   \          /   \
//	  3 (c) 4  5 (d) 6  9 (e) 10  11 (f) 12
func fixture() map[string]*Node {
	return map[string]*Node{
		"root": {ID: tid(1), Partition: 1, Depth: 0, Left: 1, Right: 14},
		"a":    {ID: tid(2), Parent: tid(1), Partition: 1, Depth: 1, Left: 2, Right: 7},
		"c":    {ID: tid(3), Parent: tid(2), Partition: 1, Depth: 2, Left: 3, Right: 4},
		"d":    {ID: tid(4), Parent: tid(2), Partition: 1, Depth: 2, Left: 5, Right: 6},
		"b":    {ID: tid(5), Parent: tid(1), Partition: 1, Depth: 1, Left: 8, Right: 13},
		"e":    {ID: tid(6), Parent: tid(5), Partition: 1, Depth: 2, Left: 9, Right: 10},
		"f":    {ID: tid(7), Parent: tid(5), Partition: 1, Depth: 2, Left: 11, Right: 12},
	}
}

// fixtureScan is the fixture in ascending Left order, the shape an ordered
// partition scan produces.
func fixtureScan() []*Node {
	fx := fixture()
	return []*Node{fx["root"], fx["a"], fx["c"], fx["d"], fx["b"], fx["e"], fx["f"]}
}
