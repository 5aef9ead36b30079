/*
Package storage persists boundary encoded tree rows and applies mutation
batches to them.

A row is one node: its identity, its parent pointer, and the four ordering
fields partition, depth, left and right. Stores index rows two ways, by node
id for point fetches and by (partition, left) for ordered scans. The scan
order is exactly preorder, which is what makes the encoding useful.

Mutations are declarative. A caller describes a structural change as a set of
bounded range shifts, deletes, inserts and reparent updates, and the store
applies the whole set atomically. Every shift predicate is evaluated against
the rows as they stood when Apply began, never against partially shifted
values. That matters because a single move produces shifts whose source and
destination regions interleave; evaluating them against a common snapshot
makes their order irrelevant.

Two implementations are provided. MemStore keeps rows in an in memory btree
and is the right choice for tests and ephemeral trees. KVStore lays the same
rows out in any cosmos-db backend, encoding each row with CBOR.
*/
package storage
