/*
Package forest is the operational layer over boundary encoded trees. It owns
the read-plan-apply cycle: fetch the rows an operation touches, derive the
arithmetic plan for the change, translate the plan into one storage mutation
and commit it atomically.

Concurrency is handled here, not in storage. Every partition has a mutex and
an operation holds the mutexes of each partition it touches for its whole
read-plan-apply cycle. Mutexes are always acquired in ascending partition
order, so two operations spanning the same pair of partitions cannot
deadlock. Because a node can change partition between the lookup that named
its partition and the lock acquisition, lock helpers refetch under the lock
and retry when the partition moved.

Mutator performs structural changes, Reader answers ancestry queries, and
CheckPartition audits a partition against the encoding rules.
*/
package forest
