package algorithm

// Quorum holds the replication thresholds for coordinated operations.
// RF bounds the owner set size; W and R are the minimum replica
// acknowledgments and replies for a write or read to succeed.
type Quorum struct {
	ReplicationFactor int
	WriteQuorum       int
	ReadQuorum        int
}

// NewQuorum creates a quorum policy
func NewQuorum(rf, w, r int) Quorum {
	return Quorum{ReplicationFactor: rf, WriteQuorum: w, ReadQuorum: r}
}

// WriteSatisfied reports whether the ack count reaches the write quorum
func (q Quorum) WriteSatisfied(acks int) bool {
	return acks >= q.WriteQuorum
}

// ReadSatisfied reports whether the reply count reaches the read quorum
func (q Quorum) ReadSatisfied(replies int) bool {
	return replies >= q.ReadQuorum
}
