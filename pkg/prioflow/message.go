package prioflow

// Message is the immutable unit of data moved through a Channel.
type Message struct {
	// Value is the produced payload.
	Value int `json:"value"`

	// Priority orders removal: higher values are popped first.
	Priority int `json:"priority"`

	// ProducerID identifies the producer that created the message.
	ProducerID int `json:"producer_id"`

	// Seq is assigned by the channel at insertion time. It increases
	// strictly across the channel's lifetime and is never reused, which
	// makes it the tie-break for equal priorities: lowest Seq (earliest
	// inserted) wins.
	Seq uint64 `json:"seq"`
}
