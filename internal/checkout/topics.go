package checkout

const (
	TopicCheckoutCommitted = "checkout.committed"
	TopicCheckoutRejected  = "checkout.rejected"
	TopicRestockRequested  = "inventory.restock.requested"
)

// Partition key = user_id for checkout events, product_id for restocks, so
// events about the same entity keep their order.
func PartitionKey(id string) []byte { return []byte(id) }
