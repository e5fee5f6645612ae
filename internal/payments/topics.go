package payments

const (
	TopicPaymentsUpdated = "payments.updated"
	TopicOrdersCreated   = "orders.created"
	TopicStockAlert      = "stock.alert"
)

// PartitionKey keeps events for one order on one partition so status
// updates replay in order.
func PartitionKey(externalReference string) []byte {
	return []byte(externalReference)
}
