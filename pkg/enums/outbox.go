package enums

// OutboxAggregateType names the entity an outbox event describes.
type OutboxAggregateType string

const AggregateInventoryItem OutboxAggregateType = "inventory_item"

func (a OutboxAggregateType) IsValid() bool {
	return a == AggregateInventoryItem
}

// OutboxEventType names the fact an outbox event announces. The Kafka consumer
// contract depends on these strings.
type OutboxEventType string

const (
	EventInventoryStockStatusChanged OutboxEventType = "inventory_stock_status_changed"
	EventInventoryExpiringCritical   OutboxEventType = "inventory_expiring_critical"
	EventInventoryExpired            OutboxEventType = "inventory_expired"
)

var eventAggregates = map[OutboxEventType]OutboxAggregateType{
	EventInventoryStockStatusChanged: AggregateInventoryItem,
	EventInventoryExpiringCritical:   AggregateInventoryItem,
	EventInventoryExpired:            AggregateInventoryItem,
}

func (e OutboxEventType) IsValid() bool {
	_, ok := eventAggregates[e]
	return ok
}

// Aggregate returns the aggregate type every event of this kind must carry, or ""
// for unknown events.
func (e OutboxEventType) Aggregate() OutboxAggregateType {
	return eventAggregates[e]
}
