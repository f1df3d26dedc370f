package usecase

// OrderPlacedMsg is staged in the outbox inside the order transaction and
// published to RabbitMQ by the dispatcher after commit.
type OrderPlacedMsg struct {
	OrderID      string `json:"orderId"`
	CustomerName string `json:"customerName"`
	Total        string `json:"total"`
	LineCount    int    `json:"lineCount"`
}

// StockReplenishedMsg arrives on the warehouse replenishment Kafka topic.
type StockReplenishedMsg struct {
	ProductID int64  `json:"productId"`
	Quantity  int    `json:"quantity"`
	Source    string `json:"source"` // e.g. "warehouse-intake"
}
