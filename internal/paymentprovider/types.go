package paymentprovider

// CheckoutSession состояние сессии оплаты Stripe Checkout.
type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"` // unpaid, paid, no_payment_required
	AmountTotal   int64  `json:"amount_total"`   // В минимальных единицах валюты
	Currency      string `json:"currency"`
	PaymentIntent string `json:"payment_intent"`
}

// WebhookEvent входящее событие вебхука Stripe.
type WebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}
