package models

import "time"

// Статусы KYC-документа.
const (
	DocumentPending  = "pending"
	DocumentApproved = "approved"
	DocumentRejected = "rejected"
)

// Document загруженный пользователем KYC-документ.
// FileData хранится в base64 и не включается в списки, только в выдачу по id.
type Document struct {
	ID            string     `json:"id"`
	UserUID       string     `json:"user_id"`
	Type          string     `json:"document_type"` // id, passport, utility_bill, bank_statement
	FileName      string     `json:"file_name"`
	MimeType      string     `json:"mime_type"`
	FileData      string     `json:"file_data,omitempty"`
	Status        string     `json:"status"`
	UploadedAt    time.Time  `json:"uploaded_at"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReviewerNotes string     `json:"reviewer_notes,omitempty"`
}

// BankDetails банковские реквизиты пользователя для вывода средств.
type BankDetails struct {
	ID            string    `json:"id"`
	UserUID       string    `json:"user_id"`
	BankName      string    `json:"bank_name"`
	AccountName   string    `json:"account_name"`
	AccountNumber string    `json:"account_number"`
	RoutingNumber string    `json:"routing_number,omitempty"`
	SwiftCode     string    `json:"swift_code,omitempty"`
	IBAN          string    `json:"iban,omitempty"`
	AccountType   string    `json:"account_type"`
	Verified      bool      `json:"verified"`
	CreatedAt     time.Time `json:"created_at"`
}
