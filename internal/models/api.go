package models

// Request and response bodies for the HTTP surface. Every endpoint uses
// an explicit typed struct rather than a dynamic map.

type VerifyRequest struct {
	Token string `json:"token"`
}

type VerifyResponse struct {
	User    *User  `json:"user"`
	Message string `json:"message"`
}

type CreateExpenseRequest struct {
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Note     string  `json:"note"`
	Date     string  `json:"date"`
}

type TipExpense struct {
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
}

type TipsRequest struct {
	Expenses []TipExpense `json:"expenses"`
}

type TipResponse struct {
	Tip      string `json:"tip"`
	Category string `json:"category"`
}

type LearningModule struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
	Icon        string `json:"icon"`
}

type LearningPathResponse struct {
	Level        string           `json:"level"`
	Modules      []LearningModule `json:"modules"`
	TotalSpent   float64          `json:"total_spent"`
	ExpenseCount int              `json:"expense_count"`
}

type StatusResponse struct {
	Message  string   `json:"message"`
	Version  string   `json:"version"`
	Status   string   `json:"status"`
	Features []string `json:"features"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
	AIModel   string `json:"ai_model"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
