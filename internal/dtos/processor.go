package dtos

// Gateway wire types.

type GatewayClient struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Document string `json:"document"`
}

type GatewayProduct struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type GatewayMetadata struct {
	Reference   string `json:"referencia"`
	Kind        string `json:"tipo"`
	GeneratedAt string `json:"gerado_em"`
}

type CreateChargeRequest struct {
	Identifier string           `json:"identifier"`
	Amount     float64          `json:"amount"`
	Client     GatewayClient    `json:"client"`
	Products   []GatewayProduct `json:"products"`
	DueDate    string           `json:"dueDate"`
	Metadata   GatewayMetadata  `json:"metadata"`
}

type GatewayPix struct {
	Code   string `json:"code"`
	Image  string `json:"image"`
	Base64 string `json:"base64"`
}

type GatewayOrder struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type CreateChargeResponse struct {
	TransactionID string        `json:"transactionId"`
	Status        string        `json:"status"`
	Fee           float64       `json:"fee"`
	Pix           *GatewayPix   `json:"pix"`
	Order         *GatewayOrder `json:"order"`
}

type TransactionStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type GatewayErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Callback the gateway posts when a transaction changes state.
type GatewayCallback struct {
	Event         string               `json:"event"`
	ID            string               `json:"id"`
	TransactionID string               `json:"transactionId"`
	Amount        float64              `json:"amount"`
	Transaction   *CallbackTransaction `json:"transaction"`
}

type CallbackTransaction struct {
	ID      string  `json:"id"`
	Status  string  `json:"status"`
	Amount  float64 `json:"amount"`
	PayedAt string  `json:"payedAt"`
}
