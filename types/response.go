package types

type ApiResponse struct {
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Kind    string      `json:"kind,omitempty"`
	Token   string      `json:"token,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
