package response

// ActionResponse answers requests that start work on the server, such as
// collecting a station's water levels. Count is the number of items the
// action produced.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   int    `json:"count"`
	Data    any    `json:"data,omitempty"`
}

func NewActionResponse(message string, count int, data any) ActionResponse {
	return ActionResponse{
		Success: true,
		Message: message,
		Count:   count,
		Data:    data,
	}
}
