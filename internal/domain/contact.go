package domain

// ContactMessage is a fire-and-forget message submitted from the contact
// form and relayed to the backend endpoint.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}
