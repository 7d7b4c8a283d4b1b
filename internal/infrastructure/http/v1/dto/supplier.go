package dto

// AddContactRequest appends a commercial contact to a supplier.
type AddContactRequest struct {
	Nom       string `json:"nom"`
	Telephone string `json:"telephone" binding:"required"`
}
