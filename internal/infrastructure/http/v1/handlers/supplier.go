package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmstock/internal/domain/supplier"
	"pharmstock/internal/infrastructure/http/v1/dto"
)

// SupplierHandler serves the supplier catalog and its contacts.
type SupplierHandler struct {
	*BaseHandler
	service *supplier.Service
}

// NewSupplierHandler creates a supplier handler.
func NewSupplierHandler(base *BaseHandler, service *supplier.Service) *SupplierHandler {
	return &SupplierHandler{BaseHandler: base, service: service}
}

// List returns the whole catalog.
// GET /api/v1/suppliers
func (h *SupplierHandler) List(c *gin.Context) {
	suppliers, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: suppliers, Count: len(suppliers)})
}

// AddContact appends a commercial contact, creating the supplier on demand.
// POST /api/v1/suppliers/:nom/contacts
func (h *SupplierHandler) AddContact(c *gin.Context) {
	var req dto.AddContactRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sup, err := h.service.AddContact(c.Request.Context(), c.Param("nom"), supplier.Commercial{
		Nom:       req.Nom,
		Telephone: req.Telephone,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sup)
}

// RemoveContact deletes a contact by phone.
// DELETE /api/v1/suppliers/:nom/contacts/:telephone
func (h *SupplierHandler) RemoveContact(c *gin.Context) {
	sup, err := h.service.RemoveContact(c.Request.Context(), c.Param("nom"), c.Param("telephone"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sup)
}
