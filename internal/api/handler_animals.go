package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"herptrack-backend/internal/model"
	"herptrack-backend/internal/store"
)

type animalRequest struct {
	Name        string     `json:"name" binding:"required"`
	Species     string     `json:"species"`
	Morph       string     `json:"morph"`
	Sex         string     `json:"sex"`
	HatchDate   *time.Time `json:"hatch_date"`
	WeightGrams *float64   `json:"weight_grams"`
	EnclosureID *uuid.UUID `json:"enclosure_id"`
	ImageURL    string     `json:"image_url"`
	Notes       string     `json:"notes"`
}

func (h *Handler) ListAnimals(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	animals, err := h.store.ListAnimals(c.Request.Context(), ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve animals"})
		return
	}
	c.JSON(http.StatusOK, animals)
}

func (h *Handler) CreateAnimal(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	var req animalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	animal := model.Animal{
		OwnerID:     ownerID,
		Name:        req.Name,
		Species:     req.Species,
		Morph:       req.Morph,
		Sex:         req.Sex,
		HatchDate:   req.HatchDate,
		WeightGrams: req.WeightGrams,
		EnclosureID: req.EnclosureID,
		ImageURL:    req.ImageURL,
		Notes:       req.Notes,
	}
	if err := h.store.CreateAnimal(c.Request.Context(), &animal); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, animal)
}

func (h *Handler) GetAnimal(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	animalID, ok := parseID(c, "id")
	if !ok {
		return
	}

	animal, err := h.store.GetAnimal(c.Request.Context(), ownerID, animalID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "animal not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, animal)
}

func (h *Handler) UpdateAnimal(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	animalID, ok := parseID(c, "id")
	if !ok {
		return
	}

	animal, err := h.store.GetAnimal(c.Request.Context(), ownerID, animalID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "animal not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var req animalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	animal.Name = req.Name
	animal.Species = req.Species
	animal.Morph = req.Morph
	animal.Sex = req.Sex
	animal.HatchDate = req.HatchDate
	animal.EnclosureID = req.EnclosureID
	animal.ImageURL = req.ImageURL
	animal.Notes = req.Notes

	if err := h.store.UpdateAnimal(c.Request.Context(), animal); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, animal)
}

func (h *Handler) DeleteAnimal(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}
	animalID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteAnimal(c.Request.Context(), ownerID, animalID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
