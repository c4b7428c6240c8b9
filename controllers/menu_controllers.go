package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yummyfi/yummyfi-backend/models"
	"github.com/yummyfi/yummyfi-backend/utils"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

type productRequest struct {
	Name        string  `json:"name" binding:"required"`
	Price       float64 `json:"price" binding:"gte=0"`
	OfferPrice  float64 `json:"offer_price" binding:"gte=0"`
	Description string  `json:"description"`
	Category    string  `json:"category" binding:"required"`
	ImageURL    string  `json:"image_url"`
	ImageFocus  *int    `json:"image_focus" binding:"omitempty,gte=0,lte=100"`
	IsVeg       bool    `json:"is_veg"`
}

func (r productRequest) applyTo(p *models.Product) {
	p.Name = strings.TrimSpace(r.Name)
	p.Price = r.Price
	p.OfferPrice = r.OfferPrice
	p.Description = r.Description
	p.Category = strings.TrimSpace(r.Category)
	p.ImageURL = r.ImageURL
	p.ImageFocus = 50
	if r.ImageFocus != nil {
		p.ImageFocus = *r.ImageFocus
	}
	p.IsVeg = r.IsVeg
}

// GetMenu -> all products, optionally ?category=
func (mc *MenuController) GetMenu(c *gin.Context) {
	var products []models.Product

	db := mc.DB.WithContext(c.Request.Context()).Order("category ASC, name ASC")
	if category := c.Query("category"); category != "" {
		db = db.Where("category = ?", category)
	}
	if err := db.Find(&products).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of menus", gin.H{
		"categories": models.Categories,
		"products":   products,
	})
}

func (mc *MenuController) GetProduct(c *gin.Context) {
	product, ok := mc.find(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product detail", product)
}

func (mc *MenuController) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var product models.Product
	req.applyTo(&product)
	if err := mc.DB.WithContext(c.Request.Context()).Create(&product).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Product created", product)
}

func (mc *MenuController) UpdateProduct(c *gin.Context) {
	product, ok := mc.find(c)
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	req.applyTo(&product)
	if err := mc.DB.WithContext(c.Request.Context()).Save(&product).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product updated", product)
}

func (mc *MenuController) DeleteProduct(c *gin.Context) {
	result := mc.DB.WithContext(c.Request.Context()).Delete(&models.Product{}, "id = ?", c.Param("id"))
	if result.Error != nil {
		respondServiceError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, errProductNotFound)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product deleted", nil)
}

func (mc *MenuController) find(c *gin.Context) (models.Product, bool) {
	var product models.Product
	err := mc.DB.WithContext(c.Request.Context()).First(&product, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondError(c, http.StatusNotFound, errProductNotFound)
		return product, false
	}
	if err != nil {
		respondServiceError(c, err)
		return product, false
	}
	return product, true
}
