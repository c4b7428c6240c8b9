package database

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yummyfi/yummyfi-backend/models"
)

var starterMenu = []models.Product{
	{Name: "Paneer Butter Masala", Price: 240, OfferPrice: 40, Category: "Main Course", IsVeg: true,
		Description: "Cottage cheese simmered in a rich tomato and butter gravy."},
	{Name: "Butter Chicken", Price: 290, Category: "Main Course",
		Description: "Tandoori chicken in a creamy makhani sauce."},
	{Name: "Hyderabadi Chicken Biryani", Price: 320, OfferPrice: 30, Category: "Rice & Biryani",
		Description: "Dum-cooked basmati rice layered with spiced chicken."},
	{Name: "Veg Pulao", Price: 180, Category: "Rice & Biryani", IsVeg: true,
		Description: "Basmati rice with seasonal vegetables and whole spices."},
	{Name: "Hara Bhara Kebab", Price: 160, Category: "Starters", IsVeg: true,
		Description: "Spinach and pea patties, shallow fried."},
	{Name: "Butter Naan", Price: 50, Category: "Breads", IsVeg: true},
	{Name: "Gulab Jamun", Price: 90, OfferPrice: 10, Category: "Desserts", IsVeg: true,
		Description: "Two warm milk dumplings in cardamom syrup."},
}

// SeedProducts fills an empty menu with a starter set. It does nothing when
// any product already exists.
func SeedProducts(db *gorm.DB, log logrus.FieldLogger) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	menu := make([]models.Product, len(starterMenu))
	copy(menu, starterMenu)
	for i := range menu {
		menu[i].ImageFocus = 50
	}
	if err := db.Create(&menu).Error; err != nil {
		return err
	}
	log.WithField("products", len(menu)).Info("Seeded starter menu")
	return nil
}
