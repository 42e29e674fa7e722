package enums

import "fmt"

// ProductCategory is the storefront shelf a product is listed under.
type ProductCategory string

const (
	ProductCategoryVegetables ProductCategory = "Vegetables"
	ProductCategoryFruits     ProductCategory = "Fruits"
	ProductCategoryHerbs      ProductCategory = "Herbs"
	ProductCategoryGrains     ProductCategory = "Grains"
	ProductCategoryDairy      ProductCategory = "Dairy"
	ProductCategoryMeat       ProductCategory = "Meat"
	ProductCategoryOther      ProductCategory = "Other"
)

// ProductCategoryAll is the filter value meaning "no category restriction".
const ProductCategoryAll = "all"

var validProductCategories = []ProductCategory{
	ProductCategoryVegetables,
	ProductCategoryFruits,
	ProductCategoryHerbs,
	ProductCategoryGrains,
	ProductCategoryDairy,
	ProductCategoryMeat,
	ProductCategoryOther,
}

func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}

// ProductSort orders marketplace listings.
type ProductSort string

const (
	ProductSortNewest    ProductSort = "newest"
	ProductSortName      ProductSort = "name"
	ProductSortPriceLow  ProductSort = "price-low"
	ProductSortPriceHigh ProductSort = "price-high"
	ProductSortRating    ProductSort = "rating"
)

var validProductSorts = []ProductSort{
	ProductSortNewest,
	ProductSortName,
	ProductSortPriceLow,
	ProductSortPriceHigh,
	ProductSortRating,
}

func (s ProductSort) IsValid() bool {
	for _, candidate := range validProductSorts {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseProductSort(value string) (ProductSort, error) {
	for _, candidate := range validProductSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product sort %q", value)
}
